package models

import "time"

// EmbeddingSize is the length of a dlib face descriptor.
const EmbeddingSize = 128

// Embedding is a fixed-length face descriptor used for similarity comparison.
type Embedding []float32

// KnownFace is an enrolled face embedding associated with a human-readable name.
// A name may own several embeddings; they are created on enrollment and
// removed only by explicit delete.
type KnownFace struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Embedding Embedding `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
