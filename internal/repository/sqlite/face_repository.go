package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"camerahub/internal/models"
)

// FaceRepository implements repository.FaceRepository for SQLite.
// Embeddings are stored as little-endian float32 blobs.
type FaceRepository struct {
	db *DB
}

// NewFaceRepository creates a new SQLite face repository.
func NewFaceRepository(db *DB) *FaceRepository {
	return &FaceRepository{db: db}
}

// Insert adds a new embedding for the given name.
func (r *FaceRepository) Insert(name string, embedding models.Embedding) (int64, error) {
	if len(embedding) == 0 {
		return 0, fmt.Errorf("refusing to store empty embedding for %q", name)
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO known_faces (name, embedding)
		VALUES (?, ?)
	`, name, encodeEmbedding(embedding))
	if err != nil {
		return 0, fmt.Errorf("failed to insert face embedding: %w", err)
	}

	return result.LastInsertId()
}

// GetAll retrieves every enrolled face embedding.
func (r *FaceRepository) GetAll() ([]models.KnownFace, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, name, embedding, created_at FROM known_faces ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query known faces: %w", err)
	}
	defer rows.Close()

	var faces []models.KnownFace
	for rows.Next() {
		var face models.KnownFace
		var blob []byte
		if err := rows.Scan(&face.ID, &face.Name, &blob, &face.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan known face: %w", err)
		}
		face.Embedding = decodeEmbedding(blob)
		faces = append(faces, face)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read known faces: %w", err)
	}

	return faces, nil
}

// GetByName retrieves all embeddings enrolled under a name.
func (r *FaceRepository) GetByName(name string) ([]models.KnownFace, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, name, embedding, created_at FROM known_faces WHERE name = ? ORDER BY id
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query known faces: %w", err)
	}
	defer rows.Close()

	var faces []models.KnownFace
	for rows.Next() {
		var face models.KnownFace
		var blob []byte
		if err := rows.Scan(&face.ID, &face.Name, &blob, &face.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan known face: %w", err)
		}
		face.Embedding = decodeEmbedding(blob)
		faces = append(faces, face)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read known faces: %w", err)
	}

	return faces, nil
}

// DeleteByName removes every embedding enrolled under a name.
func (r *FaceRepository) DeleteByName(name string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM known_faces WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete known faces: %w", err)
	}
	return nil
}

// encodeEmbedding serializes an embedding as little-endian float32 values.
func encodeEmbedding(embedding models.Embedding) []byte {
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding deserializes a little-endian float32 blob.
func decodeEmbedding(blob []byte) models.Embedding {
	embedding := make(models.Embedding, len(blob)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return embedding
}
