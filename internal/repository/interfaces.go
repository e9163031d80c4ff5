package repository

import (
	"time"

	"camerahub/internal/models"
)

// EventRepository defines the interface for presence event persistence.
// Events are append-only; there are no update or delete operations.
type EventRepository interface {
	Insert(ev *models.Event) (int64, error)

	GetRecent(limit int) ([]models.Event, error)
	GetByTimeRange(from, to time.Time, limit int) ([]models.Event, error)
}

// FaceRepository defines the interface for enrolled face embeddings.
type FaceRepository interface {
	Insert(name string, embedding models.Embedding) (int64, error)

	GetAll() ([]models.KnownFace, error)
	GetByName(name string) ([]models.KnownFace, error)

	DeleteByName(name string) error
}
