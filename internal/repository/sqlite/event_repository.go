package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"camerahub/internal/models"
)

// EventRepository implements repository.EventRepository for SQLite.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert appends a new event record to the database.
func (r *EventRepository) Insert(ev *models.Event) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO events (timestamp, label, is_known)
		VALUES (?, ?, ?)
	`, ev.Timestamp, ev.Label, boolToInt(ev.Known))
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}

	return result.LastInsertId()
}

// GetRecent retrieves the most recent events, newest first.
func (r *EventRepository) GetRecent(limit int) ([]models.Event, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, timestamp, label, is_known
		FROM events ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByTimeRange retrieves events with from <= timestamp < to, newest first.
func (r *EventRepository) GetByTimeRange(from, to time.Time, limit int) ([]models.Event, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, timestamp, label, is_known
		FROM events WHERE timestamp >= ? AND timestamp < ?
		ORDER BY id DESC LIMIT ?
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		var ev models.Event
		var known int
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Label, &known); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Known = known != 0
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
