package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"camerahub/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Verify database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Database file should exist")
	}
	return db
}

func TestEventRepository_InsertAndGetRecent(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))

	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"alice", "unknown", "bob"} {
		ev := &models.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Label:     label,
			Known:     label != "unknown",
		}
		id, err := repo.Insert(ev)
		if err != nil {
			t.Fatalf("Failed to insert event: %v", err)
		}
		if id <= 0 {
			t.Errorf("Expected positive event ID, got %d", id)
		}
	}

	events, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("Failed to get events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	// Newest first
	if events[0].Label != "bob" || events[2].Label != "alice" {
		t.Errorf("Events not ordered newest first: %v", events)
	}
	if !events[0].Known {
		t.Error("bob should be a known event")
	}
	if events[1].Known {
		t.Error("unknown should not be a known event")
	}
	if !events[2].Timestamp.Equal(base) {
		t.Errorf("Timestamp mismatch: got %v, want %v", events[2].Timestamp, base)
	}
}

func TestEventRepository_GetRecentLimit(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))

	for i := 0; i < 5; i++ {
		_, err := repo.Insert(&models.Event{
			Timestamp: time.Now().UTC(),
			Label:     "alice",
			Known:     true,
		})
		if err != nil {
			t.Fatalf("Failed to insert event: %v", err)
		}
	}

	events, err := repo.GetRecent(2)
	if err != nil {
		t.Fatalf("Failed to get events: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("Expected 2 events, got %d", len(events))
	}
}

func TestEventRepository_GetByTimeRange(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))

	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for hour := 0; hour < 5; hour++ {
		_, err := repo.Insert(&models.Event{
			Timestamp: base.Add(time.Duration(hour) * time.Hour),
			Label:     "alice",
			Known:     true,
		})
		if err != nil {
			t.Fatalf("Failed to insert event: %v", err)
		}
	}

	// Half-open range: [01:00, 03:00) picks hours 1 and 2
	events, err := repo.GetByTimeRange(base.Add(time.Hour), base.Add(3*time.Hour), 10)
	if err != nil {
		t.Fatalf("Failed to query time range: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events in range, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Timestamp.Before(base.Add(time.Hour)) || !ev.Timestamp.Before(base.Add(3*time.Hour)) {
			t.Errorf("Event %v outside requested range", ev.Timestamp)
		}
	}
}

func TestEventRepository_EmptyDatabase(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))

	events, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("Failed to get events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}
