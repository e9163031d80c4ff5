package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"camerahub/internal/logger"
)

// Snapshot is an annotated frame captured when an event was logged.
type Snapshot struct {
	Timestamp time.Time
	Label     string
	Data      []byte
}

// SnapshotBuffer collects event snapshots in memory and flushes them to
// disk on a ticker, so the capture loop never blocks on file IO.
type SnapshotBuffer struct {
	dir         string
	bufferLimit int
	logger      *logger.Logger

	mu        sync.Mutex
	snapshots []Snapshot
}

// NewSnapshotBuffer creates a buffer writing into dir.
func NewSnapshotBuffer(dir string, bufferLimit int, log *logger.Logger) *SnapshotBuffer {
	return &SnapshotBuffer{
		dir:         dir,
		bufferLimit: bufferLimit,
		logger:      log,
		snapshots:   make([]Snapshot, 0),
	}
}

// Run flushes the buffer every flushInterval seconds until stop is closed.
func (s *SnapshotBuffer) Run(flushInterval int, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(flushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-stop:
			s.Flush()
			return
		}
	}
}

// Add queues a snapshot. Snapshots past the buffer limit are dropped until
// the next flush; an occasional missing snapshot beats an unbounded buffer.
func (s *SnapshotBuffer) Add(data []byte, label string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) >= s.bufferLimit {
		return
	}
	s.snapshots = append(s.snapshots, Snapshot{Timestamp: ts, Label: label, Data: data})
}

// Flush writes all queued snapshots to disk and clears the buffer.
func (s *SnapshotBuffer) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 {
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Error("Error creating snapshot directory: %v", err)
		return
	}

	for _, snap := range s.snapshots {
		filename := fmt.Sprintf("%s_%s.jpg", snap.Timestamp.Format("2006-01-02_15-04-05"), snap.Label)
		fullpath := filepath.Join(s.dir, filename)

		if err := os.WriteFile(fullpath, snap.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}
	}

	s.logger.Info("Flushed %d snapshots to disk", len(s.snapshots))
	s.snapshots = s.snapshots[:0]
}
