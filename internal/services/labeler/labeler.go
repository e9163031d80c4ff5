// Package labeler turns raw per-frame face observations into discrete
// presence events, suppressing repeats for a subject that stays in view.
package labeler

import (
	"sync"
	"time"

	"camerahub/internal/models"
)

// Labeler emits at most one event per identity per cooldown interval.
// All unknown faces share the single "unknown" identity bucket.
type Labeler struct {
	cooldown time.Duration

	mu       sync.Mutex
	lastEmit map[string]time.Time
}

// New creates a Labeler with the given cooldown interval. A non-positive
// cooldown emits an event for every valid observation.
func New(cooldown time.Duration) *Labeler {
	return &Labeler{
		cooldown: cooldown,
		lastEmit: make(map[string]time.Time),
	}
}

// Observe records one face observation. It returns the event to log and
// true when the observation is outside the identity's cooldown window.
// Observations with a zero timestamp are dropped.
func (l *Labeler) Observe(label string, known bool, ts time.Time) (*models.Event, bool) {
	if ts.IsZero() {
		return nil, false
	}
	if !known {
		label = models.UnknownLabel
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, seen := l.lastEmit[label]; seen && ts.Sub(last) < l.cooldown {
		return nil, false
	}
	l.lastEmit[label] = ts

	return &models.Event{
		Timestamp: ts,
		Label:     label,
		Known:     known,
	}, true
}

// Reset clears all cooldown state. Called after gallery changes so a
// re-identified subject is logged promptly under its new label.
func (l *Labeler) Reset() {
	l.mu.Lock()
	l.lastEmit = make(map[string]time.Time)
	l.mu.Unlock()
}
