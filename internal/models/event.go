package models

import "time"

// UnknownLabel is the identity assigned to faces that match no enrolled embedding.
const UnknownLabel = "unknown"

// Event represents a single logged presence event. Events are immutable once written.
type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
	Known     bool      `json:"known"`
}

// Status returns the human-readable known/unknown status of the event.
func (e *Event) Status() string {
	if e.Known {
		return "known"
	}
	return UnknownLabel
}
