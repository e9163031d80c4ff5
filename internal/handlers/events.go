package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"camerahub/internal/logger"
	"camerahub/internal/models"
	"camerahub/internal/services"
)

const defaultEventLimit = 100

// EventEntry is the JSON shape of a logged event.
type EventEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
	Status    string    `json:"status"`
}

// GetEventsHandler returns logged events as JSON. Supports ?limit= and an
// optional ?from=/?to= RFC3339 time range.
func GetEventsHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || err != nil {
			limit = defaultEventLimit
		}

		var events []models.Event
		repo := manager.GetEventRepository()

		fromParam := r.URL.Query().Get("from")
		toParam := r.URL.Query().Get("to")
		if fromParam != "" || toParam != "" {
			from, to, parseErr := parseTimeRange(fromParam, toParam)
			if parseErr != nil {
				http.Error(w, parseErr.Error(), http.StatusBadRequest)
				return
			}
			events, err = repo.GetByTimeRange(from, to, limit)
		} else {
			events, err = repo.GetRecent(limit)
		}
		if err != nil {
			log.Error("Failed to query events: %v", err)
			http.Error(w, "Unable to read events", http.StatusInternalServerError)
			return
		}

		entries := make([]EventEntry, 0, len(events))
		for _, ev := range events {
			entries = append(entries, EventEntry{
				ID:        ev.ID,
				Timestamp: ev.Timestamp,
				Label:     ev.Label,
				Status:    ev.Status(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			log.Error("Error encoding JSON response: %v", err)
		}
	}
}

// parseTimeRange parses RFC3339 bounds, defaulting missing ends to the
// epoch and now respectively.
func parseTimeRange(fromParam, toParam string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()

	if fromParam != "" {
		parsed, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}
	if toParam != "" {
		parsed, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return from, to, err
		}
		to = parsed
	}
	return from, to, nil
}
