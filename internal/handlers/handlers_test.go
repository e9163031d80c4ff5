package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camerahub/internal/config"
	"camerahub/internal/logger"
	"camerahub/internal/models"
	"camerahub/internal/repository/sqlite"
	"camerahub/internal/services"
	"camerahub/internal/services/labeler"
	"camerahub/internal/services/registry"
	"camerahub/internal/services/storage"
	"camerahub/internal/services/websocket"
)

// newTestManager builds a Manager against a temp database. Camera, matcher
// and detector stay nil: these tests only exercise the HTTP surface.
func newTestManager(t *testing.T) (*services.Manager, *sqlite.EventRepository, *logger.Logger) {
	t.Helper()

	log, err := logger.New(t.TempDir())
	require.NoError(t, err)

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	eventRepo := sqlite.NewEventRepository(db)
	faceRepo := sqlite.NewFaceRepository(db)

	reg, err := registry.New(faceRepo, log)
	require.NoError(t, err)

	cfg := &config.Config{Tolerance: 0.5, ProcessEveryNth: 1, Headless: true}
	buffer := storage.NewSnapshotBuffer(t.TempDir(), 5, log)
	hub := websocket.NewHubService(log)
	lab := labeler.New(time.Minute)

	manager := services.NewManager(cfg, log, nil, nil, nil, reg, lab, eventRepo, buffer, hub)
	return manager, eventRepo, log
}

func TestGetEventsHandler(t *testing.T) {
	manager, repo, log := newTestManager(t)

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	repo.Insert(&models.Event{Timestamp: base, Label: "alice", Known: true})
	repo.Insert(&models.Event{Timestamp: base.Add(time.Minute), Label: "unknown", Known: false})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	GetEventsHandler(manager, log)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var entries []EventEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)

	// Newest first, with derived status
	assert.Equal(t, "unknown", entries[0].Label)
	assert.Equal(t, "unknown", entries[0].Status)
	assert.Equal(t, "alice", entries[1].Label)
	assert.Equal(t, "known", entries[1].Status)
}

func TestGetEventsHandler_Limit(t *testing.T) {
	manager, repo, log := newTestManager(t)

	for i := 0; i < 5; i++ {
		repo.Insert(&models.Event{Timestamp: time.Now().UTC(), Label: "alice", Known: true})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events?limit=2", nil)
	rec := httptest.NewRecorder()
	GetEventsHandler(manager, log)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []EventEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Len(t, entries, 2)
}

func TestGetEventsHandler_TimeRange(t *testing.T) {
	manager, repo, log := newTestManager(t)

	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for hour := 0; hour < 4; hour++ {
		repo.Insert(&models.Event{Timestamp: base.Add(time.Duration(hour) * time.Hour), Label: "alice", Known: true})
	}

	url := "/api/events?from=" + base.Add(time.Hour).Format(time.RFC3339) +
		"&to=" + base.Add(3*time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	GetEventsHandler(manager, log)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []EventEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Len(t, entries, 2)
}

func TestGetEventsHandler_BadTimeRange(t *testing.T) {
	manager, _, log := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events?from=yesterday", nil)
	rec := httptest.NewRecorder()
	GetEventsHandler(manager, log)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFacesHandler_ListAndDelete(t *testing.T) {
	manager, _, log := newTestManager(t)

	emb := make(models.Embedding, models.EmbeddingSize)
	require.NoError(t, manager.GetRegistry().Enroll("alice", emb))
	require.NoError(t, manager.GetRegistry().Enroll("alice", emb))

	req := httptest.NewRequest(http.MethodGet, "/api/faces", nil)
	rec := httptest.NewRecorder()
	FacesHandler(manager, log)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []FaceEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Name)
	assert.Equal(t, 2, entries[0].Samples)

	req = httptest.NewRequest(http.MethodDelete, "/api/faces?name=alice", nil)
	rec = httptest.NewRecorder()
	FacesHandler(manager, log)(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/faces", nil)
	rec = httptest.NewRecorder()
	FacesHandler(manager, log)(rec, req)
	entries = nil
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Empty(t, entries)
}

func TestFacesHandler_DeleteRequiresName(t *testing.T) {
	manager, _, log := newTestManager(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/faces", nil)
	rec := httptest.NewRecorder()
	FacesHandler(manager, log)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFacesHandler_MethodNotAllowed(t *testing.T) {
	manager, _, log := newTestManager(t)

	req := httptest.NewRequest(http.MethodPut, "/api/faces", nil)
	rec := httptest.NewRecorder()
	FacesHandler(manager, log)(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEnrollFromCameraHandler_RequiresName(t *testing.T) {
	manager, _, log := newTestManager(t)

	req := httptest.NewRequest(http.MethodPost, "/api/faces/capture", strings.NewReader(`{"name":""}`))
	rec := httptest.NewRecorder()
	EnrollFromCameraHandler(manager, log)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeViewer_PingsKeepConnectionAlive(t *testing.T) {
	manager, _, _ := newTestManager(t)
	go manager.GetHub().Run()

	wait := 200 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serveViewer(manager, conn, wait)
	}))
	defer srv.Close()

	client, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	pings := make(chan struct{}, 16)
	client.SetPingHandler(func(appData string) error {
		pings <- struct{}{}
		return client.WriteControl(gws.PongMessage, nil, time.Now().Add(time.Second))
	})

	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	// A silent viewer must survive well past the read deadline: the server
	// keeps pinging and the pong replies keep extending it.
	deadline := time.After(10 * wait)
	for pingCount := 0; pingCount < 3; {
		select {
		case <-pings:
			pingCount++
		case err := <-readErr:
			t.Fatalf("Viewer connection dropped: %v", err)
		case <-deadline:
			t.Fatalf("Expected at least 3 pings, got %d", pingCount)
		}
	}
}

func TestEnrollFromCameraHandler_NoFrameYet(t *testing.T) {
	manager, _, log := newTestManager(t)

	req := httptest.NewRequest(http.MethodPost, "/api/faces/capture", strings.NewReader(`{"name":"alice"}`))
	rec := httptest.NewRecorder()
	EnrollFromCameraHandler(manager, log)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no frame available")
}
