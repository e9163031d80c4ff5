package routes

import (
	"net/http"

	"camerahub/internal/handlers"
	"camerahub/internal/logger"
	"camerahub/internal/services"
)

// SetupRoutes registers the viewer websocket, the API endpoints and static
// file serving.
func SetupRoutes(manager *services.Manager, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static viewer page
	mux.Handle("/", http.FileServer(http.Dir("static")))

	// API endpoints
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(manager, log))
	mux.HandleFunc("/api/events", handlers.GetEventsHandler(manager, log))
	mux.HandleFunc("/api/faces", handlers.FacesHandler(manager, log))
	mux.HandleFunc("/api/faces/capture", handlers.EnrollFromCameraHandler(manager, log))

	return mux
}
