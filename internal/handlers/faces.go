package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"camerahub/internal/logger"
	"camerahub/internal/services"
)

const maxUploadSize = 10 << 20 // 10 MB

// FaceEntry describes one enrolled identity.
type FaceEntry struct {
	Name    string `json:"name"`
	Samples int    `json:"samples"`
}

// EnrollResponse reports the outcome of an enrollment request.
type EnrollResponse struct {
	Name     string `json:"name"`
	Enrolled int    `json:"enrolled"`
}

// FacesHandler serves the gallery API:
//
//	GET    /api/faces        list enrolled identities
//	POST   /api/faces        enroll from an uploaded image (multipart name+image)
//	DELETE /api/faces?name=  remove an identity
func FacesHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listFaces(w, manager, log)
		case http.MethodPost:
			enrollFromUpload(w, r, manager, log)
		case http.MethodDelete:
			removeFace(w, r, manager, log)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// EnrollFromCameraHandler enrolls a name from the latest camera frame.
// Expects a JSON body {"name": "..."}.
func EnrollFromCameraHandler(manager *services.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(body.Name)
		if name == "" {
			http.Error(w, "A name is required", http.StatusBadRequest)
			return
		}

		enrolled, err := manager.EnrollFromCamera(name)
		if err != nil {
			writeEnrollError(w, err, log)
			return
		}

		writeJSON(w, EnrollResponse{Name: name, Enrolled: enrolled}, log)
	}
}

func listFaces(w http.ResponseWriter, manager *services.Manager, log *logger.Logger) {
	counts := manager.GetRegistry().SampleCounts()

	entries := make([]FaceEntry, 0, len(counts))
	for _, name := range manager.GetRegistry().Names() {
		entries = append(entries, FaceEntry{Name: name, Samples: counts[name]})
	}

	writeJSON(w, entries, log)
}

func enrollFromUpload(w http.ResponseWriter, r *http.Request, manager *services.Manager, log *logger.Logger) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "A name is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "An image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		http.Error(w, "Error reading image", http.StatusBadRequest)
		return
	}

	enrolled, err := manager.EnrollFromImage(name, data)
	if err != nil {
		writeEnrollError(w, err, log)
		return
	}

	log.Info("Enrolled %d face(s) for %q via upload", enrolled, name)
	writeJSON(w, EnrollResponse{Name: name, Enrolled: enrolled}, log)
}

func removeFace(w http.ResponseWriter, r *http.Request, manager *services.Manager, log *logger.Logger) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "A name is required", http.StatusBadRequest)
		return
	}

	if err := manager.RemoveIdentity(name); err != nil {
		log.Error("Failed to remove identity %q: %v", name, err)
		http.Error(w, "Unable to remove identity", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeEnrollError(w http.ResponseWriter, err error, log *logger.Logger) {
	if errors.Is(err, services.ErrNoFaceDetected) || errors.Is(err, services.ErrNoFrame) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Error("Enrollment failed: %v", err)
	http.Error(w, "Enrollment failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error encoding JSON response: %v", err)
	}
}
