package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"camerahub/internal/config"
	"camerahub/internal/logger"
	"camerahub/internal/models"
	"camerahub/internal/repository"
	"camerahub/internal/services/ai"
	"camerahub/internal/services/camera"
	"camerahub/internal/services/face"
	"camerahub/internal/services/labeler"
	"camerahub/internal/services/registry"
	"camerahub/internal/services/storage"
	"camerahub/internal/services/websocket"
)

// ErrNoFaceDetected is returned when an enrollment image contains no face.
var ErrNoFaceDetected = errors.New("no face detected in the provided image")

// ErrNoFrame is returned when enrollment from camera is requested before
// the stream produced a frame.
var ErrNoFrame = errors.New("no frame available yet, start the stream first")

const escapeKey = 27

// Manager runs the capture-and-process loop and coordinates detection,
// recognition, event logging and frame publishing.
type Manager struct {
	cfg      *config.Config
	logger   *logger.Logger
	camera   *camera.Camera
	detector *ai.PersonDetector // nil when no DNN model is configured
	matcher  *face.Matcher
	registry *registry.Registry
	labeler  *labeler.Labeler
	events   repository.EventRepository
	buffer   *storage.SnapshotBuffer
	hub      *websocket.HubService

	frameMu     sync.Mutex
	lastFrame   gocv.Mat
	frameClosed bool
}

func NewManager(
	cfg *config.Config,
	log *logger.Logger,
	cam *camera.Camera,
	detector *ai.PersonDetector,
	matcher *face.Matcher,
	reg *registry.Registry,
	lab *labeler.Labeler,
	events repository.EventRepository,
	buffer *storage.SnapshotBuffer,
	hub *websocket.HubService,
) *Manager {
	return &Manager{
		cfg:       cfg,
		logger:    log,
		camera:    cam,
		detector:  detector,
		matcher:   matcher,
		registry:  reg,
		labeler:   lab,
		events:    events,
		buffer:    buffer,
		hub:       hub,
		lastFrame: gocv.NewMat(),
	}
}

// Run drives the capture loop until the context is cancelled, the window
// is closed with Esc, or event storage fails. Must be called from the main
// goroutine when a local window is enabled.
func (m *Manager) Run(ctx context.Context) error {
	img := gocv.NewMat()
	defer img.Close()
	defer m.closeLastFrame()

	var window *gocv.Window
	if !m.cfg.Headless {
		window = gocv.NewWindow("CameraHub")
		defer window.Close()
	}

	m.logger.Info("Capture loop started (processing every %d frame(s))", m.cfg.ProcessEveryNth)

	frameCount := 0
	var recognitions []models.Recognition

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !m.camera.Read(&img) {
			m.logger.Warning("No frame from camera %s", m.camera.Source())
			time.Sleep(100 * time.Millisecond)
			continue
		}

		m.frameMu.Lock()
		img.CopyTo(&m.lastFrame)
		m.frameMu.Unlock()

		frameCount++
		if frameCount%m.cfg.ProcessEveryNth == 0 {
			recs, err := m.processFrame(img)
			if err != nil {
				return err
			}
			recognitions = recs
		}

		if err := ai.Annotate(&img, recognitions); err != nil {
			m.logger.Error("Failed to annotate frame: %v", err)
		}

		m.publishFrame(img)

		if window != nil {
			window.IMShow(img)
			if window.WaitKey(1) == escapeKey {
				m.logger.Info("Window closed by operator")
				return nil
			}
		}
	}
}

// processFrame recognizes faces, feeds the labeler, persists emitted events
// and collects display boxes. An event store failure is fatal: the error is
// returned so the loop halts instead of silently dropping events.
func (m *Manager) processFrame(img gocv.Mat) ([]models.Recognition, error) {
	now := time.Now().UTC()
	var recognitions []models.Recognition

	faces, err := m.matcher.DetectMat(img)
	if err != nil {
		m.logger.Error("Face detection failed: %v", err)
		faces = nil
	}

	for _, f := range faces {
		rec := models.Recognition{Label: models.UnknownLabel, Box: f.Box}
		if name, distance, ok := m.registry.FindBestMatch(f.Embedding, m.cfg.Tolerance); ok {
			rec.Label = name
			rec.Known = true
			if confidence := 1.0 - distance; confidence > 0 {
				rec.Confidence = confidence
			}
		}
		recognitions = append(recognitions, rec)

		ev, emit := m.labeler.Observe(rec.Label, rec.Known, now)
		if !emit {
			continue
		}
		if _, err := m.events.Insert(ev); err != nil {
			return nil, fmt.Errorf("event store unavailable: %w", err)
		}
		m.logger.Info("Event logged: %s (%s)", ev.Label, ev.Status())
		m.queueSnapshot(img, rec, ev)
	}

	// Person boxes are display-only: a box overlapping an already
	// recognized face would duplicate the subject.
	if m.detector != nil {
		for _, det := range m.detector.Detect(img) {
			if overlapsAny(det.Box, recognitions) {
				continue
			}
			recognitions = append(recognitions, models.Recognition{
				Label:      det.Label,
				Confidence: det.Confidence,
				Box:        det.Box,
			})
		}
	}

	return recognitions, nil
}

// queueSnapshot stores an annotated copy of the frame for the event.
func (m *Manager) queueSnapshot(img gocv.Mat, rec models.Recognition, ev *models.Event) {
	snapshot := img.Clone()
	defer snapshot.Close()

	if err := ai.Annotate(&snapshot, []models.Recognition{rec}); err != nil {
		m.logger.Error("Failed to annotate snapshot: %v", err)
	}

	buf, err := gocv.IMEncode(".jpg", snapshot)
	if err != nil {
		m.logger.Error("Failed to encode snapshot: %v", err)
		return
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	m.buffer.Add(data, ev.Label, ev.Timestamp)
}

// publishFrame sends the annotated frame to websocket viewers.
func (m *Manager) publishFrame(img gocv.Mat) {
	if m.hub.GetClientCount() == 0 {
		return
	}

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		m.logger.Error("Failed to encode frame: %v", err)
		return
	}
	defer buf.Close()

	m.hub.BroadcastFrame(websocket.FrameMessage{
		Camera: m.camera.Source(),
		Image:  base64.StdEncoding.EncodeToString(buf.GetBytes()),
	})
}

// EnrollFromImage decodes an uploaded image (JPEG or PNG), extracts every
// face and enrolls the embeddings under the given name. Returns the number
// of faces enrolled.
func (m *Manager) EnrollFromImage(name string, data []byte) (int, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return 0, fmt.Errorf("decoded image is empty")
	}

	return m.enrollFromMat(name, mat)
}

// EnrollFromCamera enrolls from the most recent camera frame.
func (m *Manager) EnrollFromCamera(name string) (int, error) {
	m.frameMu.Lock()
	if m.frameClosed || m.lastFrame.Empty() {
		m.frameMu.Unlock()
		return 0, ErrNoFrame
	}
	frame := m.lastFrame.Clone()
	m.frameMu.Unlock()
	defer frame.Close()

	return m.enrollFromMat(name, frame)
}

// closeLastFrame releases the retained frame under the frame lock so a
// concurrent EnrollFromCamera never clones a freed mat during shutdown.
func (m *Manager) closeLastFrame() {
	m.frameMu.Lock()
	defer m.frameMu.Unlock()

	if !m.frameClosed {
		m.lastFrame.Close()
		m.frameClosed = true
	}
}

// enrollFromMat extracts every face in the frame and enrolls the embeddings
// under the given name.
func (m *Manager) enrollFromMat(name string, mat gocv.Mat) (int, error) {
	faces, err := m.matcher.DetectMat(mat)
	if err != nil {
		return 0, err
	}
	if len(faces) == 0 {
		return 0, ErrNoFaceDetected
	}

	for i, f := range faces {
		if err := m.registry.Enroll(name, f.Embedding); err != nil {
			return i, err
		}
	}
	m.labeler.Reset()

	return len(faces), nil
}

// RemoveIdentity removes an enrolled identity and clears cooldown state so
// the subject is immediately re-logged as unknown.
func (m *Manager) RemoveIdentity(name string) error {
	if err := m.registry.Remove(name); err != nil {
		return err
	}
	m.labeler.Reset()
	return nil
}

// GetRegistry returns the face registry.
func (m *Manager) GetRegistry() *registry.Registry {
	return m.registry
}

// GetEventRepository returns the event store.
func (m *Manager) GetEventRepository() repository.EventRepository {
	return m.events
}

// GetHub returns the viewer hub.
func (m *Manager) GetHub() *websocket.HubService {
	return m.hub
}

func overlapsAny(box image.Rectangle, recognitions []models.Recognition) bool {
	for _, rec := range recognitions {
		if box.Overlaps(rec.Box) {
			return true
		}
	}
	return false
}
