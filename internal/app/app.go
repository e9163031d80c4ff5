package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"camerahub/internal/config"
	"camerahub/internal/logger"
	"camerahub/internal/repository/sqlite"
	"camerahub/internal/routes"
	"camerahub/internal/services"
	"camerahub/internal/services/ai"
	"camerahub/internal/services/camera"
	"camerahub/internal/services/face"
	"camerahub/internal/services/labeler"
	"camerahub/internal/services/registry"
	"camerahub/internal/services/storage"
	"camerahub/internal/services/websocket"
)

// App wires the camera pipeline, storage and HTTP surface together.
type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	cam      *camera.Camera
	detector *ai.PersonDetector
	matcher  *face.Matcher
	buffer   *storage.SnapshotBuffer
	hub      *websocket.HubService
	manager  *services.Manager
}

// New builds the application. Model, camera and database failures are
// fatal here, before any background work starts.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	eventRepo := sqlite.NewEventRepository(db)
	faceRepo := sqlite.NewFaceRepository(db)

	reg, err := registry.New(faceRepo, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	matcher, err := face.NewMatcher(cfg.FaceModelsDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	var detector *ai.PersonDetector
	if cfg.PersonDetectionEnabled() {
		detector, err = ai.NewPersonDetector(cfg.ModelWeightsPath, cfg.ModelConfigPath, cfg.ClassNamesPath, cfg.Confidence, log)
		if err != nil {
			matcher.Close()
			db.Close()
			return nil, err
		}
	} else {
		log.Warning("No DNN model configured, person detection disabled")
	}

	cam, err := camera.Open(cfg.CameraSource, cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		if detector != nil {
			detector.Close()
		}
		matcher.Close()
		db.Close()
		return nil, err
	}

	buffer := storage.NewSnapshotBuffer(cfg.SnapshotDirectory, cfg.SnapshotBufferLimit, log)
	hub := websocket.NewHubService(log)
	lab := labeler.New(time.Duration(cfg.CooldownSeconds) * time.Second)

	manager := services.NewManager(cfg, log, cam, detector, matcher, reg, lab, eventRepo, buffer, hub)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		cam:      cam,
		detector: detector,
		matcher:  matcher,
		buffer:   buffer,
		hub:      hub,
		manager:  manager,
	}, nil
}

// Run starts the background services and the HTTP surface, then drives the
// capture loop on the calling goroutine until it exits.
func (a *App) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)

	go a.buffer.Run(a.config.SnapshotFlushInterval, stop)
	go a.hub.Run()

	router := routes.SetupRoutes(a.manager, a.logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}

	go func() {
		a.logger.Info("Viewer available on http://localhost:%d", a.config.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	a.logger.Info("Watching camera %s (tolerance %.2f, cooldown %ds)",
		a.config.CameraSource, a.config.Tolerance, a.config.CooldownSeconds)

	return a.manager.Run(ctx)
}

// Close releases all resources.
func (a *App) Close() {
	a.cam.Close()
	if a.detector != nil {
		a.detector.Close()
	}
	a.matcher.Close()
	a.db.Close()
}
