package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camerahub/internal/config"
	"camerahub/internal/logger"
	"camerahub/internal/services/labeler"
)

func newBareManager(t *testing.T) *Manager {
	t.Helper()

	log, err := logger.New(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{Tolerance: 0.5, ProcessEveryNth: 1, Headless: true}
	return NewManager(cfg, log, nil, nil, nil, nil, labeler.New(time.Minute), nil, nil, nil)
}

func TestEnrollFromCamera_NoFrameYet(t *testing.T) {
	m := newBareManager(t)
	defer m.closeLastFrame()

	_, err := m.EnrollFromCamera("alice")
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestEnrollFromCamera_AfterShutdown(t *testing.T) {
	// Once the capture loop released the retained frame, enrollment must
	// report no frame instead of cloning a freed mat.
	m := newBareManager(t)
	m.closeLastFrame()
	m.closeLastFrame()

	_, err := m.EnrollFromCamera("alice")
	assert.ErrorIs(t, err, ErrNoFrame)
}
