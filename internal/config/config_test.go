package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// clearEnv blanks every variable Load reads so ambient process state
// cannot leak into the assertions. Empty values fall through to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CAMERA_SOURCE", "FRAME_WIDTH", "FRAME_HEIGHT",
		"MODEL_WEIGHTS", "MODEL_CONFIG", "CLASS_NAMES", "CONFIDENCE_THRESHOLD",
		"FACE_MODELS_DIR", "TOLERANCE",
		"DATABASE_PATH", "EVENT_COOLDOWN",
		"SNAPSHOT_DIR", "SNAPSHOT_BUFFER_LIMIT", "SNAPSHOT_FLUSH_INTERVAL",
		"PROCESSING_INTERVAL", "PORT", "LOG_DIR", "HEADLESS",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "0", cfg.CameraSource)
	assert.Equal(t, 640, cfg.FrameWidth)
	assert.Equal(t, 480, cfg.FrameHeight)
	assert.Equal(t, 0.5, cfg.Tolerance)
	assert.Equal(t, 30, cfg.CooldownSeconds)
	assert.Equal(t, 3, cfg.ProcessEveryNth)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.Headless)
	assert.False(t, cfg.PersonDetectionEnabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMERA_SOURCE", "rtsp://cam.local/stream")
	t.Setenv("FRAME_WIDTH", "1280")
	t.Setenv("TOLERANCE", "0.42")
	t.Setenv("EVENT_COOLDOWN", "60")
	t.Setenv("HEADLESS", "true")

	cfg := Load()

	assert.Equal(t, "rtsp://cam.local/stream", cfg.CameraSource)
	assert.Equal(t, 1280, cfg.FrameWidth)
	assert.Equal(t, 0.42, cfg.Tolerance)
	assert.Equal(t, 60, cfg.CooldownSeconds)
	assert.True(t, cfg.Headless)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAME_WIDTH", "not-a-number")
	t.Setenv("TOLERANCE", "wide")
	t.Setenv("HEADLESS", "maybe")

	cfg := Load()

	assert.Equal(t, 640, cfg.FrameWidth)
	assert.Equal(t, 0.5, cfg.Tolerance)
	assert.False(t, cfg.Headless)
}

func TestPersonDetectionEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_WEIGHTS", "frozen_inference_graph.pb")
	cfg := Load()
	assert.False(t, cfg.PersonDetectionEnabled(), "weights alone are not enough")

	t.Setenv("MODEL_CONFIG", "ssd_mobilenet.pbtxt")
	cfg = Load()
	assert.True(t, cfg.PersonDetectionEnabled())
}
