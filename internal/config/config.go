package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	CameraSource string // device index ("0") or stream URL
	FrameWidth   int
	FrameHeight  int

	ModelWeightsPath string // DNN weights, optional (person detection disabled when empty)
	ModelConfigPath  string
	ClassNamesPath   string // optional, embedded COCO list used when empty
	Confidence       float64

	FaceModelsDir string // dlib model files for face recognition
	Tolerance     float64

	DatabasePath    string
	CooldownSeconds int

	SnapshotDirectory     string
	SnapshotBufferLimit   int
	SnapshotFlushInterval int

	ProcessEveryNth int // process every Nth frame (1=every frame)
	Port            int
	LogDirectory    string
	Headless        bool
}

// Load builds the configuration from the environment. A .env file in the
// working directory is honored when present. CLI flags may override the
// returned values afterwards.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		CameraSource:          getEnv("CAMERA_SOURCE", "0"),
		FrameWidth:            getEnvAsInt("FRAME_WIDTH", 640),
		FrameHeight:           getEnvAsInt("FRAME_HEIGHT", 480),
		ModelWeightsPath:      getEnv("MODEL_WEIGHTS", ""),
		ModelConfigPath:       getEnv("MODEL_CONFIG", ""),
		ClassNamesPath:        getEnv("CLASS_NAMES", ""),
		Confidence:            getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		FaceModelsDir:         getEnv("FACE_MODELS_DIR", filepath.Join(".", "models")),
		Tolerance:             getEnvAsFloat("TOLERANCE", 0.5),
		DatabasePath:          getEnv("DATABASE_PATH", filepath.Join("data", "camerahub.db")),
		CooldownSeconds:       getEnvAsInt("EVENT_COOLDOWN", 30),
		SnapshotDirectory:     getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotBufferLimit:   getEnvAsInt("SNAPSHOT_BUFFER_LIMIT", 7),
		SnapshotFlushInterval: getEnvAsInt("SNAPSHOT_FLUSH_INTERVAL", 30),
		ProcessEveryNth:       getEnvAsInt("PROCESSING_INTERVAL", 3),
		Port:                  getEnvAsInt("PORT", 8080),
		LogDirectory:          getEnv("LOG_DIR", filepath.Join(".", "logs")),
		Headless:              getEnvAsBool("HEADLESS", false),
	}
}

// PersonDetectionEnabled reports whether both DNN model files were configured.
func (c *Config) PersonDetectionEnabled() bool {
	return c.ModelWeightsPath != "" && c.ModelConfigPath != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
