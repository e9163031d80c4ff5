package ai

import (
	_ "embed"
	"fmt"
	"image"
	"os"
	"strings"

	"gocv.io/x/gocv"

	"camerahub/internal/logger"
	"camerahub/internal/models"
)

const personClass = "person"

//go:embed coco.names
var defaultClassNames string

// PersonDetector detects persons in frames using an OpenCV DNN model
// (SSD/MobileNet style networks with 7-float detection rows).
type PersonDetector struct {
	net        gocv.Net
	classNames []string
	confidence float32
	logger     *logger.Logger
}

// NewPersonDetector loads the network and class names. It fails when either
// model file is missing or the class list does not contain a person class.
func NewPersonDetector(weightsPath, configPath, classNamesPath string, confidence float64, log *logger.Logger) (*PersonDetector, error) {
	if _, err := os.Stat(weightsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model weights file not found: %s", weightsPath)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model config file not found: %s", configPath)
	}

	classNames, err := loadClassNames(classNamesPath)
	if err != nil {
		return nil, err
	}
	if !containsPerson(classNames) {
		return nil, fmt.Errorf("class list does not include a %q class", personClass)
	}

	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", weightsPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set network target: %w", err)
	}

	log.Info("Person detection network initialized (%d classes)", len(classNames))

	return &PersonDetector{
		net:        net,
		classNames: classNames,
		confidence: float32(confidence),
		logger:     log,
	}, nil
}

// loadClassNames reads one class name per line, falling back to the
// embedded COCO list when no file is configured.
func loadClassNames(path string) ([]string, error) {
	raw := defaultClassNames
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read class names: %w", err)
		}
		raw = string(data)
	}

	var names []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func containsPerson(names []string) bool {
	for _, name := range names {
		if name == personClass {
			return true
		}
	}
	return false
}

// Detect runs the network on a frame and returns person detections above
// the confidence threshold. Non-person classes are discarded.
func (d *PersonDetector) Detect(img gocv.Mat) []models.Detection {
	if img.Empty() {
		return nil
	}

	blob := gocv.BlobFromImage(img, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	var results []models.Detection

	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()
	for i := 0; i < rows.Rows(); i++ {
		confidence := rows.GetFloatAt(i, 2)
		if confidence < d.confidence {
			continue
		}

		classID := int(rows.GetFloatAt(i, 1))
		if d.className(classID) != personClass {
			continue
		}

		x1 := int(rows.GetFloatAt(i, 3) * float32(img.Cols()))
		y1 := int(rows.GetFloatAt(i, 4) * float32(img.Rows()))
		x2 := int(rows.GetFloatAt(i, 5) * float32(img.Cols()))
		y2 := int(rows.GetFloatAt(i, 6) * float32(img.Rows()))

		results = append(results, models.Detection{
			Label:      personClass,
			Confidence: float64(confidence),
			Box:        image.Rect(x1, y1, x2, y2),
		})
	}

	return results
}

func (d *PersonDetector) className(classID int) string {
	if classID >= 0 && classID < len(d.classNames) {
		return d.classNames[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// Close releases the network.
func (d *PersonDetector) Close() error {
	return d.net.Close()
}
