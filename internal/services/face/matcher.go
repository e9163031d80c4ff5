// Package face wraps the dlib-based go-face recognizer. It is the only
// package that talks to the embedding library; callers work with
// models.Embedding values and never see dlib types.
package face

import (
	"fmt"
	"image"
	"os"

	goface "github.com/Kagami/go-face"
	"gocv.io/x/gocv"

	"camerahub/internal/models"
)

// DetectedFace is a face found in a frame together with its embedding.
type DetectedFace struct {
	Box       image.Rectangle
	Embedding models.Embedding
}

// Matcher computes face embeddings using the dlib resnet model.
type Matcher struct {
	rec *goface.Recognizer
}

// NewMatcher loads the dlib models from modelsDir. The directory must
// contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat.
func NewMatcher(modelsDir string) (*Matcher, error) {
	if _, err := os.Stat(modelsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("face models directory not found: %s", modelsDir)
	}

	rec, err := goface.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load face recognition models: %w", err)
	}

	return &Matcher{rec: rec}, nil
}

// DetectJPEG extracts every face and its embedding from a JPEG image.
func (m *Matcher) DetectJPEG(data []byte) ([]DetectedFace, error) {
	faces, err := m.rec.Recognize(data)
	if err != nil {
		return nil, fmt.Errorf("face recognition failed: %w", err)
	}

	detected := make([]DetectedFace, 0, len(faces))
	for _, f := range faces {
		embedding := make(models.Embedding, len(f.Descriptor))
		for i, v := range f.Descriptor {
			embedding[i] = v
		}
		detected = append(detected, DetectedFace{
			Box:       f.Rectangle,
			Embedding: embedding,
		})
	}
	return detected, nil
}

// DetectMat extracts faces from a gocv frame. The frame is JPEG-encoded
// first since dlib consumes compressed images.
func (m *Matcher) DetectMat(img gocv.Mat) ([]DetectedFace, error) {
	if img.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	return m.DetectJPEG(buf.GetBytes())
}

// Close releases the dlib recognizer.
func (m *Matcher) Close() {
	m.rec.Close()
}
