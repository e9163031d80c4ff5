package ai

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"camerahub/internal/models"
)

var (
	knownColor   = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	unknownColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

// Annotate draws recognition boxes and labels onto the frame in place.
// Known identities are drawn green, everything else red.
func Annotate(img *gocv.Mat, recognitions []models.Recognition) error {
	for _, rec := range recognitions {
		boxColor := unknownColor
		if rec.Known {
			boxColor = knownColor
		}

		if err := gocv.Rectangle(img, rec.Box, boxColor, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := rec.Label
		if rec.Confidence > 0 {
			label = fmt.Sprintf("%s (%.2f)", rec.Label, rec.Confidence)
		}
		pt := image.Pt(rec.Box.Min.X, rec.Box.Min.Y-10)
		if pt.Y < 10 {
			pt.Y = rec.Box.Min.Y + 15
		}
		if err := gocv.PutText(img, label, pt, gocv.FontHersheySimplex, 0.6, boxColor, 2); err != nil {
			return fmt.Errorf("failed to draw label: %w", err)
		}
	}
	return nil
}
