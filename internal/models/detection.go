package models

import "image"

// Detection represents an object found by the person detector in a single frame.
// Detections are valid only for the frame they were computed on.
type Detection struct {
	Label      string
	Confidence float64
	Box        image.Rectangle
}

// Recognition is a per-frame display result: either a face matched (or not)
// against the gallery, or a person box with no identified face.
type Recognition struct {
	Label      string
	Confidence float64
	Known      bool
	Box        image.Rectangle
}
