package camera

import (
	"fmt"
	"strconv"

	"gocv.io/x/gocv"
)

// Camera wraps a gocv.VideoCapture for a local device or network stream.
type Camera struct {
	capture *gocv.VideoCapture
	source  string
}

// Open opens the video source and applies the requested capture resolution.
// A source of all digits is treated as a local device index, anything else
// as a stream URL (rtsp://, http://, or a file path).
func Open(source string, width, height int) (*Camera, error) {
	var capture *gocv.VideoCapture
	var err error

	if index, convErr := strconv.Atoi(source); convErr == nil {
		capture, err = gocv.OpenVideoCapture(index)
	} else {
		capture, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %q: %w", source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %q is not available", source)
	}

	if width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	return &Camera{capture: capture, source: source}, nil
}

// Read grabs the next frame into img. It returns false when no frame
// could be read (stream hiccup or end of a file source).
func (c *Camera) Read(img *gocv.Mat) bool {
	return c.capture.Read(img) && !img.Empty()
}

// Source returns the configured source string.
func (c *Camera) Source() string {
	return c.source
}

// Close releases the underlying capture device.
func (c *Camera) Close() error {
	return c.capture.Close()
}
