package capture

import (
	"errors"
	"image"
	"time"
)

// Frame represents a captured screen frame.
type Frame struct {
	Image     *image.RGBA
	Timestamp time.Time
}

// Capturer grabs one raw frame of a display surface per call.
type Capturer interface {
	CaptureFrame() (*Frame, error)
}

var (
	// ErrCaptureFailed indicates the backend returned no image.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrUnsupported indicates screen capture is not available on this platform.
	ErrUnsupported = errors.New("screen capture not supported on this platform")
)
