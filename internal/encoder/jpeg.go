package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
)

// ErrNilFrame is returned when Encode is given no image.
var ErrNilFrame = errors.New("nil frame")

// JPEGEncoder encodes each frame as one JPEG image.
type JPEGEncoder struct {
	quality  int
	lastSize int
}

// NewJPEGEncoder creates a JPEG encoder with the given quality (1-100).
func NewJPEGEncoder(quality int) *JPEGEncoder {
	e := &JPEGEncoder{}
	e.SetQuality(quality)
	return e
}

// SetQuality clamps quality into 1-100.
func (e *JPEGEncoder) SetQuality(quality int) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	e.quality = quality
}

// Quality returns the configured quality.
func (e *JPEGEncoder) Quality() int {
	return e.quality
}

func (e *JPEGEncoder) Encode(img *image.RGBA) ([][]byte, error) {
	if img == nil {
		return nil, ErrNilFrame
	}
	var buf bytes.Buffer
	// size the buffer from the previous frame, 256KB before the first one
	if e.lastSize > 0 {
		buf.Grow(e.lastSize + e.lastSize/4)
	} else {
		buf.Grow(256 * 1024)
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, err
	}
	e.lastSize = buf.Len()
	return [][]byte{buf.Bytes()}, nil
}
