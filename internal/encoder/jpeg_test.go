package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestNewJPEGEncoder_ClampsQuality(t *testing.T) {
	assert.Equal(t, 1, NewJPEGEncoder(-5).Quality())
	assert.Equal(t, 100, NewJPEGEncoder(500).Quality())
	assert.Equal(t, 70, NewJPEGEncoder(70).Quality())
}

func TestJPEGEncoder_Encode(t *testing.T) {
	enc := NewJPEGEncoder(80)

	chunks, err := enc.Encode(testImage(64, 48))

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(chunks[0]))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)
}

func TestJPEGEncoder_EncodeNil(t *testing.T) {
	_, err := NewJPEGEncoder(80).Encode(nil)

	assert.ErrorIs(t, err, ErrNilFrame)
}
