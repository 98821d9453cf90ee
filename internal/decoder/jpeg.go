package decoder

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
)

// JPEGDecoder decodes JPEG bytes into *image.RGBA.
type JPEGDecoder struct{}

func NewJPEGDecoder() *JPEGDecoder {
	return &JPEGDecoder{}
}

func (d *JPEGDecoder) Decode(data []byte) (*image.RGBA, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	// jpeg yields YCbCr or Gray; the sink wants RGBA.
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba, nil
}

// Reset is a no-op: JPEG frames are independent.
func (d *JPEGDecoder) Reset() error {
	return nil
}
