package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SyntheticCapturer renders a moving test pattern. It stands in for a screen
// where none can be captured.
type SyntheticCapturer struct {
	width  int
	height int
	label  string
	frame  int
}

// NewSyntheticCapturer returns a pattern source of the given size.
func NewSyntheticCapturer(width, height int) (*SyntheticCapturer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("synthetic size must be positive, got %dx%d", width, height)
	}
	return &SyntheticCapturer{width: width, height: height, label: "Remote Gaming"}, nil
}

func (c *SyntheticCapturer) CaptureFrame() (*Frame, error) {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{A: 255}}, image.Point{}, draw.Src)

	// a bar sweeping left to right so consecutive frames differ
	barW := max(c.width/16, 1)
	x0 := (c.frame * 8) % c.width
	bar := image.Rect(x0, 0, min(x0+barW, c.width), c.height)
	draw.Draw(img, bar, &image.Uniform{C: color.RGBA{R: 40, G: 90, B: 200, A: 255}}, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(50, 50),
	}
	d.DrawString(c.label)
	d.Dot = fixed.P(50, 70)
	d.DrawString(fmt.Sprintf("frame %d", c.frame))

	c.frame++
	return &Frame{Image: img, Timestamp: time.Now()}, nil
}
