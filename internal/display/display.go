package display

import (
	"image"
	"math"

	"github.com/junsooki/airstream/internal/input"
)

// Display renders frames and captures user input.
type Display interface {
	Run() error
	Present(img *image.RGBA)
	Close()
}

// InputCallback is called on the render goroutine for each input event the
// local user generates, in remote frame coordinates.
type InputCallback func(e input.Event)

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}

// toRemote maps a window position into frame pixel coordinates, clamped to
// the frame.
func toRemote(x, y int, viewW, viewH, frameW, frameH float64) (int32, int32) {
	scale, offsetX, offsetY := aspectFitTransform(viewW, viewH, frameW, frameH)
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return 0, 0
	}
	rx := (float64(x) - offsetX) / scale
	ry := (float64(y) - offsetY) / scale
	rx = math.Max(0, math.Min(rx, frameW-1))
	ry = math.Max(0, math.Min(ry, frameH-1))
	return int32(math.Round(rx)), int32(math.Round(ry))
}

// scrollPixels converts wheel ticks to a pixel delta.
func scrollPixels(ticks float64) int16 {
	const pixelsPerTick = 10
	v := math.Round(ticks * pixelsPerTick)
	return int16(math.Max(math.MinInt16, math.Min(v, math.MaxInt16)))
}
