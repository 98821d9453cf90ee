package encoder

import "image"

// Encoder is one encode session. Encode may return no chunks when the codec
// has nothing to emit for a frame, or several when it flushes buffered output.
type Encoder interface {
	Encode(img *image.RGBA) ([][]byte, error)
}
