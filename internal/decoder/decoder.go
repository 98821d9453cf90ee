package decoder

import "image"

// Decoder is one decode session. Decode returns a nil image and nil error
// when the codec needs more data before it can emit a frame. Reset discards
// session state after repeated failures.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
	Reset() error
}
