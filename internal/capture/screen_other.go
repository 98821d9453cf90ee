//go:build !darwin

package capture

// NewScreenCapturer is only implemented on macOS.
func NewScreenCapturer(displayIndex int) (Capturer, error) {
	return nil, ErrUnsupported
}
