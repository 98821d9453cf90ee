// Package permissions checks the macOS privacy permissions a streaming
// server needs. On other platforms every check passes.
package permissions

import "errors"

var (
	ErrScreenRecording = errors.New("screen recording permission not granted")
	ErrAccessibility   = errors.New("accessibility permission not granted")
)

// Check verifies the permissions needed to capture the screen and inject
// input, prompting for any that are missing. The user must restart the
// process after granting.
func Check(capture, inject bool) error {
	if capture && !HasScreenRecording() {
		RequestScreenRecording()
		return ErrScreenRecording
	}
	if inject && !HasAccessibility() {
		RequestAccessibility()
		return ErrAccessibility
	}
	return nil
}
