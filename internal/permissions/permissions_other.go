//go:build !darwin

package permissions

func HasScreenRecording() bool     { return true }
func RequestScreenRecording() bool { return true }
func HasAccessibility() bool       { return true }
func RequestAccessibility() bool   { return true }
