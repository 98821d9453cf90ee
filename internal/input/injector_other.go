//go:build !darwin

package input

import "github.com/sirupsen/logrus"

// NewSystemInjector returns the platform injection backend. Only macOS has
// one; elsewhere events are logged.
func NewSystemInjector() (Injector, error) {
	logrus.Warn("no input injection backend on this platform, events will only be logged")
	return NewLogInjector(nil), nil
}
