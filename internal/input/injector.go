package input

import "github.com/sirupsen/logrus"

// Injector injects input events into the system.
type Injector interface {
	Inject(event Event) error
}

// LogInjector records events in the log instead of injecting them. It is used
// where no OS injection backend is available.
type LogInjector struct {
	log *logrus.Entry
}

func NewLogInjector(log *logrus.Entry) *LogInjector {
	if log == nil {
		log = logrus.WithField("component", "injector")
	}
	return &LogInjector{log: log}
}

func (l *LogInjector) Inject(e Event) error {
	l.log.WithField("event", e.String()).Info("input event")
	return nil
}
