package pipeline

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/input"
)

// InputSender is the origin half of the input channel: each local event is
// sent immediately as its own control message.
type InputSender struct {
	out ControlSender
	log *logrus.Entry

	sent   atomic.Uint64
	failed atomic.Uint64
}

func NewInputSender(out ControlSender, log *logrus.Entry) *InputSender {
	return &InputSender{out: out, log: componentLog(log, "input")}
}

// Send transmits e. Failures are logged and counted; the event is lost.
func (s *InputSender) Send(e input.Event) {
	if err := s.out.SendControl(e); err != nil {
		s.failed.Add(1)
		s.log.WithFields(logrus.Fields{
			"event": e.String(),
			"error": err,
		}).Debug("input event not sent")
		return
	}
	s.sent.Add(1)
}

// Sent returns the number of events handed to the socket.
func (s *InputSender) Sent() uint64 { return s.sent.Load() }

// Failed returns the number of events that could not be sent.
func (s *InputSender) Failed() uint64 { return s.failed.Load() }

// InputDispatcher is the destination half of the input channel. Events are
// injected synchronously in arrival order, coordinates untouched.
type InputDispatcher struct {
	inj input.Injector
	log *logrus.Entry

	applied atomic.Uint64
	failed  atomic.Uint64
}

func NewInputDispatcher(inj input.Injector, log *logrus.Entry) *InputDispatcher {
	return &InputDispatcher{inj: inj, log: componentLog(log, "input")}
}

func (d *InputDispatcher) OnControl(e input.Event) {
	if err := d.inj.Inject(e); err != nil {
		d.failed.Add(1)
		d.log.WithFields(logrus.Fields{
			"event": e.String(),
			"error": err,
		}).Warn("inject failed")
		return
	}
	d.applied.Add(1)
}

// Applied returns the number of events injected.
func (d *InputDispatcher) Applied() uint64 { return d.applied.Load() }
