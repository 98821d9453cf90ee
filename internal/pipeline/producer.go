package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/capture"
	"github.com/junsooki/airstream/internal/encoder"
)

// DefaultFPS is used when no refresh rate is configured or detected.
const DefaultFPS = 60

// ProducerStats is a snapshot of producer counters.
type ProducerStats struct {
	Ticks        uint64
	Skipped      uint64
	Sent         uint64
	SendFailures uint64
	Overruns     uint64
}

// Producer captures, encodes and sends one frame per cadence interval. It
// owns sequence number allocation for its direction.
type Producer struct {
	capturer capture.Capturer
	encoder  encoder.Encoder
	sender   FrameSender
	interval time.Duration
	log      *logrus.Entry

	seq uint32

	ticks        atomic.Uint64
	skipped      atomic.Uint64
	sent         atomic.Uint64
	sendFailures atomic.Uint64
	overruns     atomic.Uint64
}

// NewProducer ticks fps times per second; fps <= 0 means DefaultFPS.
func NewProducer(c capture.Capturer, e encoder.Encoder, s FrameSender, fps int, log *logrus.Entry) *Producer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Producer{
		capturer: c,
		encoder:  e,
		sender:   s,
		interval: time.Second / time.Duration(fps),
		log:      componentLog(log, "producer"),
	}
}

// Interval returns the cadence interval.
func (p *Producer) Interval() time.Duration {
	return p.interval
}

// NextSeq returns the sequence number the next payload will carry.
func (p *Producer) NextSeq() uint32 {
	return p.seq
}

// Stats returns a snapshot of the counters. Safe to call from any goroutine.
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		Ticks:        p.ticks.Load(),
		Skipped:      p.skipped.Load(),
		Sent:         p.sent.Load(),
		SendFailures: p.sendFailures.Load(),
		Overruns:     p.overruns.Load(),
	}
}

// Tick runs one capture/encode/send cycle. A failed capture or encode skips
// the tick but still consumes a sequence number so the receiver sees a gap.
func (p *Producer) Tick() {
	p.ticks.Add(1)

	frame, err := p.capturer.CaptureFrame()
	if err != nil {
		p.skip("capture", err)
		return
	}

	chunks, err := p.encoder.Encode(frame.Image)
	if err != nil {
		p.skip("encode", err)
		return
	}

	for _, chunk := range chunks {
		seq := p.seq
		p.seq++
		if err := p.sender.SendFrame(seq, chunk); err != nil {
			p.sendFailures.Add(1)
			p.log.WithFields(logrus.Fields{
				"seq":   seq,
				"bytes": len(chunk),
				"error": err,
			}).Warn("send frame failed")
			continue
		}
		p.sent.Add(1)
	}
}

func (p *Producer) skip(stage string, err error) {
	p.skipped.Add(1)
	p.log.WithFields(logrus.Fields{
		"stage": stage,
		"seq":   p.seq,
		"error": err,
	}).Warn("tick skipped")
	p.seq++
}

// Run ticks on the cadence until ctx is done. Deadlines advance by a fixed
// interval from the start time, so lateness does not accumulate. A tick that
// overruns its deadline is followed immediately by the next one, without
// catching up on the missed ticks.
func (p *Producer) Run(ctx context.Context) error {
	p.log.WithField("interval", p.interval).Info("producer started")

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	next := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.Tick()

		var late bool
		next, late = nextDeadline(next, time.Now(), p.interval)
		if late {
			p.overruns.Add(1)
			continue
		}

		timer.Reset(time.Until(next))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextDeadline returns the deadline after prev. If it has already passed the
// result is now, and late is true.
func nextDeadline(prev, now time.Time, interval time.Duration) (next time.Time, late bool) {
	next = prev.Add(interval)
	if !next.After(now) {
		return now, true
	}
	return next, false
}
