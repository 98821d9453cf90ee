package pipeline

import (
	"image"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/decoder"
)

// DefaultResetAfter is the number of consecutive decode failures that
// reinitialises the decode session.
const DefaultResetAfter = 10

// Sink presents decoded frames.
type Sink interface {
	Present(img *image.RGBA)
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	Decoded   uint64
	Buffered  uint64
	Failures  uint64
	Resets    uint64
	Presented uint64
}

// Consumer decodes reassembled payloads and presents the results. It owns
// the decode session for its direction.
type Consumer struct {
	dec        decoder.Decoder
	sink       Sink
	resetAfter int
	log        *logrus.Entry

	consecutive int

	decoded   atomic.Uint64
	buffered  atomic.Uint64
	failures  atomic.Uint64
	resets    atomic.Uint64
	presented atomic.Uint64
}

// NewConsumer resets dec after resetAfter consecutive failures; resetAfter
// <= 0 means DefaultResetAfter.
func NewConsumer(dec decoder.Decoder, sink Sink, resetAfter int, log *logrus.Entry) *Consumer {
	if resetAfter <= 0 {
		resetAfter = DefaultResetAfter
	}
	return &Consumer{
		dec:        dec,
		sink:       sink,
		resetAfter: resetAfter,
		log:        componentLog(log, "consumer"),
	}
}

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Decoded:   c.decoded.Load(),
		Buffered:  c.buffered.Load(),
		Failures:  c.failures.Load(),
		Resets:    c.resets.Load(),
		Presented: c.presented.Load(),
	}
}

func (c *Consumer) OnCompressedFrame(seq uint32, payload []byte) {
	img, err := c.dec.Decode(payload)
	if err != nil {
		c.failures.Add(1)
		c.consecutive++
		c.log.WithFields(logrus.Fields{
			"seq":         seq,
			"bytes":       len(payload),
			"consecutive": c.consecutive,
			"error":       err,
		}).Warn("decode failed, frame skipped")
		if c.consecutive >= c.resetAfter {
			c.reset()
		}
		return
	}
	c.consecutive = 0

	if img == nil {
		c.buffered.Add(1)
		return
	}
	c.decoded.Add(1)
	c.sink.Present(img)
	c.presented.Add(1)
}

func (c *Consumer) reset() {
	c.consecutive = 0
	c.resets.Add(1)
	if err := c.dec.Reset(); err != nil {
		c.log.WithError(err).Error("decoder reset failed")
		return
	}
	c.log.Warn("decoder reset after repeated failures")
}
