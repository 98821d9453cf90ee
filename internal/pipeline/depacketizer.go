package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/input"
	"github.com/junsooki/airstream/internal/wire"
)

const (
	// DefaultReassemblyTimeout is how long an incomplete frame may go without
	// a new fragment before it is evicted.
	DefaultReassemblyTimeout = 500 * time.Millisecond

	// DefaultMaxPending bounds concurrently reassembling frames.
	DefaultMaxPending = 64
)

// FrameHandler receives reassembled payloads in increasing sequence order.
type FrameHandler interface {
	OnCompressedFrame(seq uint32, payload []byte)
}

// ControlHandler receives decoded control messages in arrival order.
type ControlHandler interface {
	OnControl(e input.Event)
}

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc func(seq uint32, payload []byte)

func (f FrameHandlerFunc) OnCompressedFrame(seq uint32, payload []byte) { f(seq, payload) }

// ControlHandlerFunc adapts a function to ControlHandler.
type ControlHandlerFunc func(e input.Event)

func (f ControlHandlerFunc) OnControl(e input.Event) { f(e) }

// DepacketizerConfig tunes reassembly. Zero values select the defaults.
type DepacketizerConfig struct {
	Timeout    time.Duration
	MaxPending int
}

// DepacketizerStats is a snapshot of depacketizer counters.
type DepacketizerStats struct {
	Completed  uint64
	Control    uint64
	Stale      uint64
	Duplicates uint64
	Evicted    uint64
	Superseded uint64
	Malformed  uint64
	Ignored    uint64
}

// reassembly collects the fragments of one sequence number.
type reassembly struct {
	count    uint16
	frags    [][]byte
	have     []bool
	received int
	size     int
	last     time.Time
}

func newReassembly(count uint16, now time.Time) *reassembly {
	return &reassembly{
		count: count,
		frags: make([][]byte, count),
		have:  make([]bool, count),
		last:  now,
	}
}

func (r *reassembly) payload() []byte {
	out := make([]byte, 0, r.size)
	for _, f := range r.frags {
		out = append(out, f...)
	}
	return out
}

// Depacketizer classifies inbound datagrams, reassembles media fragments and
// routes control messages. It owns all reassembly state and must only be
// driven from one goroutine; Stats may be read from anywhere.
//
// Frames are forwarded at most once and in increasing sequence order: once
// sequence M is forwarded, fragments of any N <= M are dropped and pending
// buffers older than M are discarded. A buffer that receives no fragment for
// longer than the timeout is evicted and its sequence number is never
// completed afterwards.
type Depacketizer struct {
	frames     FrameHandler
	control    ControlHandler
	timeout    time.Duration
	maxPending int
	now        func() time.Time
	log        *logrus.Entry

	pending       map[uint32]*reassembly
	evicted       map[uint32]time.Time
	forwarded     uint32
	haveForwarded bool

	completed  atomic.Uint64
	ctrl       atomic.Uint64
	stale      atomic.Uint64
	duplicates atomic.Uint64
	evictions  atomic.Uint64
	superseded atomic.Uint64
	malformed  atomic.Uint64
	ignored    atomic.Uint64
}

// NewDepacketizer routes media to frames and control to control. Either may
// be nil, in which case that kind of datagram is ignored.
func NewDepacketizer(frames FrameHandler, control ControlHandler, cfg DepacketizerConfig, log *logrus.Entry) *Depacketizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultReassemblyTimeout
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	return &Depacketizer{
		frames:     frames,
		control:    control,
		timeout:    cfg.Timeout,
		maxPending: cfg.MaxPending,
		now:        time.Now,
		log:        componentLog(log, "depacketizer"),
		pending:    make(map[uint32]*reassembly),
		evicted:    make(map[uint32]time.Time),
	}
}

// Stats returns a snapshot of the counters.
func (d *Depacketizer) Stats() DepacketizerStats {
	return DepacketizerStats{
		Completed:  d.completed.Load(),
		Control:    d.ctrl.Load(),
		Stale:      d.stale.Load(),
		Duplicates: d.duplicates.Load(),
		Evicted:    d.evictions.Load(),
		Superseded: d.superseded.Load(),
		Malformed:  d.malformed.Load(),
		Ignored:    d.ignored.Load(),
	}
}

// Pending returns the number of frames being reassembled.
func (d *Depacketizer) Pending() int {
	return len(d.pending)
}

// OnDatagram handles one datagram. b must not be modified afterwards.
func (d *Depacketizer) OnDatagram(b []byte) {
	env, err := wire.Decode(b)
	if err != nil {
		d.malformed.Add(1)
		d.log.WithFields(logrus.Fields{
			"bytes": len(b),
			"error": err,
		}).Warn("malformed datagram dropped")
		return
	}

	switch env.Type {
	case wire.TypeControl:
		if d.control == nil {
			d.ignored.Add(1)
			return
		}
		d.ctrl.Add(1)
		d.control.OnControl(env.Control)
	case wire.TypeMedia:
		if d.frames == nil {
			d.ignored.Add(1)
			return
		}
		d.onFragment(env.Fragment)
	}
}

func (d *Depacketizer) onFragment(f wire.Fragment) {
	now := d.now()
	d.expire(now)

	if d.haveForwarded && !wire.SeqAfter(f.Seq, d.forwarded) {
		d.stale.Add(1)
		d.log.WithFields(logrus.Fields{
			"seq":       f.Seq,
			"forwarded": d.forwarded,
		}).Debug("stale fragment dropped")
		return
	}
	if _, dead := d.evicted[f.Seq]; dead {
		d.stale.Add(1)
		return
	}

	r, ok := d.pending[f.Seq]
	if !ok {
		if len(d.pending) >= d.maxPending {
			d.evictOldest(now)
		}
		r = newReassembly(f.Count, now)
		d.pending[f.Seq] = r
	} else if r.count != f.Count {
		d.malformed.Add(1)
		d.log.WithFields(logrus.Fields{
			"seq":   f.Seq,
			"count": f.Count,
			"want":  r.count,
		}).Warn("fragment count mismatch, fragment dropped")
		return
	}

	if r.have[f.Index] {
		d.duplicates.Add(1)
		return
	}
	r.frags[f.Index] = f.Payload
	r.have[f.Index] = true
	r.received++
	r.size += len(f.Payload)
	r.last = now

	if r.received < int(r.count) {
		return
	}
	delete(d.pending, f.Seq)
	d.forward(f.Seq, r.payload())
}

func (d *Depacketizer) forward(seq uint32, payload []byte) {
	d.forwarded = seq
	d.haveForwarded = true

	for s := range d.pending {
		if wire.SeqBefore(s, seq) {
			delete(d.pending, s)
			d.superseded.Add(1)
		}
	}
	for s := range d.evicted {
		if !wire.SeqAfter(s, seq) {
			delete(d.evicted, s)
		}
	}

	d.completed.Add(1)
	d.frames.OnCompressedFrame(seq, payload)
}

// expire evicts buffers idle for longer than the timeout. Their sequence
// numbers are remembered until they go stale, or for a few timeouts.
func (d *Depacketizer) expire(now time.Time) {
	for s, r := range d.pending {
		if now.Sub(r.last) > d.timeout {
			d.evict(s, now, "idle")
		}
	}
	for s, at := range d.evicted {
		if now.Sub(at) > 4*d.timeout {
			delete(d.evicted, s)
		}
	}
}

// evictOldest makes room for a new buffer by dropping the lowest sequence.
func (d *Depacketizer) evictOldest(now time.Time) {
	var oldest uint32
	first := true
	for s := range d.pending {
		if first || wire.SeqBefore(s, oldest) {
			oldest = s
			first = false
		}
	}
	if !first {
		d.evict(oldest, now, "pending limit")
	}
}

func (d *Depacketizer) evict(seq uint32, now time.Time, reason string) {
	r := d.pending[seq]
	delete(d.pending, seq)
	d.evicted[seq] = now
	d.evictions.Add(1)
	d.log.WithFields(logrus.Fields{
		"seq":      seq,
		"received": r.received,
		"count":    r.count,
		"reason":   reason,
	}).Debug("incomplete frame evicted")
}
