package main

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/config"
	"github.com/junsooki/airstream/internal/decoder"
	"github.com/junsooki/airstream/internal/display"
	"github.com/junsooki/airstream/internal/input"
	"github.com/junsooki/airstream/internal/pipeline"
	"github.com/junsooki/airstream/internal/transport"
)

const windowTitle = "airstream"

// controlOut forwards control messages to the current packetizer, if any.
type controlOut struct {
	p atomic.Pointer[pipeline.Packetizer]
}

func (c *controlOut) SendControl(e input.Event) error {
	p := c.p.Load()
	if p == nil {
		return transport.ErrNotOpen
	}
	return p.SendControl(e)
}

// viewer is the receive side of a client: reassembly, decode and present,
// plus input going back out.
type viewer struct {
	cfg    *config.Config
	log    *logrus.Entry
	window *display.Window
	out    *controlOut
	inputs *pipeline.InputSender

	consumer atomic.Pointer[pipeline.Consumer]
	depkt    atomic.Pointer[pipeline.Depacketizer]
}

func newViewer(cfg *config.Config, log *logrus.Entry) *viewer {
	v := &viewer{cfg: cfg, log: log, out: &controlOut{}}
	v.inputs = pipeline.NewInputSender(v.out, log.WithField("component", "input"))
	v.window = display.NewWindow(windowTitle+" "+cfg.Addr(), v.inputs.Send)
	return v
}

// attach starts receiving on sock. The receive loop ends when sock closes.
func (v *viewer) attach(sock transport.Socket) error {
	pkt, err := pipeline.NewPacketizer(sock, v.cfg.MaxDatagram)
	if err != nil {
		return err
	}
	consumer := pipeline.NewConsumer(decoder.NewJPEGDecoder(), v.window, v.cfg.DecodeResetAfter, v.log.WithField("component", "consumer"))
	depkt := pipeline.NewDepacketizer(consumer, nil, pipeline.DepacketizerConfig{
		Timeout:    v.cfg.ReassemblyTimeout,
		MaxPending: v.cfg.MaxPending,
	}, v.log.WithField("component", "depacketizer"))

	v.consumer.Store(consumer)
	v.depkt.Store(depkt)
	v.out.p.Store(pkt)

	go pipeline.ReceiveLoop(sock, depkt, v.log.WithField("component", "receiver"))
	return nil
}

func (v *viewer) logStats() {
	depkt, consumer := v.depkt.Load(), v.consumer.Load()
	if depkt == nil || consumer == nil {
		return
	}
	d, c := depkt.Stats(), consumer.Stats()
	v.log.WithFields(logrus.Fields{
		"completed":  d.Completed,
		"stale":      d.Stale,
		"evicted":    d.Evicted,
		"superseded": d.Superseded,
		"malformed":  d.Malformed,
		"presented":  c.Presented,
		"failures":   c.Failures,
		"resets":     c.Resets,
		"inputs":     v.inputs.Sent(),
	}).Info("stream stats")
}

// run blocks in the window loop on the main goroutine. Cancelling ctx closes
// the window.
func (v *viewer) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		v.window.Close()
	}()
	go every(ctx, statsInterval, v.logStats)
	return v.window.Run()
}

func runClient(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	sock, err := transport.ListenUDP(cfg.Addr(), "")
	if err != nil {
		return err
	}
	defer sock.Close()
	log.WithField("local", sock.LocalAddr().String()).Info("waiting for stream over udp")

	v := newViewer(cfg, log)
	if err := v.attach(sock); err != nil {
		return err
	}
	return v.run(ctx)
}
