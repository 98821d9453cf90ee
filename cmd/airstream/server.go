package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/capture"
	"github.com/junsooki/airstream/internal/config"
	"github.com/junsooki/airstream/internal/encoder"
	"github.com/junsooki/airstream/internal/input"
	"github.com/junsooki/airstream/internal/permissions"
	"github.com/junsooki/airstream/internal/pipeline"
	"github.com/junsooki/airstream/internal/transport"
)

// source bundles what a server needs to produce and apply events.
type source struct {
	capturer capture.Capturer
	injector input.Injector
}

func openSource(cfg *config.Config, log *logrus.Entry) (*source, error) {
	if err := permissions.Check(cfg.Source == config.SourceScreen, true); err != nil {
		return nil, fmt.Errorf("%w: grant it in System Settings and restart", err)
	}

	var (
		c   capture.Capturer
		err error
	)
	switch cfg.Source {
	case config.SourceScreen:
		c, err = capture.NewScreenCapturer(cfg.DisplayIndex)
	default:
		c, err = capture.NewSyntheticCapturer(cfg.Width, cfg.Height)
	}
	if err != nil {
		return nil, fmt.Errorf("capture init: %w", err)
	}

	inj, err := input.NewSystemInjector()
	if err != nil {
		log.WithError(err).Warn("input injection unavailable, logging events instead")
		inj = input.NewLogInjector(log.WithField("component", "injector"))
	}
	return &source{capturer: c, injector: inj}, nil
}

func runServer(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}

	sock, err := transport.ListenUDP(cfg.Listen, cfg.Addr())
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"local": sock.LocalAddr().String(),
		"peer":  cfg.Addr(),
	}).Info("streaming over udp")

	return serve(ctx, sock, src, cfg, log)
}

// serve streams frames to sock and applies input from it until ctx is done
// or the socket closes. sock is closed on return.
func serve(ctx context.Context, sock transport.Socket, src *source, cfg *config.Config, log *logrus.Entry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pkt, err := pipeline.NewPacketizer(sock, cfg.MaxDatagram)
	if err != nil {
		sock.Close()
		return err
	}
	enc := encoder.NewJPEGEncoder(cfg.Quality)
	producer := pipeline.NewProducer(src.capturer, enc, pkt, cfg.RefreshRate(), log.WithField("component", "producer"))
	dispatcher := pipeline.NewInputDispatcher(src.injector, log.WithField("component", "input"))
	depkt := pipeline.NewDepacketizer(nil, dispatcher, pipeline.DepacketizerConfig{
		Timeout:    cfg.ReassemblyTimeout,
		MaxPending: cfg.MaxPending,
	}, log.WithField("component", "depacketizer"))

	recvDone := make(chan error, 1)
	go func() {
		recvDone <- pipeline.ReceiveLoop(sock, depkt, log.WithField("component", "receiver"))
		cancel()
	}()
	go every(ctx, statsInterval, func() {
		s := producer.Stats()
		log.WithFields(logrus.Fields{
			"ticks":         s.Ticks,
			"sent":          s.Sent,
			"skipped":       s.Skipped,
			"send_failures": s.SendFailures,
			"overruns":      s.Overruns,
			"quality":       enc.Quality(),
			"inputs":        dispatcher.Applied(),
		}).Info("stream stats")
	})

	producer.Run(ctx)
	sock.Close()
	return <-recvDone
}
