// Command airstream streams a screen and carries input back over one
// unreliable datagram channel.
//
//	airstream [flags] server <host> <port>
//	airstream [flags] client <host> <port>
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/config"
)

const statsInterval = 5 * time.Second

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, config.ErrUsage) {
			os.Exit(2)
		}
		logrus.WithError(err).Fatal("configuration")
	}

	logger, err := config.SetupLogger(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("logger setup")
	}
	log := logrus.NewEntry(logger).WithField("mode", cfg.Mode)

	log.WithFields(logrus.Fields{
		"addr":      cfg.Addr(),
		"transport": cfg.Transport,
		"fps":       cfg.RefreshRate(),
	}).Info("airstream starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case cfg.Mode == config.ModeServer && cfg.Transport == config.TransportWebRTC:
		err = runWebRTCServer(ctx, cfg, log)
	case cfg.Mode == config.ModeServer:
		err = runServer(ctx, cfg, log)
	case cfg.Transport == config.TransportWebRTC:
		err = runWebRTCClient(ctx, cfg, log)
	default:
		err = runClient(ctx, cfg, log)
	}
	if err != nil {
		log.WithError(err).Fatal("airstream stopped")
	}
	log.Info("shut down")
}

// every calls fn on each tick until ctx is done.
func every(ctx context.Context, d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
