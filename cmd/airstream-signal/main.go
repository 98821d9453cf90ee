// Command airstream-signal runs the WebSocket signaling relay used by the
// webrtc transport.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/config"
	"github.com/junsooki/airstream/internal/signaling"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	level := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	format := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	logger, err := config.SetupLogger(config.LogConfig{Level: *level, Format: *format, Output: "stderr"})
	if err != nil {
		logrus.WithError(err).Fatal("logger setup")
	}
	log := logrus.NewEntry(logger)

	relay := signaling.NewServer(log)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           relay.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.WithField("addr", *addr).Info("signaling relay listening on /ws")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("signaling relay stopped")
		os.Exit(1)
	}
}
