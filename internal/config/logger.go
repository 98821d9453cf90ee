package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger configures the standard logrus logger from c and redirects the
// stdlib log package into it.
func SetupLogger(c LogConfig) (*logrus.Logger, error) {
	logger := logrus.StandardLogger()

	level, err := logrus.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log format must be text or json, got %q", c.Format)
	}

	out, err := openOutput(c)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)

	log.SetFlags(0)
	log.SetOutput(logger.WriterLevel(logrus.InfoLevel))
	return logger, nil
}

func openOutput(c LogConfig) (io.Writer, error) {
	switch strings.ToLower(c.Output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	if dir := filepath.Dir(c.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("log directory: %w", err)
		}
	}
	if c.Rotate {
		return &lumberjack.Logger{
			Filename:   c.Output,
			MaxSize:    max(c.MaxSizeMB, 10),
			MaxBackups: max(c.MaxBackups, 1),
			MaxAge:     max(c.MaxAgeDays, 7),
			Compress:   c.Compress,
		}, nil
	}
	f, err := os.OpenFile(c.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
