package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/config"
)

// New builds a logger from the log section of the configuration.
// Output goes to stderr so command output on stdout stays clean.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(cfg config.LogConfig, w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(w)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// Discard returns a logger that drops everything. Used as the default
// when a service is constructed without one.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
