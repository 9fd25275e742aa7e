package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Level  string
	Format string
	File   string
}

// Setup builds a logger writing to stderr, and to File as well when set.
// The returned closer releases the log file.
func Setup(opts Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	switch opts.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	levelStr := opts.Level
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	log.SetLevel(level)

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return log, nopCloser{}, nil
	}

	f, err := os.OpenFile(opts.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return log, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
