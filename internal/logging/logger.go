// Package logging configures the structured logger shared by every component.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/negneg-eq-submitter/internal/domain"
)

// Output targets besides a file path
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

const redacted = "[REDACTED]"

// sensitiveKeys are field name fragments whose values never reach the log
var sensitiveKeys = []string{"password", "token", "secret", "authorization"}

// NewLogger creates a logrus logger from config. The returned closer
// releases the log file when output is a path; it is a no-op otherwise.
func NewLogger(config domain.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	var closer io.Closer = nopCloser{}
	switch strings.ToLower(config.Output) {
	case "", OutputStderr:
		logger.SetOutput(os.Stderr)
	case OutputStdout:
		logger.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		logger.SetOutput(f)
		closer = f
	}

	logger.AddHook(RedactHook{})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RedactHook blanks fields that carry credentials
type RedactHook struct{}

// Levels implements logrus.Hook
func (RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (RedactHook) Fire(entry *logrus.Entry) error {
	for key := range entry.Data {
		if isSensitive(key) {
			entry.Data[key] = redacted
		}
	}
	return nil
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range sensitiveKeys {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

type runIDKey struct{}

// WithRunID returns a context carrying the submission run's correlation ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunID extracts the correlation ID set by WithRunID
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// FromContext returns an entry tagged with the run ID in ctx, if any
func FromContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	entry := logrus.NewEntry(logger)
	if id := RunID(ctx); id != "" {
		entry = entry.WithField("run_id", id)
	}
	return entry
}
