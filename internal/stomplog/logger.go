// Package stomplog builds the structured logger used by cmd/stompcat,
// adapted from common/logger: JSON output, level from LOG_LEVEL, a
// service name attached to every record.
package stomplog

import (
	"log/slog"
	"os"
)

// New creates a JSON slog.Logger tagged with service, honoring the
// LOG_LEVEL environment variable (DEBUG, INFO, WARN, ERROR; default INFO).
func New(service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelFromEnv(os.Getenv("LOG_LEVEL"))}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler).With(slog.String("service", service))
}

func levelFromEnv(s string) slog.Level {
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
