package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

// Component derives a child logger tagged with the component name; a nil
// base yields nil so callers keep their nil-tolerant helpers.
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		return nil
	}
	return base.With("component", name)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
