package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates the process logger, installs it as slog's default, and
// returns it. Components derive child loggers via logger.With("component", ...).
// The level accepts "debug", "info", "warn", "error" (case-insensitive)
// and falls back to info for anything else.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
