package config

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger for the given environment and level.
// Production logs JSON; everything else logs text for readability.
// Level may be: debug, info, warn, error (default: info).
func NewLogger(environment, levelName string) *slog.Logger {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
