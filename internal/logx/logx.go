// Package logx builds the process logger on top of log/slog.
package logx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a structured logger at the given level. Supported levels:
// "debug", "info", "warn", "error"; anything else falls back to "info".
// JSON output goes to stdout, text to stderr so command output stays clean.
func New(level string, json bool) *slog.Logger {
	var slevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slevel = slog.LevelDebug
	case "info":
		slevel = slog.LevelInfo
	case "warn":
		slevel = slog.LevelWarn
	case "error":
		slevel = slog.LevelError
	default:
		slevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: slevel}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Discard returns a logger that drops everything. Library code uses it when
// the caller supplied no logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SetDefault installs the logger as the slog default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
