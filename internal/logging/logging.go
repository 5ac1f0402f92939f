// Package logging builds the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// New returns a JSON logger unless format is "text". Every record carries
// the service name and build version.
func New(level, format, service string) *slog.Logger {
	return newLogger(os.Stdout, level, format, service)
}

func newLogger(w io.Writer, level, format, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", service),
		slog.String("version", Version),
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
