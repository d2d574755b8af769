// Package log configures the process-wide slog logger for go-odometry
// commands. Logs go to stderr so command output on stdout stays clean.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	mu     sync.Mutex
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Init installs the global logger. An empty level falls back to LOG_LEVEL.
// GO_ENV=production switches to the JSON handler.
func Init(level string) *slog.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	return InitWriter(os.Stderr, level, os.Getenv("GO_ENV") == "production")
}

// InitWriter installs a global logger writing to w.
func InitWriter(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var l *slog.Logger
	if json {
		l = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		l = slog.New(slog.NewTextHandler(w, opts))
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// L returns the global logger, initializing it from the environment on
// first use.
func L() *slog.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		return Init("")
	}
	return l
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
