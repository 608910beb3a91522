// Package log provides the logging infrastructure for vibestudio.
//
// Loggers are dependency-injected, never global: each component receives
// a Logger via its constructor and adds context with logger.With(). The
// relay, the coordinator, and the persistence mirror all log through the
// same handler configured at startup.
//
// Usage:
//
//	logger := log.New(log.Config{Level: slog.LevelDebug})
//	store := artifact.NewStore(logger.With("component", "artifact"))
//
// In tests, use NewNop() or NewWithWriter with a buffer.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a type alias for *slog.Logger. Components accept log.Logger
// as a dependency; the alias keeps full compatibility with the slog
// ecosystem without a custom interface.
type Logger = *slog.Logger

// Config selects the handler built by New. The zero value gives a text
// handler at info level.
type Config struct {
	Level slog.Level

	// JSON switches the handler to JSON lines for log collectors.
	JSON bool

	// AddSource annotates each entry with its call site.
	AddSource bool
}

// ParseLevel maps a configuration string to a slog level. Unknown
// values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New builds the process logger on os.Stderr, keeping stdout free for
// the session's own output.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter builds a logger on an arbitrary writer, typically a
// buffer in tests.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop creates a logger that discards all output.
//
// Test-only: production code should always use New or NewWithWriter so
// failures remain observable.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
