package blockcache

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/blockcache/structure"
)

// Logger wraps slog.Logger with blockcache-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRoot adds a root field to the logger (useful for tagging operations).
func (l *Logger) WithRoot(root structure.Key) *Logger {
	return &Logger{
		Logger: l.Logger.With("root", root.String()),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, root structure.Key, payloadSize int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"root", root.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"root", root.String(),
			"payload_size", payloadSize,
		)
	}
}

// LogGet logs a get operation. source names the tier that served the
// payload ("fast" or "durable"), empty on failure.
func (l *Logger) LogGet(ctx context.Context, root structure.Key, source string, payloadSize int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "get failed",
			"root", root.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "get completed",
			"root", root.String(),
			"source", source,
			"payload_size", payloadSize,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, root structure.Key, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"root", root.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"root", root.String(),
		)
	}
}

// LogPurge logs a purge operation.
func (l *Logger) LogPurge(ctx context.Context, root structure.Key, err error) {
	if err != nil {
		l.ErrorContext(ctx, "purge failed",
			"root", root.String(),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "purge completed",
			"root", root.String(),
		)
	}
}

// LogWarm logs a warm operation.
func (l *Logger) LogWarm(ctx context.Context, requested, warmed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "warm failed",
			"requested", requested,
			"warmed", warmed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "warm completed",
			"requested", requested,
			"warmed", warmed,
		)
	}
}
