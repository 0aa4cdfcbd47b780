package semvault

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with semvault-specific context.
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

// WithVault adds a vault name field to the logger.
func (l *Logger) WithVault(vault string) *Logger {
	return &Logger{
		Logger: l.Logger.With("vault", vault),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogUpdate logs an embedding update run over one document source.
func (l *Logger) LogUpdate(ctx context.Context, source string, stats UpdateStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update failed",
			"source", source,
			"documents", stats.Documents,
			"cache_hits", stats.CacheHits,
			"embedded", stats.Embedded,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "update completed",
			"source", source,
			"documents", stats.Documents,
			"cache_hits", stats.CacheHits,
			"embedded", stats.Embedded,
			"duration", stats.Duration,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogGenerate logs a semantically cached generation.
func (l *Logger) LogGenerate(ctx context.Context, cached bool, similarity float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "generate failed",
			"error", err,
		)
	} else if cached {
		l.DebugContext(ctx, "generate served from cache",
			"similarity", similarity,
		)
	} else {
		l.DebugContext(ctx, "generate completed",
			"cached", false,
		)
	}
}

// LogPersist logs a snapshot persist operation.
func (l *Logger) LogPersist(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "persist completed",
			"count", count,
		)
	}
}

// LogWarmUp logs a response cache warm-up.
func (l *Logger) LogWarmUp(ctx context.Context, total, added int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "warm-up failed",
			"total", total,
			"added", added,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "warm-up completed",
			"total", total,
			"added", added,
		)
	}
}
