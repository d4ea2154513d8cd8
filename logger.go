package sceneconv

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with sceneconv-specific context.
// Field names are shared by every Log helper so records can be filtered by
// archive and object path.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithArchive adds an archive field to the logger.
func (l *Logger) WithArchive(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("archive", name),
	}
}

// WithPath adds an object path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithSource adds a source file field to the logger.
func (l *Logger) WithSource(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", name),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogArchiveOpened logs opening or creating an archive.
func (l *Logger) LogArchiveOpened(ctx context.Context, name string, version int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open archive failed",
			"archive", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "archive opened",
			"archive", name,
			"format_version", version,
		)
	}
}

// LogObjectSkipped logs an object no reader is registered for.
func (l *Logger) LogObjectSkipped(ctx context.Context, path, schema string) {
	l.WarnContext(ctx, "skipping object",
		"path", path,
		"schema", schema,
		"reason", "no reader registered",
	)
}

// LogSampleRead logs reading one object sample.
func (l *Logger) LogSampleRead(ctx context.Context, path string, time float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read sample failed",
			"path", path,
			"time", time,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sample read",
			"path", path,
			"time", time,
		)
	}
}

// LogSampleWritten logs writing one object sample.
func (l *Logger) LogSampleWritten(ctx context.Context, path string, time float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "write sample failed",
			"path", path,
			"time", time,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sample written",
			"path", path,
			"time", time,
		)
	}
}

// LogConversion logs a finished source to archive conversion.
func (l *Logger) LogConversion(ctx context.Context, source, path string, samples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "conversion failed",
			"source", source,
			"path", path,
			"samples", samples,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "conversion completed",
			"source", source,
			"path", path,
			"samples", samples,
		)
	}
}
