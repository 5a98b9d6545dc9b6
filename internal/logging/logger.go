// Package logging provides structured logging configuration using log/slog.
//
// Long-running operations (imports, exports) tag their context with a job
// ID so every log entry they emit can be correlated back to the operation
// that produced it.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" format for machine parsing, "text" for human readability.
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
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

type jobIDKey struct{}

// WithJobID returns a context carrying a job ID for log correlation.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, jobID)
}

// JobID returns the job ID stored in ctx, or "" if none is set.
func JobID(ctx context.Context) string {
	id, _ := ctx.Value(jobIDKey{}).(string)
	return id
}

// FromContext returns a logger enriched with operation context.
//
// When the context carries a job ID (see WithJobID), the returned logger
// automatically includes job_id in all log entries, correlating every
// entry emitted by a single import or export run.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if jobID := JobID(ctx); jobID != "" {
		logger = logger.With("job_id", jobID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// This is useful for creating operation-specific loggers that carry
// consistent context through a multi-step process.
//
// Usage:
//
//	importLogger := logging.WithFields(ctx,
//	    "job_id", jobID,
//	    "path", path,
//	)
//	importLogger.Info("import started")
//	// ... later ...
//	importLogger.Info("import completed", "rows", imported)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
