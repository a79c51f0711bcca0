// Package logging configures log/slog for the cleaner and carries request
// and artifact identifiers into log entries.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the default slog logger writing to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. Tests use it with a buffer.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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

type artifactKey struct{}

// ContextWithArtifact stores the artifact id of the upload being cleaned.
func ContextWithArtifact(ctx context.Context, artifactID string) context.Context {
	return context.WithValue(ctx, artifactKey{}, artifactID)
}

// ArtifactFromContext returns the artifact id stored by ContextWithArtifact.
func ArtifactFromContext(ctx context.Context) string {
	id, _ := ctx.Value(artifactKey{}).(string)
	return id
}

// FromContext returns the default logger with request_id and artifact_id
// attached when the context carries them.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("upload cleaned", "rows", report.OutputRows)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if id := ArtifactFromContext(ctx); id != "" {
		logger = logger.With("artifact_id", id)
	}

	return logger
}

// WithFields returns a context logger with additional structured fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
