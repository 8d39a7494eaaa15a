package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one delivery run across log lines and history rows.
	FieldRunID = "run_id"
	// FieldSource is the source file of a per-file event.
	FieldSource = "source"
	// FieldDestination is the rendered destination of a per-file event.
	FieldDestination = "destination"
	// FieldExtension is the catalog group of a per-file event.
	FieldExtension = "ext"
)

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID annotates ctx with the delivery run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RunIDFromContext(ctx); ok {
		return logger.With(String(FieldRunID, id))
	}
	return logger
}
