// Package logging defines the structured-logging interface used across
// cloudnotes. The only implementation wraps log/slog.
package logging

import "context"

// Logger writes leveled, structured records. Args are key/value pairs:
//
//	log.Info(ctx, "object stored", "key", key, "public", public)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)

	// Warn is for conditions that degrade a feature but keep the request
	// alive, such as a missing object store configuration.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
