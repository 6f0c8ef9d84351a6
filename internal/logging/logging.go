// Package logging carries a request-scoped slog.Logger through contexts so
// that handlers and services can annotate one logger per request instead of
// threading it through every call.
package logging

import (
	"context"
	"log/slog"
)

// contextKey is unexported so only this package can attach the logger.
type contextKey struct{}

// ContextWithLogger attaches logger to ctx. A nil ctx or nil logger returns
// ctx unchanged.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached by ContextWithLogger, or nil when
// the context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return nil
}
