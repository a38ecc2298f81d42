package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

var loggerCtxKey = contextKey{}

// defaultLogger is returned when the context carries no logger. It becomes the
// configured logger once one is built.
var defaultLogger = zap.NewNop()

// Get returns the logger attached to ctx, or the default logger. ctx may be nil.
func Get(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return defaultLogger
	}
	if l, ok := ctx.Value(loggerCtxKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

// With attaches l to ctx.
func With(ctx context.Context, l *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerCtxKey, l)
}

// WithFields attaches the logger of ctx extended by fields, so every later log
// line of the request or batch carries them.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return With(ctx, Get(ctx).With(fields...))
}
