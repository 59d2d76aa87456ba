package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext stores the request logger in ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the request logger stored in ctx, falling back to fallback outside a request.
// The active span's trace_id and span_id are added so ledger writes can be matched to traces.
func Ctx(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	l := fallback
	if stored, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && stored != nil {
		l = stored
	}
	if l == nil {
		l = zap.NewNop()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
