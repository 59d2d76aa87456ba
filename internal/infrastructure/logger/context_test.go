package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCtx_UsesRequestLogger(t *testing.T) {
	fallbackCore, fallbackLogs := observer.New(zapcore.DebugLevel)
	requestCore, requestLogs := observer.New(zapcore.DebugLevel)
	request := zap.New(requestCore).With(zap.String("request_id", "req-1"))

	ctx := WithContext(context.Background(), request)
	Ctx(ctx, zap.New(fallbackCore)).Info("money movement recorded")

	assert.Zero(t, fallbackLogs.Len())
	require.Equal(t, 1, requestLogs.Len())
	assert.Equal(t, "req-1", requestLogs.All()[0].ContextMap()["request_id"])
}

func TestCtx_FallsBackOutsideRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	Ctx(context.Background(), zap.New(core)).Info("scheduled linking run")
	assert.Equal(t, 1, logs.Len())

	assert.NotPanics(t, func() { Ctx(context.Background(), nil).Info("dropped") })
}

func TestCtx_AddsTraceIDs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "UpdateStatus")
	defer span.End()

	Ctx(ctx, zap.New(core)).Info("report status synchronised")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}
