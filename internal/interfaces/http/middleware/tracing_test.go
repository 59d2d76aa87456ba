package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a recording tracer provider for the test
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func tracedRouter(status int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Actor(), Tracing(DefaultTracingConfig()), SpanEnrichment())
	router.GET("/api/v1/locations/:id", func(c *gin.Context) { c.Status(status) })
	return router
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracing_SpanCarriesRequestAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	actor := uuid.New()

	serve(tracedRouter(http.StatusOK), http.MethodGet, "/api/v1/locations/42", map[string]string{
		HeaderRequestID: "req-trace",
		HeaderUserID:    actor.String(),
	})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/api/v1/locations/:id")
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-trace", attrs["request_id"].AsString())
	assert.Equal(t, actor.String(), attrs["actor_id"].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestSpanEnrichment_MarksErrors(t *testing.T) {
	tests := []struct {
		status  int
		isError bool
		message string
	}{
		{http.StatusOK, false, ""},
		{http.StatusNotFound, true, "Not Found"},
		{http.StatusConflict, true, "Conflict"},
		{http.StatusUnprocessableEntity, true, "Unprocessable Entity"},
		// otelgin sets its own status for 5xx afterwards
		{http.StatusInternalServerError, true, ""},
		{http.StatusServiceUnavailable, true, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sr := setupTestTracer(t)
			serve(tracedRouter(tt.status), http.MethodGet, "/api/v1/locations/1", nil)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			if !tt.isError {
				assert.NotEqual(t, codes.Error, spans[0].Status().Code)
				return
			}
			assert.Equal(t, codes.Error, spans[0].Status().Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, spans[0].Status().Description)
			}
			assert.Equal(t, int64(tt.status), spanAttrs(spans[0])["http.status_code"].AsInt64())
		})
	}
}

func TestSpanEnrichment_WithoutSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanEnrichment())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := serve(router, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
