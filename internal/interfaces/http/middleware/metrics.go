package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/repairshop/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPDurationBuckets are latency bucket boundaries in seconds
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	attrHTTPMethod = attribute.Key("http.method")
	attrHTTPRoute  = attribute.Key("http.route")
	attrHTTPStatus = attribute.Key("http.status_code")
)

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	set := telemetry.Instruments(meter)
	m := &httpMetrics{
		requestTotal: set.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		requestDuration: set.Histogram("http_server_request_duration_seconds",
			"HTTP request latency distribution in seconds", "s", HTTPDurationBuckets...),
	}
	return m, set.Err()
}

// HTTPMetrics counts requests by method, route and status, and records their latency.
// A nil meter disables it. Routes use gin's pattern so ids do not blow up cardinality.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		route := routePattern(c)
		m.requestTotal.Inc(ctx,
			attrHTTPMethod.String(c.Request.Method),
			attrHTTPRoute.String(route),
			attrHTTPStatus.String(strconv.Itoa(c.Writer.Status())),
		)
		m.requestDuration.RecordDuration(ctx, time.Since(start),
			attrHTTPMethod.String(c.Request.Method),
			attrHTTPRoute.String(route),
		)
	}, nil
}

func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
