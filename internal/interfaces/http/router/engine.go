package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/repairshop/backend/internal/infrastructure/config"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds what the middleware chain needs
type EngineConfig struct {
	Env     string
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// Meter enables request metrics; nil leaves them off
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewEngine creates a gin engine with the standard middleware chain. The request id and
// actor are resolved first so the access log, recovery and spans can carry them.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
		}
	} else if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to disable proxy trust: %w", err)
	}

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create http metrics: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Actor(),
		logger.Recovery(cfg.Logger),
		logger.GinMiddleware(cfg.Logger),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnrichment(),
		metrics,
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)
	return engine, nil
}
