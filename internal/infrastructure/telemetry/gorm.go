package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormTracingConfig controls database spans.
type GormTracingConfig struct {
	Enabled    bool
	DBName     string
	LogFullSQL bool // include bound variables in spans; leave off outside development
}

// RegisterGormTracing installs the otelgorm plugin so every query becomes a child span.
func RegisterGormTracing(db *gorm.DB, cfg GormTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}
	logger.Info("Database tracing enabled", zap.String("db_name", cfg.DBName), zap.Bool("log_full_sql", cfg.LogFullSQL))
	return nil
}
