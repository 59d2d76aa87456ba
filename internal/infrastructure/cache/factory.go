package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backend bundles the idempotency store and locker built from one Redis connection,
// or their in-memory stand-ins when Redis is unavailable and fallback is allowed.
type Backend struct {
	Idempotency shared.IdempotencyStore
	Locker      shared.Locker
	client      *redis.Client
}

// Distributed reports whether state is shared through Redis
func (b *Backend) Distributed() bool {
	return b.client != nil
}

// Close releases the Redis connection or the in-memory cleanup goroutine
func (b *Backend) Close() error {
	return b.Idempotency.Close()
}

// Factory creates cache backends based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory state when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create tries Redis first and falls back to in-memory state when allowed.
// In-memory state is per process: two reconcile runs in different processes will not see each
// other's lock.
func (f *Factory) Create(ctx context.Context) (*Backend, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis for idempotency and locks", zap.String("addr", f.redisConfig.Addr()))
		return &Backend{
			Idempotency: NewRedisIdempotencyStore(client, ""),
			Locker:      NewRedisLocker(client, ""),
			client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency and locks",
		zap.Error(err),
	)
	return &Backend{
		Idempotency: NewInMemoryIdempotencyStore(),
		Locker:      NewInMemoryLocker(),
	}, nil
}
