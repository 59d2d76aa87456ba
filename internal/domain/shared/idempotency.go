package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which events a handler has already consumed. The outbox may
// deliver an event more than once; consumers claim its id here before acting.
type IdempotencyStore interface {
	// MarkProcessed claims eventID for ttl. It returns false when the id was already claimed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Forget drops a claim so a failed attempt can be redelivered
	Forget(ctx context.Context, eventID string) error
	Close() error
}

// DefaultIdempotencyTTL outlives the outbox retry schedule, so a redelivery always finds its claim
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyConfig controls duplicate suppression for event handlers
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables suppression with DefaultIdempotencyTTL
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: DefaultIdempotencyTTL, Enabled: true}
}
