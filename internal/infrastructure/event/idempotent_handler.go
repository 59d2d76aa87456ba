package event

import (
	"context"
	"sync/atomic"

	"github.com/repairshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotencyStats counts what an IdempotentHandler did with the events it saw
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotentHandler lets the wrapped handler see each event id once. The outbox delivers
// at least once, so without it a retried batch would enqueue the same notification twice.
type IdempotentHandler struct {
	next  shared.EventHandler
	store shared.IdempotencyStore
	cfg   shared.IdempotencyConfig
	log   *zap.Logger

	processed, duplicate, failed atomic.Int64
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.cfg = cfg }
}

func NewIdempotentHandler(
	next shared.EventHandler,
	store shared.IdempotencyStore,
	log *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{next: next, store: store, cfg: shared.DefaultIdempotencyConfig(), log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle claims the event id before delegating. An unreachable store does not block
// delivery: a duplicate notification is better than a lost one. A failed delegate
// releases its claim so the outbox retry gets through.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.cfg.Enabled {
		return h.next.Handle(ctx, event)
	}

	id := event.EventID().String()
	fields := []zap.Field{zap.String("event_id", id), zap.String("event_type", event.EventType())}

	claimed, err := h.store.MarkProcessed(ctx, id, h.cfg.TTL)
	if err != nil {
		h.log.Warn("idempotency store unavailable, delivering without dedup", append(fields, zap.Error(err))...)
		claimed = true
	}
	if !claimed {
		h.duplicate.Add(1)
		h.log.Debug("duplicate event skipped", fields...)
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		if ferr := h.store.Forget(ctx, id); ferr != nil {
			h.log.Warn("idempotency claim not released, retry will be skipped until it expires",
				append(fields, zap.Error(ferr))...)
		}
		return err
	}
	h.processed.Add(1)
	return nil
}

func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: h.processed.Load(),
		EventsDuplicate: h.duplicate.Load(),
		EventsFailed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
