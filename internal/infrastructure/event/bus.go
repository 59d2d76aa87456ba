package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/repairshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish after Stop
var ErrBusStopped = errors.New("event bus is stopped")

// InMemoryEventBus delivers events synchronously, in process, to subscribed handlers.
//
// A failing handler does not keep the event from the others. Publish joins the failures so
// the outbox entry is retried, which is why consumers are wrapped in IdempotentHandler.
type InMemoryEventBus struct {
	handlers *HandlerRegistry
	log      *zap.Logger
	stopped  atomic.Bool
}

func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{handlers: NewHandlerRegistry(), log: log.Named("bus")}
}

func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}
	var failures []error
	for _, ev := range events {
		failures = append(failures, b.deliver(ctx, ev)...)
	}
	return errors.Join(failures...)
}

func (b *InMemoryEventBus) deliver(ctx context.Context, ev shared.DomainEvent) []error {
	var failures []error
	for _, h := range b.handlers.Handlers(ev.EventType()) {
		err := safeHandle(ctx, h, ev)
		if err == nil {
			continue
		}
		b.log.Error("event handler failed",
			zap.String("event_type", ev.EventType()),
			zap.Stringer("event_id", ev.EventID()),
			zap.Error(err),
		)
		failures = append(failures, err)
	}
	return failures
}

// Subscribe registers h for eventTypes, or for h.EventTypes() when none are given
func (b *InMemoryEventBus) Subscribe(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = h.EventTypes()
	}
	b.handlers.Register(h, eventTypes...)
	b.log.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

func (b *InMemoryEventBus) Unsubscribe(h shared.EventHandler) {
	b.handlers.Unregister(h)
}

// Start re-enables Publish after Stop
func (b *InMemoryEventBus) Start(context.Context) error {
	b.stopped.Store(false)
	b.log.Info("event bus started", zap.Int("handlers", b.handlers.Len()))
	return nil
}

func (b *InMemoryEventBus) Stop(context.Context) error {
	b.stopped.Store(true)
	b.log.Info("event bus stopped")
	return nil
}

func safeHandle(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)
