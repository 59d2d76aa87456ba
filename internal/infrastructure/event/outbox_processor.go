package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OutboxProcessorConfig controls polling and retention of delivered entries
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// withDefaults fills zero values so a partially filled config from main still works
func (c OutboxProcessorConfig) withDefaults() OutboxProcessorConfig {
	d := DefaultOutboxProcessorConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.CleanupRetention <= 0 {
		c.CleanupRetention = d.CleanupRetention
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

// OutboxProcessor relays committed outbox rows onto the event bus. A row whose delivery
// fails waits out its backoff and is tried again until it runs out of retries.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	cfg        OutboxProcessorConfig
	log        *zap.Logger
	now        func() time.Time

	stop  context.CancelFunc
	loops *errgroup.Group
}

func NewOutboxProcessor(
	repo shared.OutboxRepository,
	bus shared.EventPublisher,
	serializer *EventSerializer,
	cfg OutboxProcessorConfig,
	log *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		cfg:        cfg.withDefaults(),
		log:        log.Named("outbox"),
		now:        time.Now,
	}
}

// Start runs the relay loop, plus the retention loop if enabled, until Stop or ctx ends
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, p.stop = context.WithCancel(ctx)
	p.loops, ctx = errgroup.WithContext(ctx)

	p.loops.Go(func() error {
		tick(ctx, p.cfg.PollInterval, func(ctx context.Context) { _, _ = p.ProcessOnce(ctx) })
		return nil
	})
	if p.cfg.CleanupEnabled {
		p.loops.Go(func() error {
			tick(ctx, p.cfg.CleanupInterval, p.cleanup)
			return nil
		})
	}
	return nil
}

// Stop ends both loops and waits for the current pass to finish, or for ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.stop == nil {
		return nil
	}
	p.stop()

	done := make(chan struct{})
	go func() {
		_ = p.loops.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.log.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func tick(ctx context.Context, every time.Duration, fn func(context.Context)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}

// ProcessOnce relays one batch of new rows and one batch of rows whose backoff has
// elapsed, and returns how many reached the bus.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) (int, error) {
	sources := []struct {
		name  string
		fetch func() ([]*shared.OutboxEntry, error)
	}{
		{"pending", func() ([]*shared.OutboxEntry, error) { return p.repo.FindPending(ctx, p.cfg.BatchSize) }},
		{"retryable", func() ([]*shared.OutboxEntry, error) { return p.repo.FindRetryable(ctx, p.now(), p.cfg.BatchSize) }},
	}

	delivered := 0
	for _, src := range sources {
		batch, err := src.fetch()
		if err != nil {
			p.log.Error("outbox fetch failed", zap.String("source", src.name), zap.Error(err))
			return delivered, err
		}
		delivered += p.relay(ctx, batch)
	}
	return delivered, nil
}

// relay claims the batch first so a second processor cannot pick up the same rows
func (p *OutboxProcessor) relay(ctx context.Context, batch []*shared.OutboxEntry) int {
	if len(batch) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, 0, len(batch))
	for _, e := range batch {
		ids = append(ids, e.ID)
	}
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.log.Error("outbox claim failed", zap.Int("batch", len(ids)), zap.Error(err))
		return 0
	}

	n := 0
	for _, entry := range claimed {
		if err := p.deliver(ctx, entry); err != nil {
			p.recordFailure(ctx, entry, err)
			continue
		}
		entry.MarkSent()
		if err := p.repo.Update(ctx, entry); err != nil {
			p.log.Error("outbox row delivered but not marked sent", append(entryFields(entry), zap.Error(err))...)
			continue
		}
		n++
	}
	return n
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	evt, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, evt)
}

func (p *OutboxProcessor) recordFailure(ctx context.Context, entry *shared.OutboxEntry, cause error) {
	entry.MarkFailed(cause.Error())

	fields := append(entryFields(entry), zap.Int("retry_count", entry.RetryCount), zap.Error(cause))
	if entry.IsDead() {
		p.log.Warn("outbox row is dead, reset it through the admin API to retry", fields...)
	} else {
		p.log.Error("outbox delivery failed", append(fields, zap.Timep("next_retry_at", entry.NextRetryAt))...)
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		p.log.Error("outbox failure not persisted", append(entryFields(entry), zap.Error(err))...)
	}
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := p.now().Add(-p.cfg.CleanupRetention)
	n, err := p.repo.DeleteOlderThan(ctx, cutoff)
	switch {
	case err != nil:
		p.log.Error("outbox cleanup failed", zap.Error(err))
	case n > 0:
		p.log.Info("outbox rows purged", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
}

func entryFields(e *shared.OutboxEntry) []zap.Field {
	return []zap.Field{
		zap.Stringer("event_id", e.EventID),
		zap.String("event_type", e.EventType),
		zap.Stringer("aggregate_id", e.AggregateID),
	}
}
