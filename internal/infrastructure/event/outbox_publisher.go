package event

import (
	"context"
	"fmt"

	"github.com/repairshop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher turns events into outbox rows written through the caller's transaction,
// so a rolled back ledger change leaves no notification behind.
type OutboxPublisher struct {
	serializer *EventSerializer
	maxRetries int
}

// NewOutboxPublisher gives each row maxRetries delivery attempts, or shared.DefaultMaxRetries if not positive
func NewOutboxPublisher(serializer *EventSerializer, maxRetries int) *OutboxPublisher {
	if maxRetries <= 0 {
		maxRetries = shared.DefaultMaxRetries
	}
	return &OutboxPublisher{serializer: serializer, maxRetries: maxRetries}
}

// SaveEvents implements shared.OutboxEventSaver. txProvider is the open *gorm.DB transaction.
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider any, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("outbox needs a *gorm.DB transaction, got %T", txProvider)
	}

	rows, err := p.rows(events)
	if err != nil {
		return err
	}
	return NewGormOutboxRepository(tx).Save(ctx, rows...)
}

func (p *OutboxPublisher) rows(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	rows := make([]*shared.OutboxEntry, len(events))
	for i, evt := range events {
		payload, err := p.serializer.Serialize(evt)
		if err != nil {
			return nil, err
		}
		rows[i] = shared.NewOutboxEntry(evt, payload)
		rows[i].MaxRetries = p.maxRetries
	}
	return rows, nil
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
