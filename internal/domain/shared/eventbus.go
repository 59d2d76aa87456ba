package shared

import "context"

// EventHandler handles domain events delivered by the bus
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants; empty means all
	EventTypes() []string
}

// EventPublisher delivers events to subscribed handlers. The outbox processor publishes
// through it after the ledger transaction has committed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// OutboxEventSaver writes domain events to the outbox inside the caller's transaction,
// so they are only delivered if the ledger change commits.
type OutboxEventSaver interface {
	// SaveEvents saves events using the transaction handle (a *gorm.DB)
	SaveEvents(ctx context.Context, txProvider any, events ...DomainEvent) error
}
