package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of a ledger event waiting in the outbox
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

// Delivery retry defaults. The backoff doubles from DefaultBaseBackoff and stops growing at
// MaxBackoff so a notification outage of a few hours still drains within minutes of recovery.
const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	MaxBackoff         = 5 * time.Minute
)

// Outbox state errors
var (
	ErrOutboxNotClaimable = NewDomainError("INVALID_STATE", "Only pending or failed outbox entries can be claimed")
	ErrOutboxNotDead      = NewDomainError("INVALID_STATE", "Only dead letter outbox entries can be reset")
)

// OutboxEntry is a serialized domain event. It is written in the transaction that raised
// the event and relayed to the event bus after commit.
type OutboxEntry struct {
	ID uuid.UUID

	// the event
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte

	// delivery state
	Status      OutboxStatus
	RetryCount  int
	MaxRetries  int
	LastError   string
	NextRetryAt *time.Time
	ProcessedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	e := &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		MaxRetries:    DefaultMaxRetries,
	}
	e.CreatedAt = e.moveTo(OutboxStatusPending)
	return e
}

// moveTo sets the status and stamps UpdatedAt, returning the stamp
func (e *OutboxEntry) moveTo(status OutboxStatus) time.Time {
	now := time.Now().UTC()
	e.Status, e.UpdatedAt = status, now
	return now
}

// MarkProcessing claims a pending or failed entry for one delivery attempt
func (e *OutboxEntry) MarkProcessing() error {
	switch e.Status {
	case OutboxStatusPending, OutboxStatusFailed:
		e.moveTo(OutboxStatusProcessing)
		return nil
	default:
		return ErrOutboxNotClaimable
	}
}

func (e *OutboxEntry) MarkSent() {
	now := e.moveTo(OutboxStatusSent)
	e.ProcessedAt = &now
}

// MarkFailed counts a failed attempt. The entry is due again after RetryBackoff, unless
// this was attempt MaxRetries, in which case it is dead until reset.
func (e *OutboxEntry) MarkFailed(reason string) {
	e.RetryCount++
	e.LastError = reason

	if e.RetryCount >= e.MaxRetries {
		e.moveTo(OutboxStatusDead)
		e.NextRetryAt = nil
		return
	}
	due := e.moveTo(OutboxStatusFailed).Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &due
}

// RetryBackoff after n failures: 1s, 2s, 4s ... up to MaxBackoff
func RetryBackoff(failures int) time.Duration {
	switch {
	case failures < 1:
		return DefaultBaseBackoff
	case failures > 20:
		return MaxBackoff
	}
	return min(DefaultBaseBackoff<<(failures-1), MaxBackoff)
}

// ResetForRetry requeues a dead entry with its full retry budget
func (e *OutboxEntry) ResetForRetry() error {
	if !e.IsDead() {
		return ErrOutboxNotDead
	}
	e.moveTo(OutboxStatusPending)
	e.RetryCount, e.LastError, e.NextRetryAt = 0, "", nil
	return nil
}

func (e *OutboxEntry) IsDead() bool { return e.Status == OutboxStatusDead }

// OutboxRepository stores outbox entries. MarkProcessing must claim atomically: an id
// already claimed by another processor is left out of the result.
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error

	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns failed entries whose NextRetryAt is not after before
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)

	// FindDead pages dead entries, most recently failed first
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
	// DeleteOlderThan purges sent entries processed before the cutoff
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
