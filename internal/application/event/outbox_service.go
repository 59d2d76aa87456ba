package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	ErrEntryNotFound     = shared.NewDomainError("ENTRY_NOT_FOUND", "Outbox entry not found")
	ErrEntryNotDead      = shared.NewDomainError("INVALID_STATUS", "Only dead letter entries can be retried")
	errOutboxUnavailable = shared.NewDomainError("INTERNAL_ERROR", "Failed to read the outbox")
)

// retryAllBatch bounds how many dead rows RetryAll resets per read
const retryAllBatch = 100

// OutboxService is the operator's view of the notification outbox: rows that ran out of
// retries can be listed, inspected and put back in the queue.
type OutboxService struct {
	repo shared.OutboxRepository
	log  *zap.Logger
}

func NewOutboxService(repo shared.OutboxRepository, log *zap.Logger) *OutboxService {
	return &OutboxService{repo: repo, log: log.Named("outbox-admin")}
}

// OutboxEntryView is an outbox row without its payload
type OutboxEntryView struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func viewOf(e *shared.OutboxEntry) OutboxEntryView {
	v := OutboxEntryView{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	v.NextRetryAt, v.ProcessedAt = e.NextRetryAt, e.ProcessedAt
	return v
}

// OutboxStats counts rows per status
type OutboxStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// ListDead pages through dead rows, most recently failed first
func (s *OutboxService) ListDead(ctx context.Context, filter shared.Filter) (shared.Paginated[OutboxEntryView], error) {
	page, size := filter.Normalize()
	rows, total, err := s.repo.FindDead(ctx, page, size)
	if err != nil {
		return shared.Paginated[OutboxEntryView]{}, s.unavailable("list dead rows", err)
	}

	views := make([]OutboxEntryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, viewOf(row))
	}
	return shared.NewPaginated(views, total, page, size), nil
}

func (s *OutboxService) Entry(ctx context.Context, id uuid.UUID) (*OutboxEntryView, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	v := viewOf(row)
	return &v, nil
}

// Retry moves one dead row back to PENDING with a fresh retry budget
func (s *OutboxService) Retry(ctx context.Context, id uuid.UUID) (*OutboxEntryView, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.ResetForRetry() != nil {
		return nil, ErrEntryNotDead
	}
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.unavailable("save reset row", err, zap.Stringer("id", id))
	}

	s.log.Info("dead row requeued", zap.Stringer("id", id), zap.String("event_type", row.EventType))
	v := viewOf(row)
	return &v, nil
}

// RetryAll requeues every dead row. A reset row drops out of the dead set, so the first
// page is read again until it is short or nothing on it could be reset.
func (s *OutboxService) RetryAll(ctx context.Context) (int64, error) {
	var requeued int64
	for {
		rows, _, err := s.repo.FindDead(ctx, 1, retryAllBatch)
		if err != nil {
			return requeued, s.unavailable("list dead rows", err)
		}

		n := s.requeue(ctx, rows)
		requeued += int64(n)
		if n == 0 || len(rows) < retryAllBatch {
			break
		}
	}

	s.log.Info("dead rows requeued", zap.Int64("count", requeued))
	return requeued, nil
}

func (s *OutboxService) requeue(ctx context.Context, rows []*shared.OutboxEntry) int {
	n := 0
	for _, row := range rows {
		if row.ResetForRetry() != nil {
			continue
		}
		if err := s.repo.Update(ctx, row); err != nil {
			s.log.Error("requeue failed", zap.Stringer("id", row.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

func (s *OutboxService) Stats(ctx context.Context) (*OutboxStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, s.unavailable("count rows", err)
	}

	stats := &OutboxStats{}
	slots := map[shared.OutboxStatus]*int64{
		shared.OutboxStatusPending:    &stats.Pending,
		shared.OutboxStatusProcessing: &stats.Processing,
		shared.OutboxStatusSent:       &stats.Sent,
		shared.OutboxStatusFailed:     &stats.Failed,
		shared.OutboxStatusDead:       &stats.Dead,
	}
	for status, n := range counts {
		if slot, ok := slots[status]; ok {
			*slot = n
		}
		stats.Total += n
	}
	return stats, nil
}

func (s *OutboxService) load(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	row, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && row == nil) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, s.unavailable("load row", err, zap.Stringer("id", id))
	}
	return row, nil
}

// unavailable logs the storage failure and hides it behind a generic domain error
func (s *OutboxService) unavailable(op string, err error, fields ...zap.Field) error {
	s.log.Error(op+" failed", append(fields, zap.Error(err))...)
	return errOutboxUnavailable
}
