package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository stores outbox entries in outbox_events
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) rows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.OutboxEntryModel{})
}

func inStatus(statuses ...shared.OutboxStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("status IN ?", statuses) }
}

func first(n int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Limit(n) }
}

func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := make([]*models.OutboxEntryModel, 0, len(entries))
	for _, e := range entries {
		batch = append(batch, models.OutboxEntryModelFromDomain(e))
	}
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var m models.OutboxEntryModel
	err := r.rows(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Update saves the whole row with a fresh updated_at
func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(models.OutboxEntryModelFromDomain(entry)).Error
}

// FindPending returns the oldest pending entries
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.list(r.rows(ctx).Scopes(inStatus(shared.OutboxStatusPending), first(limit)).Order("created_at"))
}

// FindRetryable returns failed entries due at or before the given time, earliest first
func (r *GormOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	q := r.rows(ctx).Scopes(inStatus(shared.OutboxStatusFailed), first(limit)).
		Where("next_retry_at <= ?", before).
		Order("next_retry_at")
	return r.list(q)
}

// MarkProcessing locks the still claimable rows among ids, skipping rows another
// processor holds, and flips them to PROCESSING in one transaction.
func (r *GormOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var claimed []*shared.OutboxEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := r.list(tx.Model(&models.OutboxEntryModel{}).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Scopes(inStatus(shared.OutboxStatusPending, shared.OutboxStatusFailed)).
			Where("id IN ?", ids))
		if err != nil || len(locked) == 0 {
			return err
		}

		lockedIDs := make([]uuid.UUID, 0, len(locked))
		for _, e := range locked {
			if err := e.MarkProcessing(); err != nil {
				return err
			}
			lockedIDs = append(lockedIDs, e.ID)
		}
		claimed = locked
		return tx.Model(&models.OutboxEntryModel{}).
			Where("id IN ?", lockedIDs).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": locked[0].UpdatedAt}).Error
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// FindDead pages dead entries by most recent failure
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var total int64
	if err := r.rows(ctx).Scopes(inStatus(shared.OutboxStatusDead)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*shared.OutboxEntry{}, 0, nil
	}

	filter := shared.Filter{Page: page, PageSize: pageSize}
	_, size := filter.Normalize()
	entries, err := r.list(r.rows(ctx).
		Scopes(inStatus(shared.OutboxStatusDead), first(size)).
		Order("updated_at DESC").
		Offset(filter.Offset()))
	return entries, total, err
}

func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var groups []struct {
		Status shared.OutboxStatus
		N      int64
	}
	if err := r.rows(ctx).Select("status, COUNT(*) AS n").Group("status").Scan(&groups).Error; err != nil {
		return nil, err
	}

	counts := make(map[shared.OutboxStatus]int64, len(groups))
	for _, g := range groups {
		counts[g.Status] = g.N
	}
	return counts, nil
}

// DeleteOlderThan purges sent entries processed before the cutoff. Dead entries stay
// until an operator requeues them.
func (r *GormOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(inStatus(shared.OutboxStatusSent)).
		Where("processed_at < ?", before).
		Delete(&models.OutboxEntryModel{})
	return res.RowsAffected, res.Error
}

func (r *GormOutboxRepository) list(q *gorm.DB) ([]*shared.OutboxEntry, error) {
	var found []models.OutboxEntryModel
	if err := q.Find(&found).Error; err != nil {
		return nil, err
	}
	entries := make([]*shared.OutboxEntry, len(found))
	for i := range found {
		entries[i] = found[i].ToDomain()
	}
	return entries, nil
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
