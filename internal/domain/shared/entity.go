package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and timestamps shared by every persisted domain object.
// Timestamps are UTC.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch marks the entity as modified now
func (e *BaseEntity) Touch() { e.UpdatedAt = time.Now().UTC() }

// BaseAggregateRoot is embedded by reports and invoices. Version goes up by one on every
// status or payment change and is persisted with it; writers are serialised by row locks,
// not by comparing versions.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// BumpVersion records a state change
func (a *BaseAggregateRoot) BumpVersion() {
	a.Version++
	a.Touch()
}
