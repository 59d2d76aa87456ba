package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
)

// BaseModel holds the id and timestamp columns every table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func baseModel(e shared.BaseEntity) BaseModel {
	return BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (m BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// AggregateModel adds the version column of invoices and reports. Updates bump it under
// the row lock taken by the transaction that loaded the aggregate.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func aggregateModel(a shared.BaseAggregateRoot) AggregateModel {
	return AggregateModel{BaseModel: baseModel(a.BaseEntity), Version: a.Version}
}

func (m AggregateModel) aggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version}
}
