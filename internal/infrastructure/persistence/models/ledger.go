package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// MoneyLocationModel is the persistence model for money locations
type MoneyLocationModel struct {
	BaseModel
	Name        string               `gorm:"type:varchar(100);not null"`
	NameAr      string               `gorm:"type:varchar(100)"`
	Description string               `gorm:"type:varchar(500)"`
	Type        finance.LocationType `gorm:"type:varchar(20);not null;default:cash"`
	Balance     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	IsActive    bool                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (MoneyLocationModel) TableName() string {
	return "money_locations"
}

// ToDomain converts the persistence model to a domain MoneyLocation
func (m *MoneyLocationModel) ToDomain() *finance.MoneyLocation {
	return finance.RestoreMoneyLocation(m.entity(), m.Name, m.NameAr, m.Description, m.Type, m.Balance, m.IsActive)
}

// MoneyLocationModelFromDomain creates a persistence model from a domain MoneyLocation.
// Balance is copied for inserts only; repositories never include it in updates.
func MoneyLocationModelFromDomain(l *finance.MoneyLocation) *MoneyLocationModel {
	return &MoneyLocationModel{
		BaseModel:   baseModel(l.BaseEntity),
		Name:        l.Name,
		NameAr:      l.NameAr,
		Description: l.Description,
		Type:        l.Type,
		Balance:     l.Balance(),
		IsActive:    l.IsActive,
	}
}

// MoneyMovementModel is the persistence model for money movements
type MoneyMovementModel struct {
	BaseModel
	MovementType   finance.MovementType  `gorm:"type:varchar(30);not null;index"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	FromLocationID *uuid.UUID            `gorm:"type:uuid;index"`
	ToLocationID   *uuid.UUID            `gorm:"type:uuid;index"`
	ReferenceType  finance.ReferenceType `gorm:"type:varchar(30);not null;index:idx_movement_reference,priority:1"`
	ReferenceID    *uuid.UUID            `gorm:"type:uuid;index:idx_movement_reference,priority:2"`
	Description    string                `gorm:"type:varchar(500)"`
	MovementDate   time.Time             `gorm:"not null;index"`
	CreatedBy      *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (MoneyMovementModel) TableName() string {
	return "money_movements"
}

// ToDomain converts the persistence model to a domain MoneyMovement
func (m *MoneyMovementModel) ToDomain() *finance.MoneyMovement {
	return &finance.MoneyMovement{
		BaseEntity:     m.entity(),
		MovementType:   m.MovementType,
		Amount:         m.Amount,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		Description:    m.Description,
		MovementDate:   m.MovementDate,
		CreatedBy:      m.CreatedBy,
	}
}

// MoneyMovementModelFromDomain creates a persistence model from a domain MoneyMovement
func MoneyMovementModelFromDomain(mv *finance.MoneyMovement) *MoneyMovementModel {
	return &MoneyMovementModel{
		BaseModel:      baseModel(mv.BaseEntity),
		MovementType:   mv.MovementType,
		Amount:         mv.Amount,
		FromLocationID: mv.FromLocationID,
		ToLocationID:   mv.ToLocationID,
		ReferenceType:  mv.ReferenceType,
		ReferenceID:    mv.ReferenceID,
		Description:    mv.Description,
		MovementDate:   mv.MovementDate,
		CreatedBy:      mv.CreatedBy,
	}
}
