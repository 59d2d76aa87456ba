package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LocationRepository persists money locations.
// It deliberately has no way to write a balance; see MovementRepository.Append.
type LocationRepository interface {
	// FindByID returns ErrLocationNotFound when the location does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*MoneyLocation, error)
	// FindActive returns all active locations ordered by creation (oldest first)
	FindActive(ctx context.Context) ([]MoneyLocation, error)
	// FindAll returns locations with pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]MoneyLocation, int64, error)
	// Save creates or updates name, type, description and active flag. The balance column is never written.
	Save(ctx context.Context, location *MoneyLocation) error
}

// MovementFilter narrows a movement listing
type MovementFilter struct {
	LocationID    *uuid.UUID
	ReferenceType *ReferenceType
	ReferenceID   *uuid.UUID
	MovementType  *MovementType
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// Normalize applies the shared page size defaults and cap
func (f MovementFilter) Normalize() (page, pageSize int) {
	return f.paging().Normalize()
}

// Offset is the number of rows before the normalized page
func (f MovementFilter) Offset() int {
	return f.paging().Offset()
}

func (f MovementFilter) paging() shared.Filter {
	return shared.Filter{Page: f.Page, PageSize: f.PageSize}
}

// LocationFlow is the sum of credits and debits recorded against a location
type LocationFlow struct {
	LocationID uuid.UUID
	Incoming   decimal.Decimal
	Outgoing   decimal.Decimal
}

// Net returns incoming minus outgoing
func (f LocationFlow) Net() decimal.Decimal {
	return f.Incoming.Sub(f.Outgoing)
}

// MovementRepository is the append-only store of movements and the single writer of location balances.
type MovementRepository interface {
	// Append inserts the movement and, in the same transaction, adds Amount to the destination
	// balance and subtracts it from the source balance.
	Append(ctx context.Context, movement *MoneyMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*MoneyMovement, error)
	// FindByReference returns movements for a document, oldest first
	FindByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) ([]MoneyMovement, error)
	// List returns movements matching the filter, newest first
	List(ctx context.Context, filter MovementFilter) ([]MoneyMovement, int64, error)
	// FlowsByLocation aggregates incoming and outgoing totals per location
	FlowsByLocation(ctx context.Context) ([]LocationFlow, error)
}
