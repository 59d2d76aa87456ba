package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType represents the direction and purpose of a money movement
type MovementType string

const (
	// MovementTypeDeposit puts money into a location
	MovementTypeDeposit MovementType = "deposit"
	// MovementTypeWithdrawal takes money out of a location
	MovementTypeWithdrawal MovementType = "withdrawal"
	// MovementTypePaymentReceived credits a location with an invoice payment
	MovementTypePaymentReceived MovementType = "payment_received"
	// MovementTypeTransfer moves money between two locations
	MovementTypeTransfer MovementType = "transfer"
	// MovementTypeExpense pays an expense out of a location
	MovementTypeExpense MovementType = "expense"
	// MovementTypeRefund returns money to a client out of a location
	MovementTypeRefund MovementType = "refund"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeDeposit,
		MovementTypeWithdrawal,
		MovementTypePaymentReceived,
		MovementTypeTransfer,
		MovementTypeExpense,
		MovementTypeRefund:
		return true
	}
	return false
}

// IsIncoming returns true if the movement credits its destination only
func (t MovementType) IsIncoming() bool {
	return t == MovementTypeDeposit || t == MovementTypePaymentReceived
}

// IsOutgoing returns true if the movement debits its source only
func (t MovementType) IsOutgoing() bool {
	switch t {
	case MovementTypeWithdrawal, MovementTypeExpense, MovementTypeRefund:
		return true
	}
	return false
}

// ReferenceType identifies the kind of document a movement belongs to
type ReferenceType string

const (
	ReferenceTypeInvoice ReferenceType = "invoice"
	ReferenceTypeExpense ReferenceType = "expense"
	ReferenceTypeManual  ReferenceType = "manual"
)

// MoneyMovement is an append-only record of money entering, leaving or moving between locations.
// Once created it is never modified or deleted; a correction is a new movement in the opposite direction.
type MoneyMovement struct {
	shared.BaseEntity
	MovementType   MovementType
	Amount         decimal.Decimal // Always positive, direction determined by From/To
	FromLocationID *uuid.UUID
	ToLocationID   *uuid.UUID
	ReferenceType  ReferenceType
	ReferenceID    *uuid.UUID
	Description    string
	MovementDate   time.Time
	CreatedBy      *uuid.UUID
}

// NewMoneyMovement validates and creates a movement.
// Incoming types need only a destination, outgoing types only a source, and a transfer needs two distinct locations.
func NewMoneyMovement(movementType MovementType, amount decimal.Decimal, fromID, toID *uuid.UUID) (*MoneyMovement, error) {
	if !movementType.IsValid() {
		return nil, invalidMovement("Invalid movement type: " + string(movementType))
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	switch {
	case movementType == MovementTypeTransfer:
		if fromID == nil || toID == nil {
			return nil, invalidMovement("Transfer requires both a source and a destination location")
		}
		if *fromID == *toID {
			return nil, invalidMovement("Transfer source and destination must differ")
		}
	case movementType.IsIncoming():
		if toID == nil || fromID != nil {
			return nil, invalidMovement("Incoming movement requires only a destination location")
		}
	case movementType.IsOutgoing():
		if fromID == nil || toID != nil {
			return nil, invalidMovement("Outgoing movement requires only a source location")
		}
	}

	return &MoneyMovement{
		BaseEntity:     shared.NewBaseEntity(),
		MovementType:   movementType,
		Amount:         amount,
		FromLocationID: fromID,
		ToLocationID:   toID,
		ReferenceType:  ReferenceTypeManual,
		MovementDate:   time.Now(),
	}, nil
}

// WithReference links the movement to a source document
func (m *MoneyMovement) WithReference(refType ReferenceType, refID uuid.UUID) *MoneyMovement {
	m.ReferenceType = refType
	m.ReferenceID = &refID
	return m
}

// WithDescription sets the free-text description
func (m *MoneyMovement) WithDescription(description string) *MoneyMovement {
	m.Description = strings.TrimSpace(description)
	return m
}

// WithCreatedBy records the actor for audit attribution
func (m *MoneyMovement) WithCreatedBy(actorID uuid.UUID) *MoneyMovement {
	if actorID != uuid.Nil {
		m.CreatedBy = &actorID
	}
	return m
}

// WithMovementDate overrides the movement date
func (m *MoneyMovement) WithMovementDate(date time.Time) *MoneyMovement {
	m.MovementDate = date
	return m
}

// LocationIDs returns every location the movement touches
func (m *MoneyMovement) LocationIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 2)
	if m.FromLocationID != nil {
		ids = append(ids, *m.FromLocationID)
	}
	if m.ToLocationID != nil {
		ids = append(ids, *m.ToLocationID)
	}
	return ids
}

// SignedAmountFor returns the effect of the movement on the given location:
// positive when the location is credited, negative when debited, zero if untouched.
func (m *MoneyMovement) SignedAmountFor(locationID uuid.UUID) decimal.Decimal {
	delta := decimal.Zero
	if m.ToLocationID != nil && *m.ToLocationID == locationID {
		delta = delta.Add(m.Amount)
	}
	if m.FromLocationID != nil && *m.FromLocationID == locationID {
		delta = delta.Sub(m.Amount)
	}
	return delta
}
