package finance

import (
	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type for payment events. Payments are recorded against invoices.
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypePaymentRecorded = "PaymentRecorded"
	EventTypePaymentReverted = "PaymentReverted"
)

// PaymentRecordedEvent is raised when an invoice payment credits a money location
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	ClientID     uuid.UUID       `json:"client_id"`
	MovementID   uuid.UUID       `json:"movement_id"`
	LocationID   uuid.UUID       `json:"location_id"`
	LocationName string          `json:"location_name"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
	ActorID      uuid.UUID       `json:"actor_id"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(invoiceID, clientID uuid.UUID, movement *MoneyMovement, location *MoneyLocation, method string, actorID uuid.UUID) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeInvoice, invoiceID),
		InvoiceID:       invoiceID,
		ClientID:        clientID,
		MovementID:      movement.ID,
		LocationID:      location.ID,
		LocationName:    location.Name,
		Amount:          movement.Amount,
		Method:          method,
		ActorID:         actorID,
	}
}

// PaymentRevertedEvent is raised when a previously recorded payment is taken back out of its location
type PaymentRevertedEvent struct {
	shared.BaseDomainEvent
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	ClientID     uuid.UUID       `json:"client_id"`
	MovementID   uuid.UUID       `json:"movement_id"`
	LocationID   uuid.UUID       `json:"location_id"`
	LocationName string          `json:"location_name"`
	Amount       decimal.Decimal `json:"amount"`
	ActorID      uuid.UUID       `json:"actor_id"`
}

// NewPaymentRevertedEvent creates a new PaymentRevertedEvent
func NewPaymentRevertedEvent(invoiceID, clientID uuid.UUID, movement *MoneyMovement, location *MoneyLocation, actorID uuid.UUID) *PaymentRevertedEvent {
	return &PaymentRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReverted, AggregateTypeInvoice, invoiceID),
		InvoiceID:       invoiceID,
		ClientID:        clientID,
		MovementID:      movement.ID,
		LocationID:      location.ID,
		LocationName:    location.Name,
		Amount:          movement.Amount,
		ActorID:         actorID,
	}
}
