package invoicing

import (
	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
)

const AggregateTypeInvoice = "Invoice"

const EventTypeInvoiceStatusSynchronized = "InvoiceStatusSynchronized"

// InvoiceStatusSynchronizedEvent is raised when a report status change rewrote an invoice's payment status
type InvoiceStatusSynchronizedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID     `json:"invoice_id"`
	InvoiceNumber  string        `json:"invoice_number"`
	ClientID       uuid.UUID     `json:"client_id"`
	ReportID       uuid.UUID     `json:"report_id"`
	PreviousStatus PaymentStatus `json:"previous_status"`
	NewStatus      PaymentStatus `json:"new_status"`
	ActorID        uuid.UUID     `json:"actor_id"`
}

// NewInvoiceStatusSynchronizedEvent creates a new InvoiceStatusSynchronizedEvent
func NewInvoiceStatusSynchronizedEvent(invoice *Invoice, reportID uuid.UUID, previous PaymentStatus, actorID uuid.UUID) *InvoiceStatusSynchronizedEvent {
	return &InvoiceStatusSynchronizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusSynchronized, AggregateTypeInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		ClientID:        invoice.ClientID,
		ReportID:        reportID,
		PreviousStatus:  previous,
		NewStatus:       invoice.PaymentStatus,
		ActorID:         actorID,
	}
}
