package event

import (
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
)

// RegisterDomainEvents registers every event the ledger writes to the outbox
func RegisterDomainEvents(s *EventSerializer) {
	RegisterEvent[finance.PaymentRecordedEvent](s, finance.EventTypePaymentRecorded)
	RegisterEvent[finance.PaymentRevertedEvent](s, finance.EventTypePaymentReverted)
	RegisterEvent[invoicing.InvoiceStatusSynchronizedEvent](s, invoicing.EventTypeInvoiceStatusSynchronized)
}
