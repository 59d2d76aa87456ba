// Package notification turns committed ledger events into client notifications.
// It runs after the ledger transaction commits and never touches the ledger.
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind says what happened to the client's money
type Kind string

const (
	KindPaymentReceived Kind = "payment_received"
	KindPaymentReverted Kind = "payment_reverted"
)

// Message is one notification for a client
type Message struct {
	// EventID identifies the ledger event; dispatchers use it to drop duplicates
	EventID      uuid.UUID       `json:"event_id"`
	Kind         Kind            `json:"kind"`
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	ClientID     uuid.UUID       `json:"client_id"`
	Amount       decimal.Decimal `json:"amount"`
	LocationName string          `json:"location_name"`
	Method       string          `json:"method,omitempty"`
}

// Dispatcher hands a message to the delivery channel
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// PaymentNotificationHandler tells clients about recorded and reverted payments
type PaymentNotificationHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewPaymentNotificationHandler creates a new PaymentNotificationHandler
func NewPaymentNotificationHandler(dispatcher Dispatcher, logger *zap.Logger) *PaymentNotificationHandler {
	return &PaymentNotificationHandler{dispatcher: dispatcher, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *PaymentNotificationHandler) EventTypes() []string {
	return []string{finance.EventTypePaymentRecorded, finance.EventTypePaymentReverted}
}

// Handle implements shared.EventHandler
func (h *PaymentNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var msg Message
	switch e := event.(type) {
	case *finance.PaymentRecordedEvent:
		msg = Message{
			Kind:         KindPaymentReceived,
			InvoiceID:    e.InvoiceID,
			ClientID:     e.ClientID,
			Amount:       e.Amount,
			LocationName: e.LocationName,
			Method:       e.Method,
		}
	case *finance.PaymentRevertedEvent:
		msg = Message{
			Kind:         KindPaymentReverted,
			InvoiceID:    e.InvoiceID,
			ClientID:     e.ClientID,
			Amount:       e.Amount,
			LocationName: e.LocationName,
		}
	default:
		h.logger.Debug("ignoring event", zap.String("event_type", event.EventType()))
		return nil
	}
	msg.EventID = event.EventID()

	if err := h.dispatcher.Dispatch(ctx, msg); err != nil {
		return fmt.Errorf("dispatch %s notification for invoice %s: %w", msg.Kind, msg.InvoiceID, err)
	}
	h.logger.Info("payment notification dispatched",
		zap.String("kind", string(msg.Kind)),
		zap.String("invoice_id", msg.InvoiceID.String()),
		zap.String("amount", msg.Amount.String()),
	)
	return nil
}

var _ shared.EventHandler = (*PaymentNotificationHandler)(nil)
