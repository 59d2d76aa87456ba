package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ChangePaymentStatusRequest sets an invoice payment status directly, as the invoice edit
// screen does. Method is only used when the change settles the invoice.
type ChangePaymentStatusRequest struct {
	InvoiceID uuid.UUID
	Status    invoicing.PaymentStatus
	Method    string
	ActorID   uuid.UUID
}

// PaymentStatusChange is the outcome of ChangePaymentStatus
type PaymentStatusChange struct {
	InvoiceID      uuid.UUID
	PreviousStatus invoicing.PaymentStatus
	Status         invoicing.PaymentStatus
	Action         LedgerAction
	Movement       *finance.MoneyMovement
}

// InvoicePaymentService changes invoice payment status outside the report workflow. Settling
// and unsettling an invoice books and reverses its total exactly like a report status change does.
type InvoicePaymentService struct {
	scope    TransactionScope
	payments *PaymentLifecycle
	logger   *zap.Logger
}

// NewInvoicePaymentService creates a new InvoicePaymentService
func NewInvoicePaymentService(scope TransactionScope, payments *PaymentLifecycle, logger *zap.Logger) *InvoicePaymentService {
	return &InvoicePaymentService{scope: scope, payments: payments, logger: logger}
}

// ChangePaymentStatus stores the status and books the ledger side effect in one transaction.
// Setting the status the invoice already has changes nothing.
func (s *InvoicePaymentService) ChangePaymentStatus(ctx context.Context, req ChangePaymentStatusRequest) (*PaymentStatusChange, error) {
	change := &PaymentStatusChange{InvoiceID: req.InvoiceID, Status: req.Status, Action: LedgerActionNone}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.Invoices().FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		previous, err := invoice.ChangePaymentStatus(req.Status)
		if err != nil {
			return err
		}
		change.PreviousStatus = previous
		if previous == req.Status {
			return nil
		}
		if err := repos.Invoices().SavePayment(ctx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice status: %w", err)
		}

		switch {
		case req.Status.IsSettled() && !previous.IsSettled():
			change.Movement, err = s.payments.RecordPayment(ctx, repos, invoice.ID, s.method(req.Method, invoice), req.ActorID)
			change.Action = LedgerActionRecorded
		case previous.IsSettled() && !req.Status.IsSettled():
			change.Movement, err = s.payments.RevertPayment(ctx, repos, invoice.ID, req.ActorID)
			change.Action = LedgerActionReverted
		}
		return err
	})
	if err != nil {
		logger.Ctx(ctx, s.logger).Warn("invoice payment status change failed",
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.String("status", req.Status.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return change, nil
}

// method picks the requested method, then the one stored on the invoice, then the default
func (s *InvoicePaymentService) method(requested string, invoice *invoicing.Invoice) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	if invoice.PaymentMethod != "" {
		return invoice.PaymentMethod
	}
	return s.payments.DefaultMethod()
}
