package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultLocationMethod is the method used to find a location when nothing better is known
const DefaultLocationMethod = "cash"

// PaymentLifecycle books and reverses invoice payments in the ledger.
//
// It does not guard against being called twice: recording the same invoice twice without a
// revert in between counts the revenue twice. StatusSynchronizer only calls it on real transitions.
type PaymentLifecycle struct {
	locations     *LocationStore
	recorder      *MovementRecorder
	logger        *zap.Logger
	metrics       *telemetry.LedgerMetrics
	defaultMethod string
	now           func() time.Time
}

// PaymentLifecycleOption configures a PaymentLifecycle
type PaymentLifecycleOption func(*PaymentLifecycle)

// WithDefaultMethod sets the method used for reversal fallback
func WithDefaultMethod(method string) PaymentLifecycleOption {
	return func(p *PaymentLifecycle) {
		if method != "" {
			p.defaultMethod = method
		}
	}
}

// WithClock overrides the clock used to stamp payment dates
func WithClock(now func() time.Time) PaymentLifecycleOption {
	return func(p *PaymentLifecycle) {
		p.now = now
	}
}

// NewPaymentLifecycle creates a new PaymentLifecycle
func NewPaymentLifecycle(locations *LocationStore, recorder *MovementRecorder, logger *zap.Logger, opts ...PaymentLifecycleOption) *PaymentLifecycle {
	p := &PaymentLifecycle{
		locations:     locations,
		recorder:      recorder,
		logger:        logger,
		defaultMethod: DefaultLocationMethod,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetLedgerMetrics sets the ledger metrics collector
func (p *PaymentLifecycle) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	p.metrics = m
}

// DefaultMethod returns the configured default payment method
func (p *PaymentLifecycle) DefaultMethod() string {
	return p.defaultMethod
}

// RecordPayment credits the invoice total to the location resolved from method and stamps the
// invoice with the method, location and payment date. A zero-value invoice is a no-op and
// returns a nil movement.
func (p *PaymentLifecycle) RecordPayment(ctx context.Context, repos TransactionalRepositories, invoiceID uuid.UUID, method string, actorID uuid.UUID) (*finance.MoneyMovement, error) {
	invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.HasPayableAmount() {
		logger.Ctx(ctx, p.logger).Debug("invoice has no payable amount, skipping payment",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("total", invoice.Total.String()),
		)
		p.metrics.RecordPayment(ctx, telemetry.PaymentOutcomeSkipped)
		return nil, nil
	}

	location, err := p.locations.ResolveLocationForMethod(ctx, repos, method)
	if err != nil {
		return nil, err
	}

	refID := invoice.ID
	movement, err := p.recorder.Record(ctx, repos, RecordMovementInput{
		Type:          finance.MovementTypePaymentReceived,
		Amount:        invoice.Total,
		ToID:          &location.ID,
		ReferenceType: finance.ReferenceTypeInvoice,
		ReferenceID:   &refID,
		Description:   fmt.Sprintf("Payment received for invoice %s", invoice.InvoiceNumber),
		ActorID:       actorID,
	})
	if err != nil {
		return nil, err
	}

	invoice.StampPayment(method, location.ID, p.now())
	if err := repos.Invoices().SavePayment(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to stamp invoice payment: %w", err)
	}

	if err := repos.Events().Record(ctx, finance.NewPaymentRecordedEvent(invoice.ID, invoice.ClientID, movement, location, method, actorID)); err != nil {
		return nil, fmt.Errorf("failed to record payment event: %w", err)
	}

	p.metrics.RecordPayment(ctx, telemetry.PaymentOutcomeRecorded)
	logger.Ctx(ctx, p.logger).Info("invoice payment recorded",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("amount", invoice.Total.String()),
		zap.String("location_id", location.ID.String()),
		zap.String("method", method),
	)
	return movement, nil
}

// RevertPayment debits the invoice total from the location that was credited when it was paid.
// Invoices paid before the location id was stored, or whose location is gone or inactive, are
// reverted against the default method's location. A zero-value invoice is a no-op.
func (p *PaymentLifecycle) RevertPayment(ctx context.Context, repos TransactionalRepositories, invoiceID uuid.UUID, actorID uuid.UUID) (*finance.MoneyMovement, error) {
	invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.HasPayableAmount() {
		logger.Ctx(ctx, p.logger).Debug("invoice has no payable amount, skipping reversal",
			zap.String("invoice_id", invoiceID.String()),
		)
		p.metrics.RecordPayment(ctx, telemetry.PaymentOutcomeSkipped)
		return nil, nil
	}

	location, err := p.reversalLocation(ctx, repos, invoice)
	if err != nil {
		return nil, err
	}

	refID := invoice.ID
	movement, err := p.recorder.Record(ctx, repos, RecordMovementInput{
		Type:          finance.MovementTypeWithdrawal,
		Amount:        invoice.Total,
		FromID:        &location.ID,
		ReferenceType: finance.ReferenceTypeInvoice,
		ReferenceID:   &refID,
		Description:   fmt.Sprintf("Payment reverted for invoice %s", invoice.InvoiceNumber),
		ActorID:       actorID,
	})
	if err != nil {
		return nil, err
	}

	if err := repos.Events().Record(ctx, finance.NewPaymentRevertedEvent(invoice.ID, invoice.ClientID, movement, location, actorID)); err != nil {
		return nil, fmt.Errorf("failed to record payment reverted event: %w", err)
	}

	p.metrics.RecordPayment(ctx, telemetry.PaymentOutcomeReverted)
	logger.Ctx(ctx, p.logger).Info("invoice payment reverted",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("amount", invoice.Total.String()),
		zap.String("location_id", location.ID.String()),
	)
	return movement, nil
}

func (p *PaymentLifecycle) reversalLocation(ctx context.Context, repos TransactionalRepositories, invoice *invoicing.Invoice) (*finance.MoneyLocation, error) {
	location, err := p.locations.ResolveLocationByID(ctx, repos, invoice.MoneyLocationID)
	if err != nil {
		return nil, err
	}
	if location != nil && location.IsActive {
		return location, nil
	}
	logger.Ctx(ctx, p.logger).Warn("credited location unknown or inactive, reverting against default location",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("stored_location_id", idString(invoice.MoneyLocationID)),
	)
	return p.locations.ResolveLocationForMethod(ctx, repos, p.defaultMethod)
}
