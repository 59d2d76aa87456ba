package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LedgerAction is what a synchronised invoice did to the ledger
type LedgerAction string

const (
	LedgerActionNone     LedgerAction = "none"
	LedgerActionRecorded LedgerAction = "recorded"
	LedgerActionReverted LedgerAction = "reverted"
)

// InvoiceSync describes one invoice touched by a report status change
type InvoiceSync struct {
	InvoiceID      uuid.UUID
	PreviousStatus invoicing.PaymentStatus
	NewStatus      invoicing.PaymentStatus
	Action         LedgerAction
}

// SyncFailure is an invoice that could not be synchronised. Its own changes were rolled back.
type SyncFailure struct {
	InvoiceID uuid.UUID
	Err       error
}

// SyncResult summarises a call to OnReportStatusChanged
type SyncResult struct {
	ReportID  uuid.UUID
	Skipped   bool // canonical status unchanged, or no invoice mapping for the new status
	Updated   []InvoiceSync
	Unchanged []uuid.UUID
	Failures  []SyncFailure
}

// Recorded returns how many payments were booked
func (r SyncResult) Recorded() int {
	return r.count(LedgerActionRecorded)
}

// Reverted returns how many payments were reversed
func (r SyncResult) Reverted() int {
	return r.count(LedgerActionReverted)
}

func (r SyncResult) count(action LedgerAction) int {
	n := 0
	for _, u := range r.Updated {
		if u.Action == action {
			n++
		}
	}
	return n
}

// desiredPaymentStatus maps a canonical report status to the invoice payment status it forces.
// Shipped forces nothing.
func desiredPaymentStatus(status inspection.ReportStatus) (invoicing.PaymentStatus, bool) {
	switch status {
	case inspection.ReportStatusCompleted:
		return invoicing.PaymentStatusCompleted, true
	case inspection.ReportStatusCancelled:
		return invoicing.PaymentStatusCancelled, true
	case inspection.ReportStatusPending:
		return invoicing.PaymentStatusPending, true
	}
	return "", false
}

// StatusSynchronizer propagates report status transitions to linked invoices and their payments.
// Ledger writes follow PaymentStatus.IsSettled, under which legacy "paid" counts as settled:
// paid to completed books nothing, and paid to any unsettled status reverts the payment.
type StatusSynchronizer struct {
	payments *PaymentLifecycle
	logger   *zap.Logger
	metrics  *telemetry.LedgerMetrics
}

// NewStatusSynchronizer creates a new StatusSynchronizer
func NewStatusSynchronizer(payments *PaymentLifecycle, logger *zap.Logger) *StatusSynchronizer {
	return &StatusSynchronizer{payments: payments, logger: logger}
}

// SetLedgerMetrics sets the ledger metrics collector
func (s *StatusSynchronizer) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// OnReportStatusChanged updates every invoice linked to the report when its canonical status changes.
//
// Each invoice is handled in its own savepoint: the status field update and the ledger write
// commit or roll back together, and a failing invoice is logged and reported in the result
// without affecting the report update or the other invoices. The method itself never fails.
func (s *StatusSynchronizer) OnReportStatusChanged(
	ctx context.Context,
	repos TransactionalRepositories,
	report *inspection.Report,
	oldStatus, newStatus inspection.ReportStatus,
	actorID uuid.UUID,
) SyncResult {
	result := SyncResult{ReportID: report.ID}
	if oldStatus == newStatus {
		result.Skipped = true
		return result
	}
	desired, ok := desiredPaymentStatus(newStatus)
	if !ok {
		result.Skipped = true
		return result
	}

	invoiceIDs, err := s.linkedInvoices(ctx, repos, report)
	if err != nil {
		logger.Ctx(ctx, s.logger).Error("failed to resolve invoices linked to report",
			zap.String("report_id", report.ID.String()),
			zap.Error(err),
		)
		result.Failures = append(result.Failures, SyncFailure{Err: err})
		s.metrics.RecordSyncFailure(ctx)
		return result
	}

	for _, invoiceID := range invoiceIDs {
		var sync *InvoiceSync
		err := repos.Savepoint(ctx, func(sp TransactionalRepositories) error {
			var err error
			sync, err = s.syncInvoice(ctx, sp, report.ID, invoiceID, desired, actorID)
			return err
		})
		switch {
		case err != nil:
			logger.Ctx(ctx, s.logger).Error("failed to synchronise invoice with report status",
				zap.String("report_id", report.ID.String()),
				zap.String("invoice_id", invoiceID.String()),
				zap.String("new_status", newStatus.String()),
				zap.Error(err),
			)
			s.metrics.RecordSyncFailure(ctx)
			result.Failures = append(result.Failures, SyncFailure{InvoiceID: invoiceID, Err: err})
		case sync == nil:
			result.Unchanged = append(result.Unchanged, invoiceID)
		default:
			result.Updated = append(result.Updated, *sync)
		}
	}

	logger.Ctx(ctx, s.logger).Info("report status synchronised to invoices",
		zap.String("report_id", report.ID.String()),
		zap.String("old_status", oldStatus.String()),
		zap.String("new_status", newStatus.String()),
		zap.Int("linked_invoices", len(invoiceIDs)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("payments_recorded", result.Recorded()),
		zap.Int("payments_reverted", result.Reverted()),
		zap.Int("failures", len(result.Failures)),
	)
	return result
}

// syncInvoice returns nil when the invoice already has the desired status.
func (s *StatusSynchronizer) syncInvoice(
	ctx context.Context,
	repos TransactionalRepositories,
	reportID, invoiceID uuid.UUID,
	desired invoicing.PaymentStatus,
	actorID uuid.UUID,
) (*InvoiceSync, error) {
	invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.PaymentStatus == desired {
		return nil, nil
	}

	previous, err := invoice.ChangePaymentStatus(desired)
	if err != nil {
		return nil, err
	}
	if err := repos.Invoices().SavePayment(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice status: %w", err)
	}

	sync := &InvoiceSync{InvoiceID: invoiceID, PreviousStatus: previous, NewStatus: desired, Action: LedgerActionNone}
	switch {
	case desired.IsSettled() && !previous.IsSettled():
		method := invoice.PaymentMethod
		if method == "" {
			method = s.payments.DefaultMethod()
		}
		if _, err := s.payments.RecordPayment(ctx, repos, invoiceID, method, actorID); err != nil {
			return nil, err
		}
		sync.Action = LedgerActionRecorded
	case previous.IsSettled() && !desired.IsSettled():
		if _, err := s.payments.RevertPayment(ctx, repos, invoiceID, actorID); err != nil {
			return nil, err
		}
		sync.Action = LedgerActionReverted
	}

	if err := repos.Events().Record(ctx, invoicing.NewInvoiceStatusSynchronizedEvent(invoice, reportID, previous, actorID)); err != nil {
		return nil, fmt.Errorf("failed to record status event: %w", err)
	}
	return sync, nil
}

// linkedInvoices returns the distinct invoices tied to the report through its direct invoice
// reference, invoice items pointing at it, and junction rows. Order is stable: direct first.
func (s *StatusSynchronizer) linkedInvoices(ctx context.Context, repos TransactionalRepositories, report *inspection.Report) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, 2)
	add := func(id uuid.UUID) {
		if id == uuid.Nil {
			return
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if report.InvoiceID != nil {
		add(*report.InvoiceID)
	}
	viaItems, err := repos.Invoices().FindIDsByItemReport(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoices by item: %w", err)
	}
	for _, id := range viaItems {
		add(id)
	}
	links, err := repos.Links().FindByReport(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice links: %w", err)
	}
	for _, l := range links {
		add(l.InvoiceID)
	}
	return ids, nil
}
