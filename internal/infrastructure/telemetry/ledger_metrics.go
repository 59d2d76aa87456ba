package telemetry

import (
	"context"
	"time"

	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// PaymentOutcome labels payment lifecycle counters
type PaymentOutcome string

const (
	PaymentOutcomeRecorded PaymentOutcome = "recorded"
	PaymentOutcomeReverted PaymentOutcome = "reverted"
	PaymentOutcomeSkipped  PaymentOutcome = "skipped" // zero-value invoice
)

// LedgerMetrics counts ledger and reconciliation activity.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	movements        *Counter
	movementAmount   *Counter
	payments         *Counter
	syncFailures     *Counter
	linksCreated     *Counter
	reconcileRunTime *Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	set := Instruments(meter)
	m := &LedgerMetrics{
		movements:        set.Counter("repair_ledger_movements_total", "Money movements recorded", "{movements}"),
		movementAmount:   set.Counter("repair_ledger_movement_amount_total", "Money moved, in cents", "{cents}"),
		payments:         set.Counter("repair_invoice_payments_total", "Invoice payment lifecycle operations", "{payments}"),
		syncFailures:     set.Counter("repair_status_sync_failures_total", "Invoice updates that failed during report status synchronisation", "{invoices}"),
		linksCreated:     set.Counter("repair_reconciliation_links_total", "Invoice/report links created or planned by reconciliation", "{links}"),
		reconcileRunTime: set.Histogram("repair_reconciliation_duration_seconds", "Duration of reconciliation runs", "s", BatchDurationBuckets...),
	}
	if err := set.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMovement counts one movement and its amount.
func (m *LedgerMetrics) RecordMovement(ctx context.Context, movementType finance.MovementType, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attr := AttrMovementType.String(movementType.String())
	m.movements.Inc(ctx, attr)
	m.movementAmount.Add(ctx, amount.Shift(2).IntPart(), attr)
}

// RecordPayment counts a payment lifecycle operation.
func (m *LedgerMetrics) RecordPayment(ctx context.Context, outcome PaymentOutcome) {
	if m == nil {
		return
	}
	m.payments.Inc(ctx, AttrOutcome.String(string(outcome)))
}

// RecordSyncFailure counts an invoice that could not be synchronised.
func (m *LedgerMetrics) RecordSyncFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.syncFailures.Inc(ctx)
}

// RecordLinks counts links produced by one strategy.
func (m *LedgerMetrics) RecordLinks(ctx context.Context, strategy string, count int, dryRun bool) {
	if m == nil || count == 0 {
		return
	}
	m.linksCreated.Add(ctx, int64(count), AttrStrategy.String(strategy), AttrDryRun.Bool(dryRun))
}

// RecordReconciliationRun records how long a run took.
func (m *LedgerMetrics) RecordReconciliationRun(ctx context.Context, d time.Duration, dryRun bool) {
	if m == nil {
		return
	}
	m.reconcileRunTime.RecordDuration(ctx, d, AttrDryRun.Bool(dryRun))
}
