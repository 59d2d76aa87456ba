package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestLedgerMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordMovement(ctx, finance.MovementTypePaymentReceived, decimal.RequireFromString("500.25"))
	m.RecordMovement(ctx, finance.MovementTypeWithdrawal, decimal.NewFromInt(100))
	m.RecordPayment(ctx, PaymentOutcomeRecorded)
	m.RecordSyncFailure(ctx)
	m.RecordLinks(ctx, "direct_item_reference", 3, false)
	m.RecordLinks(ctx, "serial_number", 0, false)
	m.RecordReconciliationRun(ctx, 2*time.Second, true)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics["repair_ledger_movements_total"]))
	assert.Equal(t, int64(60025), sumOf(t, metrics["repair_ledger_movement_amount_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["repair_invoice_payments_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["repair_status_sync_failures_total"]))
	assert.Equal(t, int64(3), sumOf(t, metrics["repair_reconciliation_links_total"]))
	assert.Contains(t, metrics, "repair_reconciliation_duration_seconds")
}

func TestLedgerMetrics_NilIsSafe(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.RecordMovement(context.Background(), finance.MovementTypeDeposit, decimal.NewFromInt(1))
		m.RecordPayment(context.Background(), PaymentOutcomeSkipped)
		m.RecordLinks(context.Background(), "x", 1, true)
	})
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false, ServiceName: "test"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("x"))
	assert.NotNil(t, p.Tracer("x"))

	base := zap.NewNop()
	assert.Same(t, base, p.BridgeLogger(base, 0))
	assert.NoError(t, p.Shutdown(context.Background()))
}
