package integration

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/application/reconciliation"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/event"
	"github.com/repairshop/backend/internal/infrastructure/persistence"
	"github.com/repairshop/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

var (
	t0       = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	clientID = testutil.NewTestUUID("integration-client")
	actorID  = testutil.TestActorID()
)

// services wires the finance services the way the server does, outbox included
type services struct {
	db       *gorm.DB
	fx       *testutil.Fixtures
	ledger   *appfinance.LedgerService
	audit    *appfinance.LedgerAuditService
	reports  *appfinance.ReportStatusService
	invoices *appfinance.InvoicePaymentService
	engine   *reconciliation.Engine
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := NewSharedTestDB(t)
	logger := zap.NewNop()

	serializer := event.NewEventSerializer()
	event.RegisterDomainEvents(serializer)
	scope := persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(serializer, 5))

	store := appfinance.NewLocationStore(logger)
	recorder := appfinance.NewMovementRecorder(logger)
	payments := appfinance.NewPaymentLifecycle(store, recorder, logger)

	return &services{
		db:       db,
		fx:       testutil.NewFixtures(t, db),
		ledger:   appfinance.NewLedgerService(scope, recorder, logger),
		audit:    appfinance.NewLedgerAuditService(scope, logger),
		reports:  appfinance.NewReportStatusService(scope, appfinance.NewStatusSynchronizer(payments, logger), logger),
		invoices: appfinance.NewInvoicePaymentService(scope, payments, logger),
		engine:   reconciliation.NewEngine(persistence.NewGormReconciliationStore(db), logger),
	}
}

func (s *services) outboxEventTypes(t *testing.T) []string {
	t.Helper()
	var types []string
	require.NoError(t, s.db.Raw(`SELECT event_type FROM outbox_events ORDER BY created_at`).Scan(&types).Error)
	return types
}

func TestConcurrentDepositsKeepBalanceConsistent(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	cash := s.fx.Location("Cash drawer", "", finance.LocationTypeCash, t0)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ledger.Deposit(ctx, appfinance.ManualMovementRequest{
				LocationID: cash.ID,
				Amount:     decimal.NewFromInt(10),
				ActorID:    actorID,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, decimal.NewFromInt(200).Equal(s.fx.Balance(cash.ID)), "balance %s", s.fx.Balance(cash.ID))

	discrepancies, err := s.audit.VerifyBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestReportCompletionBooksPaymentThroughOutbox(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	cash := s.fx.Location("Cash drawer", "", finance.LocationTypeCash, t0)

	pending := "pending"
	report := s.fx.Report(clientID, "SN-PG-1", t0, &pending)
	invoice := s.fx.Invoice(clientID, "INV-PG-1", invoicing.PaymentStatusPending, &report.ID, 300, 200)
	s.fx.LinkReportToInvoice(report.ID, invoice.ID)

	result, err := s.reports.UpdateStatus(ctx, report.ID, "Completed", actorID)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, inspection.ReportStatusCompleted, result.Status)
	assert.Equal(t, 1, result.Sync.Recorded())

	assert.True(t, decimal.NewFromInt(500).Equal(s.fx.Balance(cash.ID)))
	assert.Equal(t, int64(1), s.fx.MovementCount(invoice.ID))
	assert.Contains(t, s.outboxEventTypes(t), finance.EventTypePaymentRecorded)

	// Same status again is a no-op: no second booking
	again, err := s.reports.UpdateStatus(ctx, report.ID, "done", actorID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, int64(1), s.fx.MovementCount(invoice.ID))

	change, err := s.invoices.ChangePaymentStatus(ctx, appfinance.ChangePaymentStatusRequest{
		InvoiceID: invoice.ID,
		Status:    invoicing.PaymentStatusUnpaid,
		ActorID:   actorID,
	})
	require.NoError(t, err)
	assert.Equal(t, appfinance.LedgerActionReverted, change.Action)
	assert.True(t, s.fx.Balance(cash.ID).IsZero())
	assert.Contains(t, s.outboxEventTypes(t), finance.EventTypePaymentReverted)
}

func TestConcurrentLinkInsertsCreateOneRow(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	report := s.fx.Report(clientID, "SN-PG-2", t0, nil)
	invoice := s.fx.Invoice(clientID, "INV-PG-2", invoicing.PaymentStatusPending, nil, 100)
	links := persistence.NewGormLinkRepository(s.db)

	const workers = 8
	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := links.Link(ctx, invoicing.NewInvoiceReport(invoice.ID, report.ID, invoicing.LinkSourceReconciliation))
			assert.NoError(t, err)
			if ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int64(1), s.fx.LinkCount())
}

func TestReconciliationFixOnPostgres(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	report := s.fx.Report(clientID, "SN-PG-3", t0, nil)
	s.fx.Invoice(clientID, "INV-PG-3", invoicing.PaymentStatusPending, &report.ID, 150)

	analysis, err := s.engine.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), analysis.Counts.Links)
	require.Len(t, analysis.ItemsUnlinked, 1)

	preview, err := s.engine.FixLinking(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.TotalLinked())
	assert.Equal(t, int64(0), s.fx.LinkCount())

	result, err := s.engine.FixLinking(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalLinked())
	assert.Equal(t, int64(1), s.fx.LinkCount())

	rerun, err := s.engine.FixLinking(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, rerun.TotalLinked())
}
