package finance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/persistence"
	"github.com/repairshop/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	t0       = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	clientID = testutil.NewTestUUID("client")
	actorID  = testutil.TestActorID()
)

// ledger wires the finance services over an in-memory database
type ledger struct {
	db       *gorm.DB
	fx       *testutil.Fixtures
	scope    appfinance.TransactionScope
	store    *appfinance.LocationStore
	payments *appfinance.PaymentLifecycle
	reports  *appfinance.ReportStatusService
	service  *appfinance.LedgerService
	audit    *appfinance.LedgerAuditService
	invoices *appfinance.InvoicePaymentService
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return newLedgerWithScope(t, db, persistence.NewGormTransactionScope(db, nil))
}

func newLedgerWithScope(t *testing.T, db *gorm.DB, scope appfinance.TransactionScope) *ledger {
	t.Helper()
	logger := zap.NewNop()
	store := appfinance.NewLocationStore(logger)
	recorder := appfinance.NewMovementRecorder(logger)
	payments := appfinance.NewPaymentLifecycle(store, recorder, logger,
		appfinance.WithClock(func() time.Time { return t0 }))
	sync := appfinance.NewStatusSynchronizer(payments, logger)

	return &ledger{
		db:       db,
		fx:       testutil.NewFixtures(t, db),
		scope:    scope,
		store:    store,
		payments: payments,
		reports:  appfinance.NewReportStatusService(scope, sync, logger),
		service:  appfinance.NewLedgerService(scope, recorder, logger),
		audit:    appfinance.NewLedgerAuditService(scope, logger),
		invoices: appfinance.NewInvoicePaymentService(scope, payments, logger),
	}
}

func (l *ledger) invoice(t *testing.T, id uuid.UUID) *invoicing.Invoice {
	t.Helper()
	var inv *invoicing.Invoice
	require.NoError(t, l.scope.Execute(context.Background(), func(repos appfinance.TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(context.Background(), id)
		return err
	}))
	return inv
}

var errInjected = errors.New("injected failure")

// failingScope decorates a scope so that saving the payment columns of one invoice fails
type failingScope struct {
	inner     appfinance.TransactionScope
	invoiceID uuid.UUID
}

func (s failingScope) Execute(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
		return fn(failingRepos{TransactionalRepositories: repos, invoiceID: s.invoiceID})
	})
}

type failingRepos struct {
	appfinance.TransactionalRepositories
	invoiceID uuid.UUID
}

func (r failingRepos) Invoices() invoicing.InvoiceRepository {
	return failingInvoices{InvoiceRepository: r.TransactionalRepositories.Invoices(), invoiceID: r.invoiceID}
}

func (r failingRepos) Savepoint(ctx context.Context, fn func(repos appfinance.TransactionalRepositories) error) error {
	return r.TransactionalRepositories.Savepoint(ctx, func(sp appfinance.TransactionalRepositories) error {
		return fn(failingRepos{TransactionalRepositories: sp, invoiceID: r.invoiceID})
	})
}

type failingInvoices struct {
	invoicing.InvoiceRepository
	invoiceID uuid.UUID
}

func (r failingInvoices) SavePayment(ctx context.Context, inv *invoicing.Invoice) error {
	if inv.ID == r.invoiceID {
		return errInjected
	}
	return r.InvoiceRepository.SavePayment(ctx, inv)
}
