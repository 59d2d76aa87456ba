package finance_test

import (
	"context"
	"testing"

	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangePaymentStatus_SettleAndUnsettle(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	cash := l.fx.Location("Cash", "", finance.LocationTypeCash, t0)
	bank := l.fx.Location("Bank Transfer", "", finance.LocationTypeBank, t0.Add(1))
	inv := l.fx.Invoice(clientID, "INV-100", invoicing.PaymentStatusPending, nil, 300, 200)

	change, err := l.invoices.ChangePaymentStatus(ctx, appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: invoicing.PaymentStatusPaid, Method: "bank", ActorID: actorID,
	})
	require.NoError(t, err)
	assert.Equal(t, invoicing.PaymentStatusPending, change.PreviousStatus)
	assert.Equal(t, appfinance.LedgerActionRecorded, change.Action)
	require.NotNil(t, change.Movement)
	assert.Equal(t, finance.MovementTypePaymentReceived, change.Movement.MovementType)
	assert.True(t, l.fx.Balance(bank.ID).Equal(decimal.NewFromInt(500)))
	assert.True(t, l.fx.Balance(cash.ID).IsZero())

	stored := l.invoice(t, inv.ID)
	assert.Equal(t, invoicing.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "bank", stored.PaymentMethod)

	change, err = l.invoices.ChangePaymentStatus(ctx, appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: invoicing.PaymentStatusUnpaid, ActorID: actorID,
	})
	require.NoError(t, err)
	assert.Equal(t, appfinance.LedgerActionReverted, change.Action)
	assert.True(t, l.fx.Balance(bank.ID).IsZero(), "reversal hits the credited location")
	assert.Equal(t, int64(2), l.fx.MovementCount(inv.ID))
}

func TestChangePaymentStatus_BetweenSettledStatusesMovesNoMoney(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	cash := l.fx.Location("Cash", "", finance.LocationTypeCash, t0)
	inv := l.fx.Invoice(clientID, "INV-101", invoicing.PaymentStatusPending, nil, 100)

	_, err := l.invoices.ChangePaymentStatus(ctx, appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: invoicing.PaymentStatusCompleted,
	})
	require.NoError(t, err)

	change, err := l.invoices.ChangePaymentStatus(ctx, appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: invoicing.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, appfinance.LedgerActionNone, change.Action)
	assert.Nil(t, change.Movement)
	assert.True(t, l.fx.Balance(cash.ID).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(1), l.fx.MovementCount(inv.ID))
}

func TestChangePaymentStatus_SameStatusIsNoOp(t *testing.T) {
	l := newLedger(t)
	l.fx.Location("Cash", "", finance.LocationTypeCash, t0)
	inv := l.fx.Invoice(clientID, "INV-102", invoicing.PaymentStatusUnpaid, nil, 100)

	change, err := l.invoices.ChangePaymentStatus(context.Background(), appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: invoicing.PaymentStatusUnpaid,
	})
	require.NoError(t, err)
	assert.Equal(t, appfinance.LedgerActionNone, change.Action)
	assert.Equal(t, int64(0), l.fx.MovementCount(inv.ID))
}

func TestChangePaymentStatus_Errors(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	inv := l.fx.Invoice(clientID, "INV-103", invoicing.PaymentStatusPending, nil, 100)

	_, err := l.invoices.ChangePaymentStatus(ctx, appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: "refunded",
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PAYMENT_STATUS", domainErr.Code)

	// no location to credit: the status change is rolled back with the payment
	_, err = l.invoices.ChangePaymentStatus(ctx, appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: invoicing.PaymentStatusPaid,
	})
	assert.ErrorIs(t, err, finance.ErrNoActiveLocation)
	assert.Equal(t, invoicing.PaymentStatusPending, l.invoice(t, inv.ID).PaymentStatus)
}

func TestChangePaymentStatus_FailedSaveLeavesLedgerUntouched(t *testing.T) {
	l := newLedger(t)
	cash := l.fx.Location("Cash", "", finance.LocationTypeCash, t0)
	inv := l.fx.Invoice(clientID, "INV-104", invoicing.PaymentStatusPending, nil, 100)
	failing := newLedgerWithScope(t, l.db, failingScope{inner: persistence.NewGormTransactionScope(l.db, nil), invoiceID: inv.ID})

	_, err := failing.invoices.ChangePaymentStatus(context.Background(), appfinance.ChangePaymentStatusRequest{
		InvoiceID: inv.ID, Status: invoicing.PaymentStatusPaid,
	})
	assert.ErrorIs(t, err, errInjected)
	assert.True(t, l.fx.Balance(cash.ID).IsZero())
	assert.Equal(t, int64(0), l.fx.MovementCount(inv.ID))
}
