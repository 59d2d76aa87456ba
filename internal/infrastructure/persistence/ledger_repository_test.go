package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newLedgerRepos(t *testing.T) (*gorm.DB, *GormLocationRepository, *GormMovementRepository, *testutil.Fixtures) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return db, NewGormLocationRepository(db), NewGormMovementRepository(db), testutil.NewFixtures(t, db)
}

func deposit(t *testing.T, to uuid.UUID, amount int64) *finance.MoneyMovement {
	t.Helper()
	m, err := finance.NewMoneyMovement(finance.MovementTypeDeposit, decimal.NewFromInt(amount), nil, &to)
	require.NoError(t, err)
	return m
}

func TestGormLocationRepository_FindByID(t *testing.T) {
	_, repo, _, fx := newLedgerRepos(t)
	ctx := context.Background()
	loc := fx.Location("Cash Drawer", "الصندوق", finance.LocationTypeCash, baseTime)

	found, err := repo.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cash Drawer", found.Name)
	assert.Equal(t, "الصندوق", found.NameAr)
	assert.True(t, found.IsActive)
	assert.True(t, found.Balance().IsZero())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, finance.ErrLocationNotFound)
}

func TestGormLocationRepository_FindActive_OldestFirst(t *testing.T) {
	_, repo, _, fx := newLedgerRepos(t)
	newer := fx.Location("Bank", "", finance.LocationTypeBank, baseTime.Add(time.Hour))
	older := fx.Location("Cash", "", finance.LocationTypeCash, baseTime)
	fx.InactiveLocation("Closed Safe", baseTime.Add(-time.Hour))

	active, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, older.ID, active[0].ID)
	assert.Equal(t, newer.ID, active[1].ID)
}

func TestGormLocationRepository_FindAll(t *testing.T) {
	_, repo, _, fx := newLedgerRepos(t)
	fx.Location("Main Cash", "", finance.LocationTypeCash, baseTime)
	fx.Location("CIB Bank", "", finance.LocationTypeBank, baseTime.Add(time.Minute))
	fx.Location("Vodafone Cash", "", finance.LocationTypeWallet, baseTime.Add(2*time.Minute))
	fx.InactiveLocation("Old Cash", baseTime.Add(3*time.Minute))

	t.Run("search", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "Cash"
		items, total, err := repo.FindAll(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 3)
	})

	t.Run("filter by type and active flag", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["type"] = finance.LocationTypeCash
		filter.Filters["is_active"] = true
		items, total, err := repo.FindAll(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Main Cash", items[0].Name)
	})

	t.Run("pagination and sort", func(t *testing.T) {
		filter := shared.Filter{Page: 2, PageSize: 2, OrderBy: "name", OrderDir: "asc"}
		items, total, err := repo.FindAll(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, items, 2)
		assert.Equal(t, "Old Cash", items[0].Name)
		assert.Equal(t, "Vodafone Cash", items[1].Name)
	})

	t.Run("unknown sort field falls back", func(t *testing.T) {
		filter := shared.Filter{OrderBy: "balance; DROP TABLE money_locations", OrderDir: "asc"}
		items, _, err := repo.FindAll(context.Background(), filter)
		require.NoError(t, err)
		assert.Len(t, items, 4)
	})
}

func TestGormLocationRepository_Save_NeverWritesBalance(t *testing.T) {
	_, locations, movements, fx := newLedgerRepos(t)
	ctx := context.Background()

	loc, err := finance.NewMoneyLocation("Cash", "", finance.LocationTypeCash)
	require.NoError(t, err)
	require.NoError(t, locations.Save(ctx, loc))
	require.NoError(t, movements.Append(ctx, deposit(t, loc.ID, 500)))
	assert.True(t, fx.Balance(loc.ID).Equal(decimal.NewFromInt(500)))

	// loc still carries the zero balance it was created with
	require.NoError(t, loc.Rename("Front Desk Cash", "كاشير"))
	loc.Deactivate()
	require.NoError(t, locations.Save(ctx, loc))

	stored, err := locations.FindByID(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Front Desk Cash", stored.Name)
	assert.Equal(t, "كاشير", stored.NameAr)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.Balance().Equal(decimal.NewFromInt(500)))
}

func TestGormMovementRepository_Append(t *testing.T) {
	_, _, repo, fx := newLedgerRepos(t)
	ctx := context.Background()
	cash := fx.Location("Cash", "", finance.LocationTypeCash, baseTime)
	bank := fx.Location("Bank", "", finance.LocationTypeBank, baseTime)

	require.NoError(t, repo.Append(ctx, deposit(t, cash.ID, 1000)))

	transfer, err := finance.NewMoneyMovement(finance.MovementTypeTransfer, decimal.NewFromInt(300), &cash.ID, &bank.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, transfer))

	withdrawal, err := finance.NewMoneyMovement(finance.MovementTypeWithdrawal, decimal.NewFromInt(50), &bank.ID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, withdrawal))

	assert.True(t, fx.Balance(cash.ID).Equal(decimal.NewFromInt(700)))
	assert.True(t, fx.Balance(bank.ID).Equal(decimal.NewFromInt(250)))

	found, err := repo.FindByID(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.MovementTypeTransfer, found.MovementType)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, cash.ID, *found.FromLocationID)
	assert.Equal(t, bank.ID, *found.ToLocationID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormMovementRepository_Append_UnknownLocation(t *testing.T) {
	_, _, repo, _ := newLedgerRepos(t)

	err := repo.Append(context.Background(), deposit(t, uuid.New(), 100))
	assert.ErrorIs(t, err, finance.ErrLocationNotFound)
}

func TestGormMovementRepository_FindByReference(t *testing.T) {
	_, _, repo, fx := newLedgerRepos(t)
	ctx := context.Background()
	cash := fx.Location("Cash", "", finance.LocationTypeCash, baseTime)
	invoiceID := uuid.New()

	payment, err := finance.NewMoneyMovement(finance.MovementTypePaymentReceived, decimal.NewFromInt(500), nil, &cash.ID)
	require.NoError(t, err)
	payment.WithReference(finance.ReferenceTypeInvoice, invoiceID).WithMovementDate(baseTime)
	require.NoError(t, repo.Append(ctx, payment))

	refund, err := finance.NewMoneyMovement(finance.MovementTypeRefund, decimal.NewFromInt(500), &cash.ID, nil)
	require.NoError(t, err)
	refund.WithReference(finance.ReferenceTypeInvoice, invoiceID).WithMovementDate(baseTime.Add(time.Hour))
	require.NoError(t, repo.Append(ctx, refund))

	require.NoError(t, repo.Append(ctx, deposit(t, cash.ID, 10)))

	found, err := repo.FindByReference(ctx, finance.ReferenceTypeInvoice, invoiceID)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, payment.ID, found[0].ID)
	assert.Equal(t, refund.ID, found[1].ID)
	assert.Equal(t, int64(2), fx.MovementCount(invoiceID))
}

func TestGormMovementRepository_List(t *testing.T) {
	_, _, repo, fx := newLedgerRepos(t)
	ctx := context.Background()
	cash := fx.Location("Cash", "", finance.LocationTypeCash, baseTime)
	bank := fx.Location("Bank", "", finance.LocationTypeBank, baseTime)

	for i := 0; i < 3; i++ {
		m := deposit(t, cash.ID, int64(100*(i+1)))
		m.WithMovementDate(baseTime.Add(time.Duration(i) * time.Hour))
		require.NoError(t, repo.Append(ctx, m))
	}
	require.NoError(t, repo.Append(ctx, deposit(t, bank.ID, 40)))

	items, total, err := repo.List(ctx, finance.MovementFilter{LocationID: &cash.ID, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.True(t, items[0].Amount.Equal(decimal.NewFromInt(300)), "newest first")

	items, _, err = repo.List(ctx, finance.MovementFilter{LocationID: &cash.ID, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Amount.Equal(decimal.NewFromInt(100)))

	from := baseTime.Add(30 * time.Minute)
	to := baseTime.Add(90 * time.Minute)
	items, total, err = repo.List(ctx, finance.MovementFilter{LocationID: &cash.ID, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.True(t, items[0].Amount.Equal(decimal.NewFromInt(200)))

	movementType := finance.MovementTypeDeposit
	_, total, err = repo.List(ctx, finance.MovementFilter{MovementType: &movementType})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestGormMovementRepository_FlowsByLocation(t *testing.T) {
	_, _, repo, fx := newLedgerRepos(t)
	ctx := context.Background()
	cash := fx.Location("Cash", "", finance.LocationTypeCash, baseTime)
	bank := fx.Location("Bank", "", finance.LocationTypeBank, baseTime)
	idle := fx.Location("Wallet", "", finance.LocationTypeWallet, baseTime)

	require.NoError(t, repo.Append(ctx, deposit(t, cash.ID, 800)))
	transfer, err := finance.NewMoneyMovement(finance.MovementTypeTransfer, decimal.NewFromInt(200), &cash.ID, &bank.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, transfer))

	flows, err := repo.FlowsByLocation(ctx)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]finance.LocationFlow, len(flows))
	for _, f := range flows {
		byID[f.LocationID] = f
	}
	require.Len(t, byID, 2)
	assert.NotContains(t, byID, idle.ID)

	assert.True(t, byID[cash.ID].Incoming.Equal(decimal.NewFromInt(800)))
	assert.True(t, byID[cash.ID].Outgoing.Equal(decimal.NewFromInt(200)))
	assert.True(t, byID[cash.ID].Net().Equal(fx.Balance(cash.ID)))
	assert.True(t, byID[bank.ID].Outgoing.IsZero())
	assert.True(t, byID[bank.ID].Net().Equal(decimal.NewFromInt(200)))
}
