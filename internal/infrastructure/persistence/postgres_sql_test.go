package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests pin the postgres statements the ledger relies on for correctness under concurrency.

func TestPostgres_LinkUsesOnConflictDoNothing(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()

	mdb.Mock.ExpectExec(`INSERT INTO "invoice_reports" .* ON CONFLICT \("invoice_id","report_id"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := NewGormLinkRepository(mdb.DB).Link(context.Background(),
		invoicing.NewInvoiceReport(uuid.New(), uuid.New(), invoicing.LinkSourceReconciliation))
	require.NoError(t, err)
	assert.False(t, created)
	mdb.ExpectationsWereMet(t)
}

func TestPostgres_FindByIDForUpdateLocksRow(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()

	mdb.Mock.ExpectQuery(`SELECT \* FROM "reports" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewGormReportRepository(mdb.DB).FindByIDForUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, inspection.ErrReportNotFound)
	mdb.ExpectationsWereMet(t)
}

func TestPostgres_AppendIncrementsBalanceInPlace(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	defer mdb.Close()

	from, to := uuid.New(), uuid.New()
	movement, err := finance.NewMoneyMovement(finance.MovementTypeTransfer, decimal.NewFromInt(40), &from, &to)
	require.NoError(t, err)

	mdb.Mock.ExpectExec(`INSERT INTO "money_movements"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mdb.Mock.ExpectExec(`UPDATE "money_locations" SET "balance"=balance \+ \$1 WHERE id = \$2`).
		WithArgs("40", to.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mdb.Mock.ExpectExec(`UPDATE "money_locations" SET "balance"=balance \+ \$1 WHERE id = \$2`).
		WithArgs("-40", from.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewGormMovementRepository(mdb.DB).Append(context.Background(), movement)
	assert.ErrorIs(t, err, finance.ErrLocationNotFound)
	mdb.ExpectationsWereMet(t)
}
