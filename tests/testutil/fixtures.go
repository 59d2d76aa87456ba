package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Fixtures inserts domain objects straight through the persistence models,
// bypassing repositories so tests can set up state the services would never produce.
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
}

// NewFixtures creates fixtures writing to db
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

// Location inserts an active location. createdAt orders locations for fallback resolution.
func (f *Fixtures) Location(name, nameAr string, locationType finance.LocationType, createdAt time.Time) *finance.MoneyLocation {
	f.t.Helper()
	loc, err := finance.NewMoneyLocation(name, nameAr, locationType)
	require.NoError(f.t, err)
	loc.CreatedAt = createdAt
	loc.UpdatedAt = createdAt
	require.NoError(f.t, f.db.Create(models.MoneyLocationModelFromDomain(loc)).Error)
	return loc
}

// InactiveLocation inserts a deactivated location
func (f *Fixtures) InactiveLocation(name string, createdAt time.Time) *finance.MoneyLocation {
	f.t.Helper()
	loc := f.Location(name, "", finance.LocationTypeCash, createdAt)
	require.NoError(f.t, f.db.Model(&models.MoneyLocationModel{}).
		Where("id = ?", loc.ID).
		Update("is_active", false).Error)
	loc.Deactivate()
	return loc
}

// Invoice inserts an invoice with one item per amount. A non-nil itemReportID is set on every item.
func (f *Fixtures) Invoice(clientID uuid.UUID, number string, status invoicing.PaymentStatus, itemReportID *uuid.UUID, amounts ...int64) *invoicing.Invoice {
	f.t.Helper()
	inv, err := invoicing.NewInvoice(clientID, number)
	require.NoError(f.t, err)
	for i, amount := range amounts {
		_, err := inv.AddItem("repair", "", decimal.NewFromInt(amount), itemReportID)
		require.NoError(f.t, err, "item %d", i)
	}
	inv.PaymentStatus = status
	require.NoError(f.t, f.db.Create(models.InvoiceModelFromDomain(inv)).Error)
	return inv
}

// InvoiceModel inserts an already-built invoice
func (f *Fixtures) InvoiceModel(inv *invoicing.Invoice) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(models.InvoiceModelFromDomain(inv)).Error)
}

// Report inserts a report with the given raw stored status (nil stores NULL)
func (f *Fixtures) Report(clientID uuid.UUID, serial string, inspectedAt time.Time, rawStatus *string) *inspection.Report {
	f.t.Helper()
	report, err := inspection.NewReport(clientID, serial, "iPhone", inspectedAt)
	require.NoError(f.t, err)
	model := models.ReportModelFromDomain(report)
	model.Status = rawStatus
	require.NoError(f.t, f.db.Create(model).Error)
	report.Status = inspection.CanonicalizePtr(rawStatus)
	return report
}

// LinkReportToInvoice sets the report's denormalised invoice_id column
func (f *Fixtures) LinkReportToInvoice(reportID, invoiceID uuid.UUID) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.ReportModel{}).
		Where("id = ?", reportID).
		Update("invoice_id", invoiceID).Error)
}

// Balance reads the stored balance of a location
func (f *Fixtures) Balance(locationID uuid.UUID) decimal.Decimal {
	f.t.Helper()
	var model models.MoneyLocationModel
	require.NoError(f.t, f.db.First(&model, "id = ?", locationID).Error)
	return model.Balance
}

// MovementCount counts the movements recorded for an invoice
func (f *Fixtures) MovementCount(invoiceID uuid.UUID) int64 {
	f.t.Helper()
	var count int64
	require.NoError(f.t, f.db.Model(&models.MoneyMovementModel{}).
		Where("reference_type = ? AND reference_id = ?", finance.ReferenceTypeInvoice, invoiceID).
		Count(&count).Error)
	return count
}

// LinkCount counts junction rows
func (f *Fixtures) LinkCount() int64 {
	f.t.Helper()
	var count int64
	require.NoError(f.t, f.db.Model(&models.InvoiceReportModel{}).Count(&count).Error)
	return count
}
