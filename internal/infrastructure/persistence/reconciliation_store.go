package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/application/reconciliation"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const (
	invoiceLinkedCond = "EXISTS (SELECT 1 FROM invoice_reports ir WHERE ir.invoice_id = i.id)"
	reportLinkedCond  = "EXISTS (SELECT 1 FROM invoice_reports ir WHERE ir.report_id = r.id)"
)

// GormReconciliationStore implements reconciliation.Store with portable SQL
type GormReconciliationStore struct {
	db    *gorm.DB
	links *GormLinkRepository
	now   func() time.Time
}

// NewGormReconciliationStore creates a new GormReconciliationStore
func NewGormReconciliationStore(db *gorm.DB) *GormReconciliationStore {
	return &GormReconciliationStore{db: db, links: NewGormLinkRepository(db), now: time.Now}
}

// Counts implements reconciliation.Store
func (s *GormReconciliationStore) Counts(ctx context.Context) (reconciliation.Counts, error) {
	var c reconciliation.Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.InvoiceModel{}).Count(&c.Invoices).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.ReportModel{}).Count(&c.Reports).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.InvoiceReportModel{}).Count(&c.Links).Error; err != nil {
		return c, err
	}
	if err := db.Model(&models.InvoiceItemModel{}).Where("report_id IS NOT NULL").Count(&c.ItemsWithReport).Error; err != nil {
		return c, err
	}
	err := db.Table("reports r").
		Where("r.invoice_created = ?", false).
		Where(reportLinkedCond).
		Count(&c.ReportsUnflagged).Error
	return c, err
}

// UnlinkedInvoices implements reconciliation.Store
func (s *GormReconciliationStore) UnlinkedInvoices(ctx context.Context) ([]reconciliation.InvoiceRef, error) {
	var rows []reconciliation.InvoiceRef
	err := s.db.WithContext(ctx).Table("invoices i").
		Select("i.id, i.invoice_number, i.client_id, i.invoice_date").
		Where("NOT " + invoiceLinkedCond).
		Order("i.invoice_date, i.id").
		Scan(&rows).Error
	return rows, err
}

// UnlinkedReports implements reconciliation.Store
func (s *GormReconciliationStore) UnlinkedReports(ctx context.Context) ([]reconciliation.ReportRef, error) {
	var rows []reconciliation.ReportRef
	err := s.db.WithContext(ctx).Table("reports r").
		Select("r.id, r.client_id, r.serial_number, r.inspection_date, r.invoice_created").
		Where("NOT " + reportLinkedCond).
		Order("r.inspection_date, r.id").
		Scan(&rows).Error
	return rows, err
}

// UnlinkedItems implements reconciliation.Store
func (s *GormReconciliationStore) UnlinkedItems(ctx context.Context) ([]reconciliation.ItemRef, error) {
	var rows []reconciliation.ItemRef
	err := s.db.WithContext(ctx).Table("invoice_items ii").
		Select("ii.id, ii.invoice_id, ii.report_id").
		Where("ii.report_id IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM invoice_reports ir WHERE ir.invoice_id = ii.invoice_id AND ir.report_id = ii.report_id)").
		Order("ii.invoice_id, ii.id").
		Scan(&rows).Error
	return rows, err
}

// pairRow mirrors reconciliation.Pair with scan-friendly column names
type pairRow struct {
	InvoiceID    uuid.UUID
	ReportID     uuid.UUID
	TargetExists bool
}

func toPairs(rows []pairRow) []reconciliation.Pair {
	pairs := make([]reconciliation.Pair, len(rows))
	for i, r := range rows {
		pairs[i] = reconciliation.Pair{InvoiceID: r.InvoiceID, ReportID: r.ReportID, TargetExists: r.TargetExists}
	}
	return pairs
}

func (s *GormReconciliationStore) scanPairs(ctx context.Context, query string) ([]reconciliation.Pair, error) {
	var rows []pairRow
	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toPairs(rows), nil
}

// ItemReportPairs implements reconciliation.Store. Only pairs not yet in the junction are returned.
func (s *GormReconciliationStore) ItemReportPairs(ctx context.Context) ([]reconciliation.Pair, error) {
	return s.scanPairs(ctx, `
		SELECT DISTINCT ii.invoice_id, ii.report_id, (r.id IS NOT NULL) AS target_exists
		FROM invoice_items ii
		LEFT JOIN reports r ON r.id = ii.report_id
		WHERE ii.report_id IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM invoice_reports ir WHERE ir.invoice_id = ii.invoice_id AND ir.report_id = ii.report_id)
		ORDER BY ii.invoice_id, ii.report_id`)
}

// LegacyInvoicePairs implements reconciliation.Store
func (s *GormReconciliationStore) LegacyInvoicePairs(ctx context.Context) ([]reconciliation.Pair, error) {
	return s.scanPairs(ctx, `
		SELECT i.id AS invoice_id, i.report_id, (r.id IS NOT NULL) AS target_exists
		FROM invoices i
		LEFT JOIN reports r ON r.id = i.report_id
		WHERE i.report_id IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM invoice_reports ir WHERE ir.invoice_id = i.id AND ir.report_id = i.report_id)
		ORDER BY i.invoice_date, i.id`)
}

// LegacyReportPairs implements reconciliation.Store
func (s *GormReconciliationStore) LegacyReportPairs(ctx context.Context) ([]reconciliation.Pair, error) {
	return s.scanPairs(ctx, `
		SELECT r.invoice_id, r.id AS report_id, (i.id IS NOT NULL) AS target_exists
		FROM reports r
		LEFT JOIN invoices i ON i.id = r.invoice_id
		WHERE r.invoice_id IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM invoice_reports ir WHERE ir.invoice_id = r.invoice_id AND ir.report_id = r.id)
		ORDER BY r.inspection_date, r.id`)
}

// SerialNumberPairs implements reconciliation.Store
func (s *GormReconciliationStore) SerialNumberPairs(ctx context.Context) ([]reconciliation.Pair, error) {
	pairs, err := s.scanPairs(ctx, `
		SELECT DISTINCT ii.invoice_id, r.id AS report_id
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		JOIN reports r ON r.serial_number = ii.serial_number AND r.client_id = i.client_id
		WHERE ii.report_id IS NULL
		  AND ii.serial_number <> ''
		  AND NOT EXISTS (SELECT 1 FROM invoice_reports ir WHERE ir.invoice_id = ii.invoice_id AND ir.report_id = r.id)
		ORDER BY ii.invoice_id, r.id`)
	for i := range pairs {
		pairs[i].TargetExists = true
	}
	return pairs, err
}

// ReportsNear implements reconciliation.Store
func (s *GormReconciliationStore) ReportsNear(ctx context.Context, clientID uuid.UUID, from, until time.Time) ([]reconciliation.ReportCandidate, error) {
	var rows []reconciliation.ReportCandidate
	err := s.db.WithContext(ctx).Table("reports r").
		Select("r.id, r.inspection_date, (r.invoice_created OR "+reportLinkedCond+") AS invoiced").
		Where("r.client_id = ?", clientID).
		Where("r.inspection_date >= ? AND r.inspection_date < ?", from, until).
		Order("r.inspection_date DESC, r.id").
		Scan(&rows).Error
	return rows, err
}

// LinkExists implements reconciliation.Store
func (s *GormReconciliationStore) LinkExists(ctx context.Context, key invoicing.LinkKey) (bool, error) {
	return s.links.Exists(ctx, key.InvoiceID, key.ReportID)
}

// Link implements reconciliation.Store
func (s *GormReconciliationStore) Link(ctx context.Context, link invoicing.InvoiceReport) (bool, error) {
	return s.links.Link(ctx, link)
}

// FlagLinkedReports implements reconciliation.Store. A report keeps its stored invoice_id when
// that pair is linked; otherwise it takes its earliest link.
func (s *GormReconciliationStore) FlagLinkedReports(ctx context.Context) (int64, error) {
	var flagged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Table("reports r").
			Where("r.invoice_created = ?", false).
			Where(reportLinkedCond).
			Pluck("r.id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Model(&models.ReportModel{}).Where("id IN ?", ids).Updates(map[string]any{
			"invoice_id": gorm.Expr(`COALESCE(
				(SELECT ir.invoice_id FROM invoice_reports ir WHERE ir.report_id = reports.id AND ir.invoice_id = reports.invoice_id),
				(SELECT ir.invoice_id FROM invoice_reports ir WHERE ir.report_id = reports.id ORDER BY ir.created_at, ir.invoice_id LIMIT 1))`),
			"invoice_created": true,
			"billing_enabled": true,
			"updated_at":      s.now(),
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ReportModel{}).Where("id IN ?", ids).
			UpdateColumn("invoice_date", gorm.Expr("(SELECT i.invoice_date FROM invoices i WHERE i.id = reports.invoice_id)")).Error; err != nil {
			return err
		}
		flagged = int64(len(ids))
		return nil
	})
	return flagged, err
}

// CountReportsToFlag implements reconciliation.Store
func (s *GormReconciliationStore) CountReportsToFlag(ctx context.Context, extra []uuid.UUID) (int64, error) {
	var count int64
	q := s.db.WithContext(ctx).Table("reports r").Where("r.invoice_created = ?", false)
	if len(extra) > 0 {
		q = q.Where("("+reportLinkedCond+" OR r.id IN ?)", extra)
	} else {
		q = q.Where(reportLinkedCond)
	}
	err := q.Count(&count).Error
	return count, err
}

var _ reconciliation.Store = (*GormReconciliationStore)(nil)
