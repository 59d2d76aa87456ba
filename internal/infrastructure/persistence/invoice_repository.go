package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/repairshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID loads an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicing.ErrInvoiceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindIDsByItemReport returns the distinct invoices owning an item that references the report
func (r *GormInvoiceRepository) FindIDsByItemReport(ctx context.Context, reportID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceItemModel{}).
		Distinct("invoice_id").
		Where("report_id = ?", reportID).
		Order("invoice_id").
		Pluck("invoice_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save upserts the invoice header and its items
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.Items).Error
	})
}

// SavePayment writes the payment columns only
func (r *GormInvoiceRepository) SavePayment(ctx context.Context, invoice *invoicing.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"payment_status":    invoice.PaymentStatus,
			"payment_method":    invoice.PaymentMethod,
			"payment_date":      invoice.PaymentDate,
			"money_location_id": invoice.MoneyLocationID,
			"version":           invoice.Version,
			"updated_at":        invoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invoicing.ErrInvoiceNotFound
	}
	return nil
}

// GormLinkRepository implements invoicing.LinkRepository using GORM.
// The junction's primary key makes inserts idempotent.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewGormLinkRepository creates a new GormLinkRepository
func NewGormLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// Link inserts the pair with ON CONFLICT DO NOTHING. A conflict is not an error:
// created is false and the existing row is kept.
func (r *GormLinkRepository) Link(ctx context.Context, link invoicing.InvoiceReport) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "invoice_id"}, {Name: "report_id"}},
			DoNothing: true,
		}).
		Create(models.InvoiceReportModelFromDomain(link))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Exists reports whether the pair is already linked
func (r *GormLinkRepository) Exists(ctx context.Context, invoiceID, reportID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceReportModel{}).
		Where("invoice_id = ? AND report_id = ?", invoiceID, reportID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByInvoice returns the links of an invoice
func (r *GormLinkRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.InvoiceReport, error) {
	return r.find(ctx, "invoice_id = ?", invoiceID)
}

// FindByReport returns the links of a report
func (r *GormLinkRepository) FindByReport(ctx context.Context, reportID uuid.UUID) ([]invoicing.InvoiceReport, error) {
	return r.find(ctx, "report_id = ?", reportID)
}

func (r *GormLinkRepository) find(ctx context.Context, cond string, id uuid.UUID) ([]invoicing.InvoiceReport, error) {
	var linkModels []models.InvoiceReportModel
	if err := r.db.WithContext(ctx).
		Where(cond, id).
		Order("created_at ASC").
		Find(&linkModels).Error; err != nil {
		return nil, err
	}
	links := make([]invoicing.InvoiceReport, len(linkModels))
	for i := range linkModels {
		links[i] = linkModels[i].ToDomain()
	}
	return links, nil
}

// Ensure the repositories implement the domain interfaces
var (
	_ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
	_ invoicing.LinkRepository    = (*GormLinkRepository)(nil)
)
