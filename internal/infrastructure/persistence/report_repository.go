package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/inspection"
	"github.com/repairshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReportRepository implements inspection.ReportRepository using GORM
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// FindByID finds a report by its ID
func (r *GormReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Report, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a report and takes a row lock (SELECT ... FOR UPDATE).
// Two concurrent status updates of the same report are serialised here, so each
// transition is seen exactly once. SQLite ignores the locking clause.
func (r *GormReportRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inspection.Report, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormReportRepository) find(db *gorm.DB, id uuid.UUID) (*inspection.Report, error) {
	var model models.ReportModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inspection.ErrReportNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a report
func (r *GormReportRepository) Save(ctx context.Context, report *inspection.Report) error {
	return r.db.WithContext(ctx).Save(models.ReportModelFromDomain(report)).Error
}

// SaveStatus writes the canonical status column only
func (r *GormReportRepository) SaveStatus(ctx context.Context, report *inspection.Report) error {
	result := r.db.WithContext(ctx).
		Model(&models.ReportModel{}).
		Where("id = ?", report.ID).
		Updates(map[string]any{
			"status":     report.Status.String(),
			"version":    report.Version,
			"updated_at": report.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return inspection.ErrReportNotFound
	}
	return nil
}

var _ inspection.ReportRepository = (*GormReportRepository)(nil)
