package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLocationRepository implements finance.LocationRepository using GORM.
// It never writes the balance column after insert.
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a money location by its ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.MoneyLocation, error) {
	var model models.MoneyLocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, finance.ErrLocationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns active locations, oldest first. The id breaks ties between rows
// created in the same instant so the order is stable.
func (r *GormLocationRepository) FindActive(ctx context.Context) ([]finance.MoneyLocation, error) {
	var locationModels []models.MoneyLocationModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&locationModels).Error; err != nil {
		return nil, err
	}
	return locationsToDomain(locationModels), nil
}

// FindAll returns a page of locations and the total count
func (r *GormLocationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.MoneyLocation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MoneyLocationModel{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR name_ar LIKE ? OR description LIKE ?", pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(locationSort.clause(filter.OrderBy, filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		_, pageSize := filter.Normalize()
		query = query.Offset(filter.Offset()).Limit(pageSize)
	}

	var locationModels []models.MoneyLocationModel
	if err := query.Find(&locationModels).Error; err != nil {
		return nil, 0, err
	}
	return locationsToDomain(locationModels), total, nil
}

// Save inserts a new location or updates the metadata of an existing one.
// The balance is only written on insert, where it is zero.
func (r *GormLocationRepository) Save(ctx context.Context, location *finance.MoneyLocation) error {
	model := models.MoneyLocationModelFromDomain(location)
	result := r.db.WithContext(ctx).
		Model(&models.MoneyLocationModel{}).
		Where("id = ?", model.ID).
		Select("name", "name_ar", "description", "type", "is_active", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	model.Balance = decimal.Zero
	return r.db.WithContext(ctx).Create(model).Error
}

func locationsToDomain(locationModels []models.MoneyLocationModel) []finance.MoneyLocation {
	locations := make([]finance.MoneyLocation, len(locationModels))
	for i := range locationModels {
		locations[i] = *locationModels[i].ToDomain()
	}
	return locations
}

// GormMovementRepository implements finance.MovementRepository using GORM.
// It is the only code that changes money_locations.balance.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts the movement and applies its delta to the touched balances.
// Callers must run it inside a transaction; the increments are relative so concurrent
// appends on the same location do not lose updates.
func (r *GormMovementRepository) Append(ctx context.Context, movement *finance.MoneyMovement) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(models.MoneyMovementModelFromDomain(movement)).Error; err != nil {
		return err
	}

	if movement.ToLocationID != nil {
		if err := r.adjustBalance(db, *movement.ToLocationID, movement.Amount); err != nil {
			return err
		}
	}
	if movement.FromLocationID != nil {
		if err := r.adjustBalance(db, *movement.FromLocationID, movement.Amount.Neg()); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormMovementRepository) adjustBalance(db *gorm.DB, locationID uuid.UUID, delta decimal.Decimal) error {
	result := db.Model(&models.MoneyLocationModel{}).
		Where("id = ?", locationID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return finance.ErrLocationNotFound
	}
	return nil
}

// FindByID finds a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.MoneyMovement, error) {
	var model models.MoneyMovementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference returns the movements recorded for a document, oldest first
func (r *GormMovementRepository) FindByReference(ctx context.Context, refType finance.ReferenceType, refID uuid.UUID) ([]finance.MoneyMovement, error) {
	var movementModels []models.MoneyMovementModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("movement_date ASC").
		Order("created_at ASC").
		Find(&movementModels).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(movementModels), nil
}

// List returns a page of movements matching the filter, newest first
func (r *GormMovementRepository) List(ctx context.Context, filter finance.MovementFilter) ([]finance.MoneyMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MoneyMovementModel{})
	if filter.LocationID != nil {
		query = query.Where("from_location_id = ? OR to_location_id = ?", *filter.LocationID, *filter.LocationID)
	}
	if filter.ReferenceType != nil {
		query = query.Where("reference_type = ?", *filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.MovementType != nil {
		query = query.Where("movement_type = ?", *filter.MovementType)
	}
	if filter.From != nil {
		query = query.Where("movement_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("movement_date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("movement_date DESC").Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		_, pageSize := filter.Normalize()
		query = query.Offset(filter.Offset()).Limit(pageSize)
	}

	var movementModels []models.MoneyMovementModel
	if err := query.Find(&movementModels).Error; err != nil {
		return nil, 0, err
	}
	return movementsToDomain(movementModels), total, nil
}

type flowRow struct {
	LocationID uuid.UUID
	Total      decimal.Decimal
}

// FlowsByLocation sums credits (to_location_id) and debits (from_location_id) per location
func (r *GormMovementRepository) FlowsByLocation(ctx context.Context) ([]finance.LocationFlow, error) {
	var incoming, outgoing []flowRow
	if err := r.db.WithContext(ctx).
		Model(&models.MoneyMovementModel{}).
		Select("to_location_id AS location_id, SUM(amount) AS total").
		Where("to_location_id IS NOT NULL").
		Group("to_location_id").
		Scan(&incoming).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MoneyMovementModel{}).
		Select("from_location_id AS location_id, SUM(amount) AS total").
		Where("from_location_id IS NOT NULL").
		Group("from_location_id").
		Scan(&outgoing).Error; err != nil {
		return nil, err
	}

	flows := make(map[uuid.UUID]*finance.LocationFlow)
	order := make([]uuid.UUID, 0, len(incoming)+len(outgoing))
	get := func(id uuid.UUID) *finance.LocationFlow {
		f, ok := flows[id]
		if !ok {
			f = &finance.LocationFlow{LocationID: id, Incoming: decimal.Zero, Outgoing: decimal.Zero}
			flows[id] = f
			order = append(order, id)
		}
		return f
	}
	for _, row := range incoming {
		get(row.LocationID).Incoming = row.Total
	}
	for _, row := range outgoing {
		get(row.LocationID).Outgoing = row.Total
	}

	result := make([]finance.LocationFlow, len(order))
	for i, id := range order {
		result[i] = *flows[id]
	}
	return result, nil
}

func movementsToDomain(movementModels []models.MoneyMovementModel) []finance.MoneyMovement {
	movements := make([]finance.MoneyMovement, len(movementModels))
	for i := range movementModels {
		movements[i] = *movementModels[i].ToDomain()
	}
	return movements
}

// Ensure the repositories implement the domain interfaces
var (
	_ finance.LocationRepository = (*GormLocationRepository)(nil)
	_ finance.MovementRepository = (*GormMovementRepository)(nil)
)
