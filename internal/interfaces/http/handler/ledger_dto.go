package handler

import (
	"time"

	"github.com/google/uuid"
	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateLocationRequest is the body of POST /locations
type CreateLocationRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	NameAr      string `json:"name_ar" binding:"max=100"`
	Description string `json:"description" binding:"max=500"`
	Type        string `json:"type" binding:"required,oneof=cash bank wallet other"`
}

// UpdateLocationRequest is the body of PATCH /locations/:id; absent fields are left alone
type UpdateLocationRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	NameAr      *string `json:"name_ar" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// ManualMovementRequest is the body of deposit and withdrawal requests
type ManualMovementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

// TransferRequest is the body of POST /movements/transfer
type TransferRequest struct {
	FromLocationID string          `json:"from_location_id" binding:"required,uuid"`
	ToLocationID   string          `json:"to_location_id" binding:"required,uuid,nefield=FromLocationID"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description" binding:"max=500"`
}

// MovementListQuery filters GET /movements
type MovementListQuery struct {
	LocationID    string     `form:"location_id" binding:"omitempty,uuid"`
	ReferenceType string     `form:"reference_type" binding:"omitempty,oneof=invoice expense manual"`
	ReferenceID   string     `form:"reference_id" binding:"omitempty,uuid"`
	MovementType  string     `form:"movement_type" binding:"omitempty,oneof=deposit withdrawal payment_received transfer expense refund"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// filter converts the query; binding already validated the ids
func (q MovementListQuery) filter() finance.MovementFilter {
	page, pageSize := shared.Filter{Page: q.Page, PageSize: q.PageSize}.Normalize()
	f := finance.MovementFilter{From: q.From, Page: page, PageSize: pageSize}
	if q.To != nil {
		// the date is inclusive
		end := q.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.To = &end
	}
	if q.LocationID != "" {
		id := uuid.MustParse(q.LocationID)
		f.LocationID = &id
	}
	if q.ReferenceID != "" {
		id := uuid.MustParse(q.ReferenceID)
		f.ReferenceID = &id
	}
	if q.ReferenceType != "" {
		rt := finance.ReferenceType(q.ReferenceType)
		f.ReferenceType = &rt
	}
	if q.MovementType != "" {
		mt := finance.MovementType(q.MovementType)
		f.MovementType = &mt
	}
	return f
}

// LocationResponse is a money location with its balance
type LocationResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	NameAr      string          `json:"name_ar,omitempty"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type"`
	Balance     decimal.Decimal `json:"balance"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toLocationResponse(loc finance.MoneyLocation) LocationResponse {
	return LocationResponse{
		ID:          loc.ID,
		Name:        loc.Name,
		NameAr:      loc.NameAr,
		Description: loc.Description,
		Type:        loc.Type.String(),
		Balance:     loc.Balance(),
		IsActive:    loc.IsActive,
		CreatedAt:   loc.CreatedAt,
		UpdatedAt:   loc.UpdatedAt,
	}
}

// MovementResponse is one ledger movement
type MovementResponse struct {
	ID             uuid.UUID       `json:"id"`
	MovementType   string          `json:"movement_type"`
	Amount         decimal.Decimal `json:"amount"`
	FromLocationID *uuid.UUID      `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID      `json:"to_location_id,omitempty"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    *uuid.UUID      `json:"reference_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	MovementDate   time.Time       `json:"movement_date"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toMovementResponse(m finance.MoneyMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		MovementType:   m.MovementType.String(),
		Amount:         m.Amount,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		ReferenceType:  string(m.ReferenceType),
		ReferenceID:    m.ReferenceID,
		Description:    m.Description,
		MovementDate:   m.MovementDate,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// DiscrepancyResponse is a location whose balance disagrees with its movements
type DiscrepancyResponse struct {
	LocationID   uuid.UUID       `json:"location_id"`
	LocationName string          `json:"location_name"`
	Stored       decimal.Decimal `json:"stored"`
	Computed     decimal.Decimal `json:"computed"`
	Difference   decimal.Decimal `json:"difference"`
}

// BalanceAuditResponse is the result of GET /ledger/audit
type BalanceAuditResponse struct {
	Balanced      bool                  `json:"balanced"`
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
}

func toBalanceAuditResponse(ds []appfinance.BalanceDiscrepancy) BalanceAuditResponse {
	resp := BalanceAuditResponse{Balanced: len(ds) == 0, Discrepancies: make([]DiscrepancyResponse, len(ds))}
	for i, d := range ds {
		resp.Discrepancies[i] = DiscrepancyResponse{
			LocationID:   d.LocationID,
			LocationName: d.LocationName,
			Stored:       d.Stored,
			Computed:     d.Computed,
			Difference:   d.Difference(),
		}
	}
	return resp
}
