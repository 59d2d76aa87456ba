package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/interfaces/http/dto"
)

// LedgerHandler handles money location and movement endpoints
type LedgerHandler struct {
	BaseHandler
	ledger *appfinance.LedgerService
	audit  *appfinance.LedgerAuditService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger *appfinance.LedgerService, audit *appfinance.LedgerAuditService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, audit: audit}
}

// ListLocations handles GET /locations
func (h *LedgerHandler) ListLocations(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := req.Filter()
	filter.Page, filter.PageSize = filter.Normalize()
	page, err := h.ledger.ListLocations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page, toLocationResponse))
}

// GetLocation handles GET /locations/:id
func (h *LedgerHandler) GetLocation(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	loc, err := h.ledger.GetLocation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toLocationResponse(*loc))
}

// CreateLocation handles POST /locations
func (h *LedgerHandler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	loc, err := h.ledger.CreateLocation(c.Request.Context(), appfinance.CreateLocationRequest{
		Name:        req.Name,
		NameAr:      req.NameAr,
		Description: req.Description,
		Type:        finance.LocationType(req.Type),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toLocationResponse(*loc))
}

// UpdateLocation handles PATCH /locations/:id
func (h *LedgerHandler) UpdateLocation(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	loc, err := h.ledger.UpdateLocation(c.Request.Context(), id, appfinance.UpdateLocationRequest{
		Name:        req.Name,
		NameAr:      req.NameAr,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toLocationResponse(*loc))
}

// Deposit handles POST /locations/:id/deposit
func (h *LedgerHandler) Deposit(c *gin.Context) {
	h.manualMovement(c, h.ledger.Deposit)
}

// Withdraw handles POST /locations/:id/withdraw
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	h.manualMovement(c, h.ledger.Withdraw)
}

type manualMovementFunc func(ctx context.Context, req appfinance.ManualMovementRequest) (*finance.MoneyMovement, error)

func (h *LedgerHandler) manualMovement(c *gin.Context, record manualMovementFunc) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ManualMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	movement, err := record(c.Request.Context(), appfinance.ManualMovementRequest{
		LocationID:  id,
		Amount:      req.Amount,
		Description: req.Description,
		ActorID:     getActorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toMovementResponse(*movement))
}

// Transfer handles POST /movements/transfer
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	movement, err := h.ledger.Transfer(c.Request.Context(), appfinance.TransferRequest{
		FromLocationID: uuid.MustParse(req.FromLocationID),
		ToLocationID:   uuid.MustParse(req.ToLocationID),
		Amount:         req.Amount,
		Description:    req.Description,
		ActorID:        getActorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toMovementResponse(*movement))
}

// ListMovements handles GET /movements
func (h *LedgerHandler) ListMovements(c *gin.Context) {
	var q MovementListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	page, err := h.ledger.ListMovements(c.Request.Context(), q.filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(page, toMovementResponse))
}

// AuditBalances handles GET /ledger/audit. It never repairs anything.
func (h *LedgerHandler) AuditBalances(c *gin.Context) {
	discrepancies, err := h.audit.VerifyBalances(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBalanceAuditResponse(discrepancies))
}
