package handler

import (
	"github.com/gin-gonic/gin"
	appfinance "github.com/repairshop/backend/internal/application/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
)

// WorkflowHandler handles the status changes that move money: report status updates and
// direct invoice payment status changes
type WorkflowHandler struct {
	BaseHandler
	reports  *appfinance.ReportStatusService
	payments *appfinance.InvoicePaymentService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(reports *appfinance.ReportStatusService, payments *appfinance.InvoicePaymentService) *WorkflowHandler {
	return &WorkflowHandler{reports: reports, payments: payments}
}

// UpdateReportStatus handles PATCH /reports/:id/status
func (h *WorkflowHandler) UpdateReportStatus(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.reports.UpdateStatus(c.Request.Context(), id, req.Status, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReportStatusResponse(result))
}

// ChangePaymentStatus handles PATCH /invoices/:id/payment-status
func (h *WorkflowHandler) ChangePaymentStatus(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ChangePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	change, err := h.payments.ChangePaymentStatus(c.Request.Context(), appfinance.ChangePaymentStatusRequest{
		InvoiceID: id,
		Status:    invoicing.PaymentStatus(req.Status),
		Method:    req.Method,
		ActorID:   getActorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentStatusResponse(change))
}
