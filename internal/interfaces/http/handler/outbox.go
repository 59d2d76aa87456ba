package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/repairshop/backend/internal/application/event"
	"github.com/repairshop/backend/internal/interfaces/http/dto"
)

// OutboxHandler exposes dead letter administration under /system/outbox
type OutboxHandler struct {
	BaseHandler
	svc *event.OutboxService
}

func NewOutboxHandler(svc *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{svc: svc}
}

// RetriedResponse reports how many dead rows went back to the queue
type RetriedResponse struct {
	Retried int64 `json:"retried"`
}

// ListDead handles GET /system/outbox/dead
func (h *OutboxHandler) ListDead(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	page, err := h.svc.ListDead(c.Request.Context(), req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Entry handles GET /system/outbox/:id
func (h *OutboxHandler) Entry(c *gin.Context) {
	if id, ok := h.parseID(c, "id"); ok {
		h.reply(c)(h.svc.Entry(c.Request.Context(), id))
	}
}

// Retry handles POST /system/outbox/:id/retry
func (h *OutboxHandler) Retry(c *gin.Context) {
	if id, ok := h.parseID(c, "id"); ok {
		h.reply(c)(h.svc.Retry(c.Request.Context(), id))
	}
}

// RetryAll handles POST /system/outbox/dead/retry
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	n, err := h.svc.RetryAll(c.Request.Context())
	h.reply(c)(RetriedResponse{Retried: n}, err)
}

// Stats handles GET /system/outbox/stats
func (h *OutboxHandler) Stats(c *gin.Context) {
	h.reply(c)(h.svc.Stats(c.Request.Context()))
}

// reply returns a func taking a service call's two results, so calls can be passed straight in
func (h *OutboxHandler) reply(c *gin.Context) func(any, error) {
	return func(data any, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, data)
	}
}
