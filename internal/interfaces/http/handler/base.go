package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/shared"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/interfaces/http/dto"
	"github.com/repairshop/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler writes the response envelope shared by every endpoint
type BaseHandler struct{}

func getRequestID(c *gin.Context) string { return middleware.GetRequestID(c) }

// getActorID returns the acting admin. Requests without one are attributed to uuid.Nil,
// which the ledger stores as "no creator".
func getActorID(c *gin.Context) uuid.UUID { return middleware.GetActorID(c) }

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error answers status with an error envelope carrying the request id
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError answers 400 listing the rejected fields of a binding error
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError turns a service error into a response. Domain errors keep their code, an
// expired or cancelled request is 503, anything else is logged and answered with a bare 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	switch {
	case err == nil:
		return
	case errors.As(err, &domainErr):
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "The request took too long and was cancelled")
	default:
		logger.GetGinLogger(c).Error("unhandled error", zap.String("route", c.FullPath()), zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
	}
}

// parseID reads a uuid path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
