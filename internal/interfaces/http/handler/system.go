package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/persistence"
	"github.com/repairshop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// DatabaseProbe is what the health check asks of the database
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	Stats() (persistence.PoolStats, error)
}

const healthPingTimeout = 2 * time.Second

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        DatabaseProbe
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, db DatabaseProbe) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping handles GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// Health handles GET /health. It answers 503 when the database cannot be reached and
// reports the connection pool otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339), "database": "ok"}
	if h.db == nil {
		c.JSON(http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		body["status"], body["database"] = "unhealthy", "error"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	if stats, err := h.db.Stats(); err == nil {
		body["pool"] = stats
	}
	c.JSON(http.StatusOK, body)
}
