// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/database"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	manager   *service.ConnectionManager
	db        *database.DB
	config    *config.Config
	startedAt time.Time
	logger    *utils.ServiceLogger
}

// NewHealthHandler creates a new health handler. db is nil when the journal
// is not postgres backed.
func NewHealthHandler(manager *service.ConnectionManager, db *database.DB, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		manager:   manager,
		db:        db,
		config:    config,
		startedAt: time.Now(),
		logger:    utils.NewServiceLogger(logger, "health-handler"),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get service health including the serial connection state and, when configured, the journal database
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	status := h.manager.Status()
	serialCheck := CheckResult{
		Status: "healthy",
		Data: map[string]interface{}{
			"state":  status.State,
			"driver": status.Driver,
		},
	}
	if status.Connection != nil {
		serialCheck.Data["path"] = status.Connection.Path
		serialCheck.Data["connection_id"] = status.Connection.ID.String()
	}
	health.Checks["serial"] = serialCheck

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			h.logger.Error("Database health check failed", zap.Error(err))
			health.Status = "unhealthy"
			health.Checks["database"] = CheckResult{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			stats := h.db.GetStats()
			health.Checks["database"] = CheckResult{
				Status:  "healthy",
				Message: "Database connection OK",
				Data: map[string]interface{}{
					"open_connections": stats.OpenConnections,
					"in_use":           stats.InUse,
					"idle":             stats.Idle,
				},
			}
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// ReadinessCheck for readiness probes
// @Summary Readiness check
// @Description Check if service is ready to accept traffic
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "database not available",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for liveness probes
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
