package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/internal/monitoring"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	manager *monitoring.HealthManager
}

func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	if manager == nil {
		manager = monitoring.NewHealthManager()
	}
	return &HealthHandler{manager: manager}
}

// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Liveness())
}

// GET /health and /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	report := h.manager.Readiness(requestContext(c))
	status := http.StatusOK
	if !report.Success {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
