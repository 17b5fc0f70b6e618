package handler

import (
	"Workpulse/internal/hub"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MonitorHandler handles monitoring API endpoints
type MonitorHandler interface {
	GetHubStats(c *gin.Context)
	GetPresence(c *gin.Context)
}

type monitorHandler struct {
	monitorService *hub.MonitorService
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(monitorService *hub.MonitorService) MonitorHandler {
	return &monitorHandler{
		monitorService: monitorService,
	}
}

// GetHubStats returns current hub statistics
// @Summary Get relay statistics
// @Description Returns connected sockets, presence, active sessions and dispatch queue depths
// @Tags Monitor
// @Produce json
// @Success 200 {object} model.MonitorResponse
// @Router /api/monitor/stats [get]
func (h *monitorHandler) GetHubStats(c *gin.Context) {
	stats := h.monitorService.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"HttpStatusCode": http.StatusOK,
		"ResponseBody":   stats,
		"IsSuccess":      true,
		"Message":        "Relay statistics retrieved successfully",
	})
}

// GetPresence returns only the presence snapshot, in the onlineEmployees shape.
// @Router /api/monitor/presence [get]
func (h *monitorHandler) GetPresence(c *gin.Context) {
	stats := h.monitorService.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"HttpStatusCode": http.StatusOK,
		"ResponseBody":   stats.Presence,
		"IsSuccess":      true,
		"Message":        "Presence retrieved successfully",
	})
}
