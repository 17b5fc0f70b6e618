package approuters

import (
	"Workpulse/internal/configuration"

	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up relay statistics routes
func MonitorRouters(api *gin.RouterGroup, container *configuration.Container) {
	monitorGroup := api.Group("/monitor")
	{
		// GET /api/monitor/stats - relay statistics
		monitorGroup.GET("/stats", container.MonitorHandler.GetHubStats)
		monitorGroup.GET("/presence", container.MonitorHandler.GetPresence)
	}
}
