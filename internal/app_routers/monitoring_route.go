package approuters

import (
	"Workpulse/internal/configuration"

	"github.com/gin-gonic/gin"
)

func MonitoringRouters(api *gin.RouterGroup, container *configuration.Container) {
	requestRoute := api.Group("/monitoringRequests")
	{
		requestRoute.GET("/admin/:adminId", container.MonitoringHandler.GetAdminRequests)
		requestRoute.GET("/employee/:employeeId", container.MonitoringHandler.GetEmployeeRequests)
	}

	api.GET("/monitoring/sessions", container.MonitoringHandler.GetActiveSessions)
}

func MessageRouters(api *gin.RouterGroup, container *configuration.Container) {
	api.GET("/messages/:userA/:userB", container.MessageHandler.GetConversation)
}

func LiveKitRouters(api *gin.RouterGroup, container *configuration.Container) {
	api.GET("/livekit/token", container.LiveKitHandler.GetToken)
}
