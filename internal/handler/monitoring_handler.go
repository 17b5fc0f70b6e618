package handler

import (
	"Workpulse/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MonitoringHandler interface {
	GetAdminRequests(c *gin.Context)
	GetEmployeeRequests(c *gin.Context)
	GetActiveSessions(c *gin.Context)
}

type monitoringHandler struct {
	service service.MonitoringService
	logger  *zap.Logger
}

func NewMonitoringHandler(service service.MonitoringService, logger *zap.Logger) MonitoringHandler {
	return &monitoringHandler{
		service: service,
		logger:  logger,
	}
}

// GetAdminRequests returns every request an admin sent, oldest first.
// @Router /api/monitoringRequests/admin/{adminId} [get]
func (h *monitoringHandler) GetAdminRequests(c *gin.Context) {
	adminID := c.Param("adminId")
	requests, err := h.service.RequestsForAdmin(c.Request.Context(), adminID, c.Query("status"))
	if err != nil {
		h.fail(c, err, zap.String("admin_id", adminID))
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetEmployeeRequests returns every request addressed to an employee, oldest first.
// @Router /api/monitoringRequests/employee/{employeeId} [get]
func (h *monitoringHandler) GetEmployeeRequests(c *gin.Context) {
	employeeID := c.Param("employeeId")
	requests, err := h.service.RequestsForEmployee(c.Request.Context(), employeeID, c.Query("status"))
	if err != nil {
		h.fail(c, err, zap.String("employee_id", employeeID))
		return
	}

	c.JSON(http.StatusOK, requests)
}

// @Router /api/monitoring/sessions [get]
func (h *monitoringHandler) GetActiveSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ActiveSessions(c.Query("userId")))
}

func (h *monitoringHandler) fail(c *gin.Context, err error, fields ...zap.Field) {
	if errors.Is(err, service.ErrInvalidStatusFilter) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.logger.Error("failed to read monitoring requests", append(fields, zap.Error(err))...)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to get monitoring requests",
	})
}
