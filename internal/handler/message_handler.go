package handler

import (
	"Workpulse/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler interface {
	GetConversation(c *gin.Context)
}

type messageHandler struct {
	service service.MessageService
	logger  *zap.Logger
}

func NewMessageHandler(service service.MessageService, logger *zap.Logger) MessageHandler {
	return &messageHandler{
		service: service,
		logger:  logger,
	}
}

// @Router /api/messages/{userA}/{userB} [get]
func (h *messageHandler) GetConversation(c *gin.Context) {
	userA := c.Param("userA")
	userB := c.Param("userB")
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid page number",
		})
		return
	}

	msgs, err := h.service.Conversation(c.Request.Context(), userA, userB, pageNumber)
	if err != nil {
		h.logger.Error("failed to get conversation",
			zap.String("user_a", userA),
			zap.String("user_b", userB),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
	})
}
