package handler

import (
	"Workpulse/internal/livekit"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LiveKitHandler interface {
	GetToken(c *gin.Context)
}

type liveKitHandler struct {
	issuer *livekit.Issuer
	logger *zap.Logger
}

func NewLiveKitHandler(issuer *livekit.Issuer, logger *zap.Logger) LiveKitHandler {
	return &liveKitHandler{
		issuer: issuer,
		logger: logger,
	}
}

// GetToken mints a room-join token for the video SDK.
// @Router /api/livekit/token [get]
func (h *liveKitHandler) GetToken(c *gin.Context) {
	identity := c.Query("identity")
	room := c.Query("room")
	if identity == "" || room == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing identity or room",
		})
		return
	}

	token, err := h.issuer.Mint(livekit.TokenRequest{
		Identity:   identity,
		Name:       c.Query("name"),
		Room:       room,
		CanPublish: true,
	})
	if err != nil {
		h.logger.Error("livekit token error",
			zap.String("identity", identity),
			zap.String("room", room),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"url":   h.issuer.URL(),
	})
}
