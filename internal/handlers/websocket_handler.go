package handlers

import (
	"net/http"

	"oncult-backend/internal/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler upgrades clients onto the payment progress stream
type WebSocketHandler struct {
	hub *services.ProgressHub
}

// NewWebSocketHandler creates the websocket handler
func NewWebSocketHandler(hub *services.ProgressHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ProgressStreamHandler subscribes the caller to their own payment
// progress events. The buyer address comes from the JWT, not from the
// request, so a client cannot watch someone else's payments.
// GET /api/payments/ws
func (h *WebSocketHandler) ProgressStreamHandler(c *gin.Context) {
	buyer := c.GetString("user_address")
	if buyer == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	if err := h.hub.Serve(c.Writer, c.Request, common.HexToAddress(buyer)); err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		// Upgrade failures already wrote a response.
	}
}
