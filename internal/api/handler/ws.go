package handler

import (
	"net/http"

	"babelbye/backend/internal/auth"
	"babelbye/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket authenticates the caller and only then upgrades the
// connection and admits the session.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID, err := h.Handshake.Authenticate(c.Request.Context(), auth.FromWebSocket(c.Request))
	if err != nil {
		h.Log.Info("websocket handshake rejected", "error", err, "client_ip", c.ClientIP())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.Log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := chathub.NewWebSocketClient(userID, conn, h.Relay, h.Registry, h.Storage, h.Log, h.Config.OutboundBuffer)
	client.Run()
}
