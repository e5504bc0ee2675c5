package handler

import (
	"errors"
	"net/http"

	"babelbye/backend/internal/models"
	"babelbye/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type connectionRequest struct {
	TargetUserID string `json:"target_user_id" binding:"required,uuid"`
}

type connectionResponse struct {
	RequesterID string `json:"requester_id" binding:"required,uuid"`
	Accept      bool   `json:"accept"`
}

func (h *Handler) ListConnections(c *gin.Context) {
	conns, err := h.Storage.ListConnections(c.Request.Context(), currentUser(c))
	h.writeConnections(c, conns, err)
}

func (h *Handler) ListPendingRequests(c *gin.Context) {
	conns, err := h.Storage.ListPending(c.Request.Context(), currentUser(c))
	h.writeConnections(c, conns, err)
}

func (h *Handler) writeConnections(c *gin.Context, conns []models.Connection, err error) {
	if err != nil {
		h.Log.Error("failed to list connections", "user_id", currentUser(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list connections"})
		return
	}
	if conns == nil {
		conns = []models.Connection{}
	}
	c.JSON(http.StatusOK, conns)
}

func (h *Handler) RequestConnection(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := currentUser(c)
	if req.TargetUserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot connect to yourself"})
		return
	}

	target, err := h.Storage.GetProfile(c.Request.Context(), req.TargetUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load target"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	conn, err := h.Storage.RequestConnection(c.Request.Context(), userID, req.TargetUserID)
	if err != nil {
		h.Log.Error("connection request failed", "user_id", userID, "target", req.TargetUserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request connection"})
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *Handler) RespondConnection(c *gin.Context) {
	var req connectionResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := lo.Ternary(req.Accept, models.ConnectionAccepted, models.ConnectionDeclined)
	conn, err := h.Storage.RespondConnection(c.Request.Context(), req.RequesterID, currentUser(c), status)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection request not found"})
		return
	}
	if err != nil {
		h.Log.Error("connection response failed", "user_id", currentUser(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to respond"})
		return
	}
	c.JSON(http.StatusOK, conn)
}

// Presence lists which of the caller's accepted connections are online.
func (h *Handler) Presence(c *gin.Context) {
	peers, err := h.Storage.AcceptedPeers(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load connections"})
		return
	}
	online := lo.Filter(peers, func(id string, _ int) bool { return h.Registry.IsOnline(id) })
	c.JSON(http.StatusOK, gin.H{"online": online})
}
