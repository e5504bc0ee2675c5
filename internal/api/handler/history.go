package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeleteHistory removes the caller's receipts, optionally only those
// exchanged with :peer_id, and replies with the number removed.
func (h *Handler) DeleteHistory(c *gin.Context) {
	var peer *string
	if raw := c.Param("peer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer id"})
			return
		}
		s := id.String()
		peer = &s
	}

	deleted, err := h.Storage.DeleteHistory(c.Request.Context(), currentUser(c), peer)
	if err != nil {
		h.Log.Error("failed to delete history", "user_id", currentUser(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete history"})
		return
	}
	c.JSON(http.StatusOK, deleted)
}
