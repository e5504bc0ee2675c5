package handler

import (
	"net/http"
	"time"

	"babelbye/backend/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const devTokenTTL = 72 * time.Hour

// ListLanguages returns the supported native languages, named in ?lang=.
func (h *Handler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.Languages(c.DefaultQuery("lang", "en")))
}

// IssueDevToken signs a development token for ?user_id=, or for a fresh id.
// Only routed when a dev token secret is configured.
func (h *Handler) IssueDevToken(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		userID = uuid.NewString()
	} else if id, err := uuid.Parse(userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a UUID"})
		return
	} else {
		userID = id.String()
	}

	token, err := auth.IssueDevToken(h.Config.DevTokenSecret, userID, devTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": userID})
}
