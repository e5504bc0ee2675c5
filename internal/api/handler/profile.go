package handler

import (
	"net/http"

	"babelbye/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.Storage.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		h.Log.Error("failed to load profile", "user_id", currentUser(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.Storage.UpsertProfile(c.Request.Context(), currentUser(c), update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type searchQuery struct {
	Query string `form:"query" binding:"required,min=2,max=128"`
}

func (h *Handler) SearchUsers(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.Storage.SearchUsers(c.Request.Context(), q.Query)
	if err != nil {
		h.Log.Error("search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if results == nil {
		results = []models.UserSummary{}
	}
	c.JSON(http.StatusOK, results)
}
