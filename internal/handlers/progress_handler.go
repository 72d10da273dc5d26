package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learning-service/internal/content"
	"learning-service/internal/middleware"
	"learning-service/internal/service"
)

type ProgressHandler struct {
	Progression *service.ProgressionService
	Catalog     *content.Catalog
}

func NewProgressHandler(progression *service.ProgressionService, catalog *content.Catalog) *ProgressHandler {
	return &ProgressHandler{Progression: progression, Catalog: catalog}
}

// Me returns the dashboard view for the authenticated user. Loading it runs
// the daily reset, so the first request of a new day replenishes coins and
// moves the streak.
func (h *ProgressHandler) Me(c *gin.Context) {
	rec, err := h.Progression.LoadOrCreate(
		c.Request.Context(),
		c.GetString(middleware.ContextUserIDKey),
		c.GetString(middleware.ContextEmailKey),
		c.GetString(middleware.ContextDisplayNameKey),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	all := h.Catalog.Languages()
	languages := make([]gin.H, 0, len(all))
	for i := range all {
		lang := &all[i]
		languages = append(languages, gin.H{
			"id":        lang.ID,
			"name":      lang.Name,
			"icon":      lang.Icon,
			"color":     lang.Color,
			"completed": service.CompletedIn(lang, rec),
			"total":     len(lang.Lessons),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            userView(rec),
		"recent_activity": rec.RecentCompletions(5),
		"languages":       languages,
	})
}

// UpdateProfile changes the display name.
func (h *ProgressHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)
	if err := h.Progression.UpdateDisplayName(c.Request.Context(), userID, req.DisplayName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// ListUsers returns every progression record. Admin only.
func (h *ProgressHandler) ListUsers(c *gin.Context) {
	users, err := h.Progression.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "count": len(out)})
}

// AdjustCoins grants or removes coins on a user's balance. Admin only;
// admin balances themselves are unlimited and stay untouched.
func (h *ProgressHandler) AdjustCoins(c *gin.Context) {
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.Param("userId")
	if err := h.Progression.AdjustCoins(c.Request.Context(), userID, req.Delta); err != nil {
		if err == service.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust coins"})
		return
	}

	rec, err := h.Progression.Record(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Coins adjusted successfully",
		"user":    userView(rec),
	})
}
