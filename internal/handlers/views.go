package handlers

import (
	"github.com/gin-gonic/gin"

	"learning-service/internal/models"
)

// userView renders a progression record for API responses. The raw coin
// count never leaves the server for admin accounts; clients see the tagged
// balance instead.
func userView(rec *models.UserProgress) gin.H {
	return gin.H{
		"user_id":           rec.UserID,
		"email":             rec.Email,
		"display_name":      rec.DisplayName,
		"balance":           rec.Balance(),
		"is_admin":          rec.IsAdmin,
		"streak":            rec.Streak,
		"last_login_date":   rec.LastLoginDate,
		"completed_lessons": rec.CompletedLessons,
		"created_at":        rec.CreatedAt,
	}
}
