package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"learning-service/internal/auth"
	"learning-service/internal/service"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user id in
	// the Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the authenticated email.
	ContextEmailKey = "email"
	// ContextDisplayNameKey stores the display name carried in the token.
	ContextDisplayNameKey = "display_name"
	// ContextTokenKey stores the raw bearer token, for signout revocation.
	ContextTokenKey = "token"
	// ContextClaimsKey stores the parsed claims.
	ContextClaimsKey = "claims"
)

// AuthRequired ensures the request carries a valid, non-revoked JWT.
func AuthRequired(tokens *auth.Manager, blacklist *auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "empty bearer token"})
			c.Abort()
			return
		}

		if blacklist.IsRevoked(c.Request.Context(), tokenString) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextEmailKey, claims.Email)
		c.Set(ContextDisplayNameKey, claims.DisplayName)
		c.Set(ContextTokenKey, tokenString)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// AdminRequired rejects requests from accounts whose progression record does
// not carry the admin flag. Must run after AuthRequired.
func AdminRequired(progression *service.ProgressionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserIDKey)
		rec, err := progression.Record(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		if !rec.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
