package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"learning-service/internal/auth"
	"learning-service/internal/middleware"
	"learning-service/internal/models"
	"learning-service/internal/service"
)

type AuthHandler struct {
	Accounts    service.AccountStore
	Progression *service.ProgressionService
	Tokens      *auth.Manager
	Blacklist   *auth.Blacklist
}

func NewAuthHandler(accounts service.AccountStore, progression *service.ProgressionService, tokens *auth.Manager, blacklist *auth.Blacklist) *AuthHandler {
	return &AuthHandler{
		Accounts:    accounts,
		Progression: progression,
		Tokens:      tokens,
		Blacklist:   blacklist,
	}
}

// Signup registers a new account and signs it in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := h.Accounts.FindByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = displayNameFromEmail(email)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Accounts.Create(c.Request.Context(), account); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	h.issueSession(c, http.StatusCreated, account)
}

// Signin authenticates email/password credentials.
func (h *AuthHandler) Signin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	account, err := h.Accounts.FindByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}
	if account == nil || !auth.CheckPassword(account.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.issueSession(c, http.StatusOK, account)
}

// Signout revokes the current token until its natural expiration.
func (h *AuthHandler) Signout(c *gin.Context) {
	token := c.GetString(middleware.ContextTokenKey)
	claims, ok := c.MustGet(middleware.ContextClaimsKey).(*auth.Claims)
	if !ok || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	h.Blacklist.Revoke(c.Request.Context(), token, claims.ExpiresAt.Time)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// Federated is a placeholder for provider-based sign-in.
func (h *AuthHandler) Federated(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": "Federated sign-in is not supported"})
}

// issueSession loads (or creates) the progression record, which also runs the
// daily reset, then responds with a fresh token and the current user view.
func (h *AuthHandler) issueSession(c *gin.Context, status int, account *models.Account) {
	rec, err := h.Progression.LoadOrCreate(c.Request.Context(), account.ID, account.Email, account.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	token, err := h.Tokens.Generate(account.ID, account.Email, rec.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(status, gin.H{
		"token": token,
		"user":  userView(rec),
	})
}

func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
