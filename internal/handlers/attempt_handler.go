package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learning-service/internal/middleware"
	"learning-service/internal/models"
	"learning-service/internal/service"
)

type AttemptHandler struct {
	Attempts *service.AttemptService
}

func NewAttemptHandler(attempts *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{Attempts: attempts}
}

// Start opens a new attempt for a lesson.
func (h *AttemptHandler) Start(c *gin.Context) {
	var req struct {
		LanguageID string `json:"language_id" binding:"required"`
		LessonID   string `json:"lesson_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)
	attempt, err := h.Attempts.Start(c.Request.Context(), userID, req.LanguageID, req.LessonID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}

// Get returns the current attempt state.
func (h *AttemptHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	attempt, err := h.Attempts.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// AdvanceTheory moves from the theory phase into the quiz.
func (h *AttemptHandler) AdvanceTheory(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	attempt, err := h.Attempts.AdvanceTheory(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// AnswerQuiz records one quiz answer.
func (h *AttemptHandler) AnswerQuiz(c *gin.Context) {
	var req struct {
		Question int `json:"question"`
		Answer   int `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)
	attempt, err := h.Attempts.AnswerQuiz(c.Request.Context(), c.Param("id"), userID, req.Question, req.Answer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// RunChallenge executes the submitted code against the current challenge.
func (h *AttemptHandler) RunChallenge(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID := c.GetString(middleware.ContextUserIDKey)
	attempt, err := h.Attempts.RunChallenge(c.Request.Context(), c.Param("id"), userID, req.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	run := attempt.ChallengeRuns[attempt.ChallengeIndex]
	c.JSON(http.StatusOK, gin.H{
		"output":  run.Output,
		"correct": run.Correct,
		"attempt": attempt,
	})
}

// AdvanceChallenge moves to the next challenge or finishes the attempt.
func (h *AttemptHandler) AdvanceChallenge(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	attempt, err := h.Attempts.AdvanceChallenge(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondAttempt(c, attempt)
}

// Skip abandons the remaining phases and completes the lesson with the
// answers given so far.
func (h *AttemptHandler) Skip(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	attempt, err := h.Attempts.Skip(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondAttempt(c, attempt)
}

func (h *AttemptHandler) respondAttempt(c *gin.Context, attempt *models.LessonAttempt) {
	if attempt.Phase == models.PhaseComplete {
		c.JSON(http.StatusOK, gin.H{
			"attempt": attempt,
			"stars":   attempt.Stars,
			"message": "Lesson completed",
		})
		return
	}
	c.JSON(http.StatusOK, attempt)
}

func (h *AttemptHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLessonNotFound), errors.Is(err, service.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrLessonLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientCoins):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Not enough coins to complete the lesson"})
	case errors.Is(err, service.ErrWrongPhase),
		errors.Is(err, service.ErrAlreadyAnswered),
		errors.Is(err, service.ErrQuestionOutOfOrder),
		errors.Is(err, service.ErrRunRequired),
		errors.Is(err, service.ErrCompletionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
