package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learning-service/internal/content"
	"learning-service/internal/middleware"
	"learning-service/internal/service"
)

type CatalogHandler struct {
	Catalog     *content.Catalog
	Progression *service.ProgressionService
}

func NewCatalogHandler(catalog *content.Catalog, progression *service.ProgressionService) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog, Progression: progression}
}

// ListLanguages returns the language catalog without lesson bodies. Public:
// the catalog is static content, no user state leaks here.
func (h *CatalogHandler) ListLanguages(c *gin.Context) {
	langs := h.Catalog.Languages()
	out := make([]gin.H, 0, len(langs))
	for _, lang := range langs {
		out = append(out, gin.H{
			"id":           lang.ID,
			"name":         lang.Name,
			"icon":         lang.Icon,
			"color":        lang.Color,
			"description":  lang.Description,
			"lesson_count": len(lang.Lessons),
		})
	}
	c.JSON(http.StatusOK, gin.H{"languages": out})
}

// GetLanguage returns the lesson list of one language, annotated with the
// caller's lock state per lesson.
func (h *CatalogHandler) GetLanguage(c *gin.Context) {
	lang, err := h.Catalog.Language(c.Param("languageId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Language not found"})
		return
	}

	rec, err := h.Progression.Record(c.Request.Context(), c.GetString(middleware.ContextUserIDKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load progress"})
		return
	}

	lessons := make([]gin.H, 0, len(lang.Lessons))
	for i := range lang.Lessons {
		lesson := &lang.Lessons[i]
		lessons = append(lessons, gin.H{
			"id":          lesson.ID,
			"title":       lesson.Title,
			"description": lesson.Description,
			"duration":    lesson.Duration,
			"xp":          lesson.XP,
			"state":       service.StateOf(lang, i, rec),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          lang.ID,
		"name":        lang.Name,
		"icon":        lang.Icon,
		"color":       lang.Color,
		"description": lang.Description,
		"lessons":     lessons,
		"completed":   service.CompletedIn(lang, rec),
	})
}

// GetLesson returns the full lesson body. Locked lessons are rejected with
// the nearest reachable lesson so clients can redirect instead of dead-end.
func (h *CatalogHandler) GetLesson(c *gin.Context) {
	lang, err := h.Catalog.Language(c.Param("languageId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Language not found"})
		return
	}
	idx := lang.LessonIndex(c.Param("lessonId"))
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		return
	}

	rec, err := h.Progression.Record(c.Request.Context(), c.GetString(middleware.ContextUserIDKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load progress"})
		return
	}

	state := service.StateOf(lang, idx, rec)
	if state == service.StateLocked {
		redirect := service.NearestUnlocked(lang, idx, rec)
		c.JSON(http.StatusForbidden, gin.H{
			"error":              "Lesson is locked",
			"redirect_lesson_id": lang.Lessons[redirect].ID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"language_id": lang.ID,
		"lesson":      lang.Lessons[idx],
		"state":       state,
	})
}
