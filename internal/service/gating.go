package service

import "learning-service/internal/models"

// LessonState is the navigability of a single lesson for a given user.
type LessonState string

const (
	StateLocked    LessonState = "locked"
	StateUnlocked  LessonState = "unlocked"
	StateCompleted LessonState = "completed"
)

// StateOf derives the lock state of the lesson at index within the language.
// Gating is strictly sequential per language: completing lesson N unlocks
// only lesson N+1 of the same language. Progress in other languages never
// counts. Admin accounts bypass gating entirely.
func StateOf(lang *models.Language, index int, user *models.UserProgress) LessonState {
	lesson := &lang.Lessons[index]
	if user.HasCompleted(models.LessonKey(lang.ID, lesson.ID)) {
		return StateCompleted
	}
	if index == 0 {
		return StateUnlocked
	}
	if user.IsAdmin {
		return StateUnlocked
	}
	prev := &lang.Lessons[index-1]
	if user.HasCompleted(models.LessonKey(lang.ID, prev.ID)) {
		return StateUnlocked
	}
	return StateLocked
}

// NearestUnlocked walks backwards from index to the closest lesson the user
// may enter, used to redirect away from locked lessons. Index 0 is always
// reachable, so the walk terminates.
func NearestUnlocked(lang *models.Language, index int, user *models.UserProgress) int {
	for i := index; i > 0; i-- {
		if StateOf(lang, i, user) != StateLocked {
			return i
		}
	}
	return 0
}

// CompletedIn counts how many lessons of the language the user has finished.
func CompletedIn(lang *models.Language, user *models.UserProgress) int {
	n := 0
	for i := range lang.Lessons {
		if user.HasCompleted(models.LessonKey(lang.ID, lang.Lessons[i].ID)) {
			n++
		}
	}
	return n
}
