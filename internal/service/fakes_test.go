package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"learning-service/internal/models"
)

// fakeProgressStore mimics the conditional-update semantics of the Mongo
// repository so concurrency tests exercise the same guarantees.
type fakeProgressStore struct {
	mu   sync.Mutex
	recs map[string]*models.UserProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{recs: map[string]*models.UserProgress{}}
}

func copyProgress(rec *models.UserProgress) *models.UserProgress {
	cp := *rec
	cp.CompletedLessons = append([]string(nil), rec.CompletedLessons...)
	return &cp
}

func (s *fakeProgressStore) Find(ctx context.Context, userID string) (*models.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[userID]
	if !ok {
		return nil, nil
	}
	return copyProgress(rec), nil
}

func (s *fakeProgressStore) Create(ctx context.Context, rec *models.UserProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.UserID] = copyProgress(rec)
	return nil
}

func (s *fakeProgressStore) UpdateFields(ctx context.Context, userID string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[userID]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "coins":
			rec.Coins = v.(int)
		case "streak":
			rec.Streak = v.(int)
		case "last_login_date":
			rec.LastLoginDate = v.(string)
		case "is_admin":
			rec.IsAdmin = v.(bool)
		case "display_name":
			rec.DisplayName = v.(string)
		default:
			panic("fakeProgressStore: unsupported field " + k)
		}
	}
	return nil
}

func (s *fakeProgressStore) CompleteLesson(ctx context.Context, userID, key string, spendCoin bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[userID]
	if !ok {
		return false, nil
	}
	if rec.HasCompleted(key) {
		return false, nil
	}
	if spendCoin {
		if rec.Coins < 1 {
			return false, nil
		}
		rec.Coins--
	}
	rec.CompletedLessons = append(rec.CompletedLessons, key)
	return true, nil
}

func (s *fakeProgressStore) AdjustCoins(ctx context.Context, userID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[userID]; ok {
		rec.Coins += delta
	}
	return nil
}

func (s *fakeProgressStore) FindAll(ctx context.Context) ([]models.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.UserProgress, 0, len(s.recs))
	for _, rec := range s.recs {
		out = append(out, *copyProgress(rec))
	}
	return out, nil
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*models.LessonAttempt

	// failNextUpdate makes the next UpdateFields call fail once.
	failNextUpdate error
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{attempts: map[string]*models.LessonAttempt{}}
}

func copyAttempt(a *models.LessonAttempt) *models.LessonAttempt {
	cp := *a
	cp.QuizAnswers = append([]models.QuizAnswer(nil), a.QuizAnswers...)
	cp.ChallengeRuns = append([]*models.ChallengeRun(nil), a.ChallengeRuns...)
	return &cp
}

func (s *fakeAttemptStore) Find(ctx context.Context, id string) (*models.LessonAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, nil
	}
	return copyAttempt(a), nil
}

func (s *fakeAttemptStore) Create(ctx context.Context, attempt *models.LessonAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = copyAttempt(attempt)
	return nil
}

func (s *fakeAttemptStore) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNextUpdate; err != nil {
		s.failNextUpdate = nil
		return err
	}
	a, ok := s.attempts[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "phase":
			a.Phase = v.(models.AttemptPhase)
		case "status":
			a.Status = v.(models.AttemptStatus)
		case "stars":
			a.Stars = v.(int)
		case "finished_at":
			a.FinishedAt = v.(time.Time)
		case "quiz_answers":
			a.QuizAnswers = append([]models.QuizAnswer(nil), v.([]models.QuizAnswer)...)
		case "challenge_runs":
			a.ChallengeRuns = append([]*models.ChallengeRun(nil), v.([]*models.ChallengeRun)...)
		case "challenge_index":
			a.ChallengeIndex = v.(int)
		default:
			panic("fakeAttemptStore: unsupported field " + k)
		}
	}
	return nil
}

func (s *fakeAttemptStore) TransitionStatus(ctx context.Context, id string, from, to models.AttemptStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

type fakeEventSink struct {
	mu     sync.Mutex
	events []string
}

func (s *fakeEventSink) Publish(eventType string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType)
	return nil
}

func (s *fakeEventSink) count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == eventType {
			n++
		}
	}
	return n
}
