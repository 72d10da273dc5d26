package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"learning-service/internal/content"
	"learning-service/internal/models"
)

var (
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrLessonLocked       = errors.New("lesson is locked")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrWrongPhase         = errors.New("operation not valid in current phase")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrQuestionOutOfOrder = errors.New("questions must be answered in order")
	ErrRunRequired        = errors.New("challenge must be run before advancing")
	ErrCompletionInFlight = errors.New("completion already in progress")
)

// AttemptService drives a single lesson attempt through its phases:
// theory, quiz, challenges, completion. The attempt document is the state
// machine; every transition is validated against it and persisted as a
// targeted update.
type AttemptService struct {
	attempts    AttemptStore
	progression *ProgressionService
	catalog     *content.Catalog
	runner      ChallengeRunner
	logger      *zap.Logger
}

func NewAttemptService(attempts AttemptStore, progression *ProgressionService, catalog *content.Catalog, logger *zap.Logger) *AttemptService {
	return &AttemptService{
		attempts:    attempts,
		progression: progression,
		catalog:     catalog,
		logger:      logger,
	}
}

// Start opens a new attempt after verifying the lesson exists and is not
// locked for the user.
func (s *AttemptService) Start(ctx context.Context, userID, languageID, lessonID string) (*models.LessonAttempt, error) {
	lang, err := s.catalog.Language(languageID)
	if err != nil {
		return nil, ErrLessonNotFound
	}
	idx := lang.LessonIndex(lessonID)
	if idx < 0 {
		return nil, ErrLessonNotFound
	}

	rec, err := s.progression.Record(ctx, userID)
	if err != nil {
		return nil, err
	}
	if StateOf(lang, idx, rec) == StateLocked {
		return nil, ErrLessonLocked
	}

	lesson := &lang.Lessons[idx]
	attempt := &models.LessonAttempt{
		ID:             uuid.NewString(),
		UserID:         userID,
		LanguageID:     languageID,
		LessonID:       lessonID,
		Phase:          models.PhaseTheory,
		Status:         models.AttemptActive,
		QuizTotal:      len(lesson.Quiz),
		QuizAnswers:    []models.QuizAnswer{},
		ChallengeTotal: len(lesson.Challenges),
		ChallengeRuns:  make([]*models.ChallengeRun, len(lesson.Challenges)),
		StartedAt:      time.Now().UTC(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("creating attempt: %w", err)
	}
	return attempt, nil
}

// Get loads an attempt owned by the user.
func (s *AttemptService) Get(ctx context.Context, id, userID string) (*models.LessonAttempt, error) {
	attempt, err := s.attempts.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading attempt: %w", err)
	}
	if attempt == nil || attempt.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

// AdvanceTheory moves the attempt from theory into the quiz. Theory has no
// scoring and exactly one forward transition.
func (s *AttemptService) AdvanceTheory(ctx context.Context, id, userID string) (*models.LessonAttempt, error) {
	attempt, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Phase != models.PhaseTheory {
		return nil, ErrWrongPhase
	}
	attempt.Phase = models.PhaseQuiz
	if attempt.QuizTotal == 0 {
		attempt.Phase = models.PhaseChallenge
	}
	if err := s.attempts.UpdateFields(ctx, id, bson.M{"phase": attempt.Phase}); err != nil {
		return nil, fmt.Errorf("advancing attempt: %w", err)
	}
	return attempt, nil
}

// AnswerQuiz records the answer to the question at the given index.
// Questions are strictly sequential and answers are immutable once given.
// Answering the last question moves the attempt into the challenge phase,
// or straight to completion for lessons without challenges.
func (s *AttemptService) AnswerQuiz(ctx context.Context, id, userID string, question, answer int) (*models.LessonAttempt, error) {
	attempt, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Phase != models.PhaseQuiz {
		return nil, ErrWrongPhase
	}
	if question < len(attempt.QuizAnswers) {
		return nil, ErrAlreadyAnswered
	}
	if question > len(attempt.QuizAnswers) || question >= attempt.QuizTotal {
		return nil, ErrQuestionOutOfOrder
	}

	lesson, err := s.catalog.Lesson(attempt.LanguageID, attempt.LessonID)
	if err != nil {
		return nil, ErrLessonNotFound
	}
	q := lesson.Quiz[question]
	correct := answer >= 0 && answer < len(q.Options) && answer == q.CorrectAnswer
	attempt.QuizAnswers = append(attempt.QuizAnswers, models.QuizAnswer{Selected: answer, Correct: correct})

	fields := bson.M{"quiz_answers": attempt.QuizAnswers}
	if len(attempt.QuizAnswers) == attempt.QuizTotal {
		attempt.Phase = models.PhaseChallenge
		fields["phase"] = attempt.Phase
	}
	if err := s.attempts.UpdateFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("recording answer: %w", err)
	}

	if attempt.Phase == models.PhaseChallenge && attempt.ChallengeTotal == 0 {
		return s.finish(ctx, attempt)
	}
	return attempt, nil
}

// RunChallenge executes the learner's code against the simulator and records
// output and verdict for the current challenge. Runs can repeat freely; only
// the latest one is kept.
func (s *AttemptService) RunChallenge(ctx context.Context, id, userID, code string) (*models.LessonAttempt, error) {
	attempt, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Phase != models.PhaseChallenge || attempt.ChallengeIndex >= attempt.ChallengeTotal {
		return nil, ErrWrongPhase
	}

	lesson, err := s.catalog.Lesson(attempt.LanguageID, attempt.LessonID)
	if err != nil {
		return nil, ErrLessonNotFound
	}
	challenge := lesson.Challenges[attempt.ChallengeIndex]

	output := s.runner.Execute(code)
	run := &models.ChallengeRun{
		Code:    code,
		Output:  output,
		Correct: MatchesExpected(output, challenge.ExpectedOutput),
		RunAt:   time.Now().UTC(),
	}
	attempt.ChallengeRuns[attempt.ChallengeIndex] = run

	if err := s.attempts.UpdateFields(ctx, id, bson.M{"challenge_runs": attempt.ChallengeRuns}); err != nil {
		return nil, fmt.Errorf("recording challenge run: %w", err)
	}
	return attempt, nil
}

// AdvanceChallenge moves to the next challenge, or finishes the attempt
// after the last one. Advancing requires at least one recorded run of the
// current challenge; correctness does not gate it.
func (s *AttemptService) AdvanceChallenge(ctx context.Context, id, userID string) (*models.LessonAttempt, error) {
	attempt, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Phase != models.PhaseChallenge {
		return nil, ErrWrongPhase
	}
	// A challenge-less attempt can sit in this phase when a prior finish
	// failed; there is nothing to run, so go straight back to finishing.
	if attempt.ChallengeIndex >= attempt.ChallengeTotal {
		return s.finish(ctx, attempt)
	}
	if attempt.ChallengeRuns[attempt.ChallengeIndex] == nil {
		return nil, ErrRunRequired
	}

	if attempt.ChallengeIndex < attempt.ChallengeTotal-1 {
		attempt.ChallengeIndex++
		if err := s.attempts.UpdateFields(ctx, id, bson.M{"challenge_index": attempt.ChallengeIndex}); err != nil {
			return nil, fmt.Errorf("advancing challenge: %w", err)
		}
		return attempt, nil
	}
	return s.finish(ctx, attempt)
}

// Skip jumps from any non-terminal phase straight to scoring and
// completion. Unattempted quiz questions and challenges count as incorrect.
func (s *AttemptService) Skip(ctx context.Context, id, userID string) (*models.LessonAttempt, error) {
	attempt, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Phase == models.PhaseComplete {
		return nil, ErrWrongPhase
	}
	return s.finish(ctx, attempt)
}

// finish computes the star rating and records the completion exactly once
// per attempt. The status flip to "completing" is a conditional update, so a
// second finish racing the first loses and is rejected. When the coin debit
// fails the attempt reverts to active and stays retryable without
// re-charging.
func (s *AttemptService) finish(ctx context.Context, attempt *models.LessonAttempt) (*models.LessonAttempt, error) {
	won, err := s.attempts.TransitionStatus(ctx, attempt.ID, models.AttemptActive, models.AttemptCompleting)
	if err != nil {
		return nil, fmt.Errorf("claiming completion: %w", err)
	}
	if !won {
		return nil, ErrCompletionInFlight
	}

	stars := models.StarsFor(attempt.Score())

	if _, err := s.progression.CompleteLesson(ctx, attempt.UserID, attempt.LessonKey()); err != nil {
		if _, revertErr := s.attempts.TransitionStatus(ctx, attempt.ID, models.AttemptCompleting, models.AttemptActive); revertErr != nil {
			s.logger.Error("reverting attempt status failed",
				zap.String("attempt_id", attempt.ID), zap.Error(revertErr))
		}
		return nil, err
	}

	attempt.Phase = models.PhaseComplete
	attempt.Status = models.AttemptComplete
	attempt.Stars = stars
	attempt.FinishedAt = time.Now().UTC()
	err = s.attempts.UpdateFields(ctx, attempt.ID, bson.M{
		"phase":       attempt.Phase,
		"status":      attempt.Status,
		"stars":       attempt.Stars,
		"finished_at": attempt.FinishedAt,
	})
	if err != nil {
		// The completion is already recorded; revert the claim so a retry
		// can finish the attempt. The repeat CompleteLesson call is
		// idempotent and charges nothing.
		if _, revertErr := s.attempts.TransitionStatus(ctx, attempt.ID, models.AttemptCompleting, models.AttemptActive); revertErr != nil {
			s.logger.Error("reverting attempt status failed",
				zap.String("attempt_id", attempt.ID), zap.Error(revertErr))
		}
		return nil, fmt.Errorf("finalizing attempt: %w", err)
	}
	return attempt, nil
}
