package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"learning-service/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientCoins = errors.New("insufficient coins")
)

// CompletionOutcome distinguishes a fresh completion from the idempotent
// repeat case; neither is an error.
type CompletionOutcome int

const (
	LessonCompleted CompletionOutcome = iota
	LessonAlreadyCompleted
)

const dateLayout = "2006-01-02"

// ProgressionService owns every read and write of progression records:
// record creation, the daily coin/streak reset, admin promotion, coin
// spending on lesson completion and manual coin adjustments.
type ProgressionService struct {
	store      ProgressStore
	events     EventSink
	logger     *zap.Logger
	adminEmail string
	dailyCoins int
	now        func() time.Time
}

func NewProgressionService(store ProgressStore, events EventSink, logger *zap.Logger, adminEmail string, dailyCoins int) *ProgressionService {
	return &ProgressionService{
		store:      store,
		events:     events,
		logger:     logger,
		adminEmail: adminEmail,
		dailyCoins: dailyCoins,
		now:        time.Now,
	}
}

func (s *ProgressionService) today() string {
	return s.now().UTC().Format(dateLayout)
}

func previousDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(dateLayout)
}

// LoadOrCreate fetches the progression record for the authenticated user,
// creating it on first sign-in. Existing records are re-checked for admin
// promotion (one-way, never reverted) and, for non-admins, run through the
// daily reset. At most two store writes happen per call.
func (s *ProgressionService) LoadOrCreate(ctx context.Context, userID, email, displayName string) (*models.UserProgress, error) {
	rec, err := s.store.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading progression record: %w", err)
	}

	if rec == nil {
		isAdmin := s.adminEmail != "" && email == s.adminEmail
		rec = &models.UserProgress{
			UserID:           userID,
			Email:            email,
			DisplayName:      displayName,
			Coins:            s.dailyCoins,
			IsAdmin:          isAdmin,
			CompletedLessons: []string{},
			Streak:           1,
			LastLoginDate:    s.today(),
			CreatedAt:        s.now().UTC(),
		}
		if err := s.store.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("creating progression record: %w", err)
		}
		s.publish("user.registered", bson.M{"user_id": userID, "is_admin": isAdmin})
		return rec, nil
	}

	// One-way promotion: the comparison runs on every load so accounts that
	// predate the admin setting still get flagged, but the flag never
	// comes back off.
	if !rec.IsAdmin && s.adminEmail != "" && email == s.adminEmail {
		if err := s.store.UpdateFields(ctx, userID, bson.M{"is_admin": true}); err != nil {
			return nil, fmt.Errorf("promoting admin: %w", err)
		}
		rec.IsAdmin = true
		s.logger.Info("promoted account to admin", zap.String("user_id", userID))
	}

	if !rec.IsAdmin {
		if err := s.applyDailyReset(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Record returns the current progression record without side effects.
func (s *ProgressionService) Record(ctx context.Context, userID string) (*models.UserProgress, error) {
	rec, err := s.store.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading progression record: %w", err)
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	return rec, nil
}

// applyDailyReset replenishes coins and recomputes the streak once per
// calendar day. Same-day calls are no-ops. The three fields go out in a
// single targeted update; two racing resets for the same stale date converge
// to the same state, so last-write-wins is safe here.
func (s *ProgressionService) applyDailyReset(ctx context.Context, rec *models.UserProgress) error {
	today := s.today()
	if rec.LastLoginDate == today {
		return nil
	}

	streak := 1
	if rec.LastLoginDate == previousDate(today) {
		// Missing even one calendar day resets to 1, not 0: the day of
		// return still counts.
		streak = rec.Streak + 1
	}

	err := s.store.UpdateFields(ctx, rec.UserID, bson.M{
		"coins":           s.dailyCoins,
		"streak":          streak,
		"last_login_date": today,
	})
	if err != nil {
		return fmt.Errorf("applying daily reset: %w", err)
	}

	if streak > rec.Streak {
		s.publish("streak.extended", bson.M{"user_id": rec.UserID, "streak": streak})
	}
	rec.Coins = s.dailyCoins
	rec.Streak = streak
	rec.LastLoginDate = today
	return nil
}

// CompleteLesson records a lesson completion, charging one coin for
// non-admins. Repeat completions are idempotent successes. The debit and the
// key append ride a single conditional update, so two racing sessions can
// never both charge for the same key.
func (s *ProgressionService) CompleteLesson(ctx context.Context, userID, key string) (CompletionOutcome, error) {
	rec, err := s.Record(ctx, userID)
	if err != nil {
		return 0, err
	}
	if rec.HasCompleted(key) {
		return LessonAlreadyCompleted, nil
	}
	if !rec.IsAdmin && rec.Coins < 1 {
		return 0, ErrInsufficientCoins
	}

	applied, err := s.store.CompleteLesson(ctx, userID, key, !rec.IsAdmin)
	if err != nil {
		return 0, fmt.Errorf("completing lesson %s: %w", key, err)
	}
	if applied {
		s.publish("lesson.completed", bson.M{"user_id": userID, "lesson_key": key})
		return LessonCompleted, nil
	}

	// The conditional update matched nothing: either a concurrent session
	// completed the lesson first, or the last coin was spent in between.
	rec, err = s.Record(ctx, userID)
	if err != nil {
		return 0, err
	}
	if rec.HasCompleted(key) {
		return LessonAlreadyCompleted, nil
	}
	return 0, ErrInsufficientCoins
}

// AdjustCoins adds delta to a non-admin balance. Admin balances are not
// tracked as finite, so the call is a no-op for them. No clamping: the
// caller owns non-negativity.
func (s *ProgressionService) AdjustCoins(ctx context.Context, userID string, delta int) error {
	rec, err := s.Record(ctx, userID)
	if err != nil {
		return err
	}
	if rec.IsAdmin {
		return nil
	}
	if err := s.store.AdjustCoins(ctx, userID, delta); err != nil {
		return fmt.Errorf("adjusting coins: %w", err)
	}
	return nil
}

// UpdateDisplayName changes the user-editable display label.
func (s *ProgressionService) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	if err := s.store.UpdateFields(ctx, userID, bson.M{"display_name": displayName}); err != nil {
		return fmt.Errorf("updating display name: %w", err)
	}
	return nil
}

// ListUsers returns every progression record, for the admin panel.
func (s *ProgressionService) ListUsers(ctx context.Context) ([]models.UserProgress, error) {
	users, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *ProgressionService) publish(eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(eventType, payload); err != nil {
		s.logger.Warn("publishing event failed", zap.String("type", eventType), zap.Error(err))
	}
}
