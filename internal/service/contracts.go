package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"learning-service/internal/models"
)

// ProgressStore persists the per-user progression record. Find returns
// (nil, nil) when no record exists.
type ProgressStore interface {
	Find(ctx context.Context, userID string) (*models.UserProgress, error)
	Create(ctx context.Context, rec *models.UserProgress) error
	// UpdateFields applies a targeted partial update to the record. Callers
	// never overwrite whole records; disjoint fields written by concurrent
	// sessions must not clobber each other.
	UpdateFields(ctx context.Context, userID string, fields bson.M) error
	// CompleteLesson atomically appends the completion key if it is not
	// already present, deducting one coin when spendCoin is set and the
	// balance allows it. Returns whether the update applied.
	CompleteLesson(ctx context.Context, userID, key string, spendCoin bool) (bool, error)
	AdjustCoins(ctx context.Context, userID string, delta int) error
	FindAll(ctx context.Context) ([]models.UserProgress, error)
}

// AttemptStore persists lesson attempts.
type AttemptStore interface {
	Find(ctx context.Context, id string) (*models.LessonAttempt, error)
	Create(ctx context.Context, attempt *models.LessonAttempt) error
	UpdateFields(ctx context.Context, id string, fields bson.M) error
	// TransitionStatus flips the attempt status from one value to another
	// atomically, returning whether this caller won the transition.
	TransitionStatus(ctx context.Context, id string, from, to models.AttemptStatus) (bool, error)
}

// AccountStore persists credentials. FindByEmail returns (nil, nil) when no
// account exists for the email.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// EventSink receives domain events. Implementations must tolerate being
// called concurrently; publishing failures are logged, never propagated.
type EventSink interface {
	Publish(eventType string, payload interface{}) error
}
