package repository

import (
	"context"

	"learning-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AttemptRepository struct {
	Col *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{Col: db.Collection("lesson_attempts")}
}

func (r *AttemptRepository) Find(ctx context.Context, id string) (*models.LessonAttempt, error) {
	var attempt models.LessonAttempt
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&attempt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *models.LessonAttempt) error {
	_, err := r.Col.InsertOne(ctx, attempt)
	return err
}

func (r *AttemptRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	return err
}

// TransitionStatus flips the status only when it currently holds the
// expected value. The caller that sees ModifiedCount 1 won the transition.
func (r *AttemptRepository) TransitionStatus(ctx context.Context, id string, from, to models.AttemptStatus) (bool, error) {
	res, err := r.Col.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
