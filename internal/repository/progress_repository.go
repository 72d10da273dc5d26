package repository

import (
	"context"

	"learning-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProgressRepository struct {
	Col *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{Col: db.Collection("user_progress")}
}

func (r *ProgressRepository) Find(ctx context.Context, userID string) (*models.UserProgress, error) {
	var rec models.UserProgress
	err := r.Col.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *ProgressRepository) Create(ctx context.Context, rec *models.UserProgress) error {
	_, err := r.Col.InsertOne(ctx, rec)
	return err
}

func (r *ProgressRepository) UpdateFields(ctx context.Context, userID string, fields bson.M) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": fields})
	return err
}

// CompleteLesson appends the completion key and, when spendCoin is set,
// deducts one coin in the same conditional update. The filter rejects the
// write when the key is already present or the balance is empty, so two
// racing completions of the same lesson can never both charge.
func (r *ProgressRepository) CompleteLesson(ctx context.Context, userID, key string, spendCoin bool) (bool, error) {
	filter := bson.M{
		"_id":               userID,
		"completed_lessons": bson.M{"$ne": key},
	}
	update := bson.M{
		"$push": bson.M{"completed_lessons": key},
	}
	if spendCoin {
		filter["coins"] = bson.M{"$gte": 1}
		update["$inc"] = bson.M{"coins": -1}
	}

	res, err := r.Col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *ProgressRepository) AdjustCoins(ctx context.Context, userID string, delta int) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$inc": bson.M{"coins": delta}})
	return err
}

func (r *ProgressRepository) FindAll(ctx context.Context) ([]models.UserProgress, error) {
	cur, err := r.Col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.UserProgress
	for cur.Next(ctx) {
		var rec models.UserProgress
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		users = append(users, rec)
	}
	return users, cur.Err()
}
