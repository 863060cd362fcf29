package mongo

import (
	"context"
	"errors"

	"openlift/tracking-app/internal/domain"
	"openlift/tracking-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const historyCollectionName = "exercise_history"

// mongoHistoryRepository implements repository.ExerciseHistoryRepository.
type mongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository creates a new exercise history repository.
func NewMongoHistoryRepository(db *mongo.Database) repository.ExerciseHistoryRepository {
	return &mongoHistoryRepository{
		collection: db.Collection(historyCollectionName),
	}
}

// CreateMany upserts entries by their (exercise-derived) ID. A retried
// finish call therefore replaces the same documents instead of appending.
func (r *mongoHistoryRepository) CreateMany(ctx context.Context, entries []domain.ExerciseHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	upsert := options.Replace().SetUpsert(true)
	for i := range entries {
		entry := &entries[i]
		if entry.ID == primitive.NilObjectID {
			return errors.New("history entry ID is required")
		}
		if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, upsert); err != nil {
			return err
		}
	}
	return nil
}

// GetByAuthorAndTemplate returns history snapshots for one exercise
// definition, most recent first.
func (r *mongoHistoryRepository) GetByAuthorAndTemplate(ctx context.Context, authorID, templateID primitive.ObjectID, limit int64) ([]domain.ExerciseHistoryEntry, error) {
	filter := bson.M{"authorId": authorID, "templateId": templateID}
	findOptions := options.Find().SetSort(bson.D{{Key: "performedAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.ExerciseHistoryEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureHistoryIndexes creates indexes for the history queries. Call during startup.
func EnsureHistoryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "templateId", Value: 1}, {Key: "performedAt", Value: -1}}},
		{Keys: bson.D{{Key: "sessionId", Value: 1}}},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
