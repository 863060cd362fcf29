package mongo

import (
	"context"
	"errors"
	"time"

	"openlift/tracking-app/internal/domain"
	"openlift/tracking-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scheduledCollectionName = "scheduled_workouts"

// mongoScheduledWorkoutRepository implements repository.ScheduledWorkoutRepository.
type mongoScheduledWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduledWorkoutRepository creates a new scheduled workout repository.
func NewMongoScheduledWorkoutRepository(db *mongo.Database) repository.ScheduledWorkoutRepository {
	return &mongoScheduledWorkoutRepository{
		collection: db.Collection(scheduledCollectionName),
	}
}

// Create inserts a new calendar occurrence.
func (r *mongoScheduledWorkoutRepository) Create(ctx context.Context, scheduled *domain.ScheduledWorkout) (primitive.ObjectID, error) {
	if scheduled.AuthorID == primitive.NilObjectID || scheduled.WorkoutTemplateID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("scheduled workout requires authorId and workoutTemplateId")
	}

	scheduled.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	scheduled.CreatedAt = now
	scheduled.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, scheduled)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves one occurrence.
func (r *mongoScheduledWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	var scheduled domain.ScheduledWorkout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&scheduled)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &scheduled, nil
}

// GetByAuthorAndRange retrieves occurrences in [from, to), ordered by date.
func (r *mongoScheduledWorkoutRepository) GetByAuthorAndRange(ctx context.Context, authorID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledWorkout, error) {
	filter := bson.M{
		"authorId": authorID,
		"date":     bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var scheduled []domain.ScheduledWorkout
	if err = cursor.All(ctx, &scheduled); err != nil {
		return nil, err
	}
	return scheduled, nil
}

// Update replaces the mutable fields (date, template) of an occurrence.
func (r *mongoScheduledWorkoutRepository) Update(ctx context.Context, scheduled *domain.ScheduledWorkout) error {
	if scheduled.ID == primitive.NilObjectID {
		return errors.New("scheduled workout ID is required for update")
	}
	update := bson.M{"$set": bson.M{
		"workoutTemplateId": scheduled.WorkoutTemplateID,
		"date":              scheduled.Date,
		"isCompleted":       scheduled.IsCompleted,
		"isMissed":          scheduled.IsMissed,
		"updatedAt":         time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": scheduled.ID, "authorId": scheduled.AuthorID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Complete links a finished session to the occurrence in one narrow update.
func (r *mongoScheduledWorkoutRepository) Complete(ctx context.Context, id, sessionID primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"completedSessionId": sessionID,
		"isCompleted":        true,
		"isMissed":           false,
		"updatedAt":          at,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkMissed flags a never-performed, past-dated occurrence.
func (r *mongoScheduledWorkoutRepository) MarkMissed(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	// Completed occurrences cannot become missed.
	filter := bson.M{"_id": id, "isCompleted": false}
	update := bson.M{"$set": bson.M{
		"isMissed":  true,
		"updatedAt": at,
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an occurrence, checking ownership in the filter.
func (r *mongoScheduledWorkoutRepository) Delete(ctx context.Context, id, authorID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "authorId": authorID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureScheduledWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureScheduledWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "completedSessionId", Value: 1}}},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
