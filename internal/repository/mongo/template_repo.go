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

const exerciseTemplateCollectionName = "exercise_templates"

// mongoExerciseTemplateRepository implements repository.ExerciseTemplateRepository.
type mongoExerciseTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseTemplateRepository creates a new exercise template repository.
func NewMongoExerciseTemplateRepository(db *mongo.Database) repository.ExerciseTemplateRepository {
	return &mongoExerciseTemplateRepository{
		collection: db.Collection(exerciseTemplateCollectionName),
	}
}

// Create inserts a new exercise template.
func (r *mongoExerciseTemplateRepository) Create(ctx context.Context, template *domain.ExerciseTemplate) (primitive.ObjectID, error) {
	if template.Name == "" || template.AuthorID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("template name and author ID are required")
	}

	template.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an exercise template by its ID.
func (r *mongoExerciseTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	var template domain.ExerciseTemplate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetByAuthor retrieves all exercise templates owned by a user, A-Z.
func (r *mongoExerciseTemplateRepository) GetByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]domain.ExerciseTemplate, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"authorId": authorID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []domain.ExerciseTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update replaces the mutable fields of an exercise template.
func (r *mongoExerciseTemplateRepository) Update(ctx context.Context, template *domain.ExerciseTemplate) error {
	if template.ID == primitive.NilObjectID {
		return errors.New("template ID is required for update")
	}
	update := bson.M{"$set": bson.M{
		"name":            template.Name,
		"trackingMode":    template.TrackingMode,
		"muscleGroup":     template.MuscleGroup,
		"notes":           template.Notes,
		"defaultSetCount": template.DefaultSetCount,
		"updatedAt":       time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": template.ID, "authorId": template.AuthorID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a template, checking ownership in the filter.
func (r *mongoExerciseTemplateRepository) Delete(ctx context.Context, id, authorID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "authorId": authorID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseTemplateIndexes creates necessary indexes. Call during startup.
func EnsureExerciseTemplateIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "name", Value: 1}}},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
