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

const unitPrefCollectionName = "unit_preferences"

// mongoUnitPreferenceRepository implements repository.UnitPreferenceRepository.
// Each preference is one document keyed by (authorId, exerciseTemplateId), so
// every Get/Set is a single atomic operation on the store.
type mongoUnitPreferenceRepository struct {
	collection *mongo.Collection
}

// NewMongoUnitPreferenceRepository creates a new unit preference repository.
func NewMongoUnitPreferenceRepository(db *mongo.Database) repository.UnitPreferenceRepository {
	return &mongoUnitPreferenceRepository{
		collection: db.Collection(unitPrefCollectionName),
	}
}

// Get retrieves the preference for one (user, exercise template) pair.
func (r *mongoUnitPreferenceRepository) Get(ctx context.Context, authorID, exerciseTemplateID primitive.ObjectID) (*domain.UnitPreference, error) {
	var pref domain.UnitPreference
	filter := bson.M{"authorId": authorID, "exerciseTemplateId": exerciseTemplateID}
	err := r.collection.FindOne(ctx, filter).Decode(&pref)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &pref, nil
}

// Set upserts the preference for one (user, exercise template) pair.
func (r *mongoUnitPreferenceRepository) Set(ctx context.Context, pref *domain.UnitPreference) error {
	if pref.AuthorID == primitive.NilObjectID || pref.ExerciseTemplateID == primitive.NilObjectID {
		return errors.New("unit preference requires authorId and exerciseTemplateId")
	}
	filter := bson.M{"authorId": pref.AuthorID, "exerciseTemplateId": pref.ExerciseTemplateID}
	update := bson.M{"$set": bson.M{
		"weightUnit":   pref.WeightUnit,
		"distanceUnit": pref.DistanceUnit,
		"updatedAt":    time.Now().UTC(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// EnsureUnitPreferenceIndexes creates the unique lookup index. Call during startup.
func EnsureUnitPreferenceIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "authorId", Value: 1}, {Key: "exerciseTemplateId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
