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

// Flattened collections: one summary document per session, one document per
// exercise and per set. Children carry foreign keys back to their parents so
// any of them can be queried and updated without touching the whole tree.
const (
	sessionCollectionName  = "workout_sessions"
	exerciseCollectionName = "session_exercises"
	setCollectionName      = "session_sets"
)

// mongoSessionRepository implements repository.WorkoutSessionRepository.
type mongoSessionRepository struct {
	client    *mongo.Client
	sessions  *mongo.Collection
	exercises *mongo.Collection
	sets      *mongo.Collection
}

// NewMongoSessionRepository creates a new workout session repository.
func NewMongoSessionRepository(db *mongo.Database) repository.WorkoutSessionRepository {
	return &mongoSessionRepository{
		client:    db.Client(),
		sessions:  db.Collection(sessionCollectionName),
		exercises: db.Collection(exerciseCollectionName),
		sets:      db.Collection(setCollectionName),
	}
}

// withTransaction runs fn inside a single multi-document transaction so the
// summary, exercise and set writes of one call land atomically.
func (r *mongoSessionRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// stampTree fills in missing IDs, foreign keys and creation timestamps across
// the whole tree before it is written.
func stampTree(session *domain.WorkoutSession, now time.Time) {
	if session.ID == primitive.NilObjectID {
		session.ID = primitive.NewObjectID()
	}
	for i := range session.Exercises {
		ex := &session.Exercises[i]
		if ex.ID == primitive.NilObjectID {
			ex.ID = primitive.NewObjectID()
		}
		ex.SessionID = session.ID
		if ex.AuthorID == primitive.NilObjectID {
			ex.AuthorID = session.AuthorID
		}
		for j := range ex.Sets {
			set := &ex.Sets[j]
			if set.ID == primitive.NilObjectID {
				set.ID = primitive.NewObjectID()
			}
			set.SessionID = session.ID
			set.ExerciseID = ex.ID
			if set.AuthorID == primitive.NilObjectID {
				set.AuthorID = session.AuthorID
			}
			if set.DateCreated.IsZero() {
				set.DateCreated = now
			}
		}
	}
}

// Create writes the session summary plus one document per exercise and per
// set, all in one transaction.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.AuthorID == primitive.NilObjectID || session.Name == "" {
		return primitive.NilObjectID, errors.New("session requires authorId and name")
	}

	now := time.Now().UTC()
	if session.DateCreated.IsZero() {
		session.DateCreated = now
	}
	if session.DateModified.IsZero() {
		session.DateModified = session.DateCreated
	}
	stampTree(session, now)

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.sessions.InsertOne(sc, session); err != nil {
			return err
		}
		for i := range session.Exercises {
			ex := &session.Exercises[i]
			if _, err := r.exercises.InsertOne(sc, ex); err != nil {
				return err
			}
			for j := range ex.Sets {
				if _, err := r.sets.InsertOne(sc, &ex.Sets[j]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return session.ID, nil
}

// GetByID reads the summary document, then the exercises ordered by stored
// index, then each exercise's sets ordered by set index, and reassembles the
// nested tree.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	exCursor, err := r.exercises.Find(ctx, bson.M{"sessionId": id},
		options.Find().SetSort(bson.D{{Key: "exerciseIndex", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer exCursor.Close(ctx)

	var exercises []domain.WorkoutExercise
	if err = exCursor.All(ctx, &exercises); err != nil {
		return nil, err
	}

	for i := range exercises {
		ex := &exercises[i]
		setCursor, err := r.sets.Find(ctx,
			bson.M{"sessionId": id, "exerciseId": ex.ID},
			options.Find().SetSort(bson.D{{Key: "setIndex", Value: 1}}))
		if err != nil {
			return nil, err
		}
		var sets []domain.WorkoutSet
		if err = setCursor.All(ctx, &sets); err != nil {
			setCursor.Close(ctx)
			return nil, err
		}
		setCursor.Close(ctx)
		ex.Sets = sets
	}

	session.Exercises = exercises
	return &session, nil
}

// Update merge-upserts the summary and every exercise/set document in one
// transaction, then prunes children that are no longer part of the tree.
// Re-running it with the same session value is a no-op, which is what makes
// "Try Again" on a failed save safe.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.WorkoutSession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}
	stampTree(session, time.Now().UTC())

	keepExercises := make([]primitive.ObjectID, 0, len(session.Exercises))
	keepSets := make([]primitive.ObjectID, 0)
	for i := range session.Exercises {
		keepExercises = append(keepExercises, session.Exercises[i].ID)
		for j := range session.Exercises[i].Sets {
			keepSets = append(keepSets, session.Exercises[i].Sets[j].ID)
		}
	}

	upsert := options.Replace().SetUpsert(true)
	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.sessions.ReplaceOne(sc, bson.M{"_id": session.ID}, session, upsert); err != nil {
			return err
		}
		for i := range session.Exercises {
			ex := &session.Exercises[i]
			if _, err := r.exercises.ReplaceOne(sc, bson.M{"_id": ex.ID}, ex, upsert); err != nil {
				return err
			}
			for j := range ex.Sets {
				set := &ex.Sets[j]
				if _, err := r.sets.ReplaceOne(sc, bson.M{"_id": set.ID}, set, upsert); err != nil {
					return err
				}
			}
		}
		// Deleted exercises/sets must not survive as orphans.
		if _, err := r.sets.DeleteMany(sc, bson.M{
			"sessionId": session.ID,
			"_id":       bson.M{"$nin": keepSets},
		}); err != nil {
			return err
		}
		if _, err := r.exercises.DeleteMany(sc, bson.M{
			"sessionId": session.ID,
			"_id":       bson.M{"$nin": keepExercises},
		}); err != nil {
			return err
		}
		return nil
	})
}

// Delete removes children before the parent so a partial failure cannot
// leave set or exercise documents referencing a summary that is gone.
func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.sets.DeleteMany(ctx, bson.M{"sessionId": id}); err != nil {
		return err
	}
	if _, err := r.exercises.DeleteMany(ctx, bson.M{"sessionId": id}); err != nil {
		return err
	}
	result, err := r.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// End is the narrow finish update: only the end and modification timestamps
// are written, not the whole tree.
func (r *mongoSessionRepository) End(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"endedAt":      at,
		"dateModified": at,
	}}
	result, err := r.sessions.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByAuthor returns session summaries for listing screens, newest first.
// Exercise trees are not loaded; use GetByID for the full tree.
func (r *mongoSessionRepository) GetByAuthor(ctx context.Context, authorID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.sessions.Find(ctx, bson.M{"authorId": authorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.WorkoutSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByIDs returns summaries for the given ids, newest first.
func (r *mongoSessionRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.WorkoutSession, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.sessions.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.WorkoutSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// EnsureSessionIndexes creates the foreign-key and listing indexes the
// flattened layout depends on. Call during startup.
func EnsureSessionIndexes(ctx context.Context, db *mongo.Database) {
	sessionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "dateCreated", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "endedAt", Value: 1}}},
	}
	exerciseIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "exerciseIndex", Value: 1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "templateId", Value: 1}}},
	}
	setIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "exerciseId", Value: 1}, {Key: "setIndex", Value: 1}}},
	}
	_, _ = db.Collection(sessionCollectionName).Indexes().CreateMany(ctx, sessionIndexes)
	_, _ = db.Collection(exerciseCollectionName).Indexes().CreateMany(ctx, exerciseIndexes)
	_, _ = db.Collection(setCollectionName).Indexes().CreateMany(ctx, setIndexes)
}
