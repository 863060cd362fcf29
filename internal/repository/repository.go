package repository

import (
	"context"
	"time"

	"openlift/tracking-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WorkoutSessionRepository is the persistence adapter for the session tree.
// The tree is stored flattened: a summary document per session plus one
// document per exercise and per set, each carrying foreign keys back to its
// parents so they can be queried independently.
type WorkoutSessionRepository interface {
	// Create writes the summary plus every exercise and set document as one
	// atomic batch.
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	// GetByID reassembles the nested tree from the flattened collections.
	// Returns ErrNotFound if the summary document is absent.
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	// Update merge-upserts the whole tree in one batch and prunes exercise or
	// set documents no longer present in it. Idempotent and safe to retry.
	Update(ctx context.Context, session *domain.WorkoutSession) error
	// Delete removes set documents first, then exercises, then the summary,
	// so a partial failure never leaves orphans pointing at a dead parent.
	Delete(ctx context.Context, id primitive.ObjectID) error
	// End sets only the end timestamp, so finishing a session does not
	// require re-sending the whole tree.
	End(ctx context.Context, id primitive.ObjectID, at time.Time) error
	// GetByAuthor returns session summaries (no exercise trees), newest
	// first. The caller caps limit.
	GetByAuthor(ctx context.Context, authorID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error)
	// GetByIDs returns summaries for the given ids, in stored-date order.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.WorkoutSession, error)
}

// ExerciseHistoryRepository appends write-once history snapshots.
type ExerciseHistoryRepository interface {
	// CreateMany upserts entries by ID so a retried finish stays idempotent.
	CreateMany(ctx context.Context, entries []domain.ExerciseHistoryEntry) error
	GetByAuthorAndTemplate(ctx context.Context, authorID, templateID primitive.ObjectID, limit int64) ([]domain.ExerciseHistoryEntry, error)
}

// ExerciseTemplateRepository manages the reusable exercise library.
type ExerciseTemplateRepository interface {
	Create(ctx context.Context, template *domain.ExerciseTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseTemplate, error)
	GetByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]domain.ExerciseTemplate, error)
	Update(ctx context.Context, template *domain.ExerciseTemplate) error
	Delete(ctx context.Context, id, authorID primitive.ObjectID) error
}

// WorkoutTemplateRepository manages reusable workout plans.
type WorkoutTemplateRepository interface {
	Create(ctx context.Context, template *domain.WorkoutTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	GetByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
	Update(ctx context.Context, template *domain.WorkoutTemplate) error
	Delete(ctx context.Context, id, authorID primitive.ObjectID) error
}

// ScheduledWorkoutRepository manages calendar occurrences.
type ScheduledWorkoutRepository interface {
	Create(ctx context.Context, scheduled *domain.ScheduledWorkout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error)
	GetByAuthorAndRange(ctx context.Context, authorID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledWorkout, error)
	Update(ctx context.Context, scheduled *domain.ScheduledWorkout) error
	// Complete links a finished session to the occurrence in one narrow update.
	Complete(ctx context.Context, id, sessionID primitive.ObjectID, at time.Time) error
	MarkMissed(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id, authorID primitive.ObjectID) error
}

// UnitPreferenceRepository stores per-exercise-template display units.
// Each access is a single atomic get/set, safe from multiple call sites.
type UnitPreferenceRepository interface {
	Get(ctx context.Context, authorID, exerciseTemplateID primitive.ObjectID) (*domain.UnitPreference, error)
	Set(ctx context.Context, pref *domain.UnitPreference) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateUnits(ctx context.Context, id primitive.ObjectID, weight domain.WeightUnit, distance domain.DistanceUnit) error
}
