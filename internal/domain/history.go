package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHistoryEntry is a write-once snapshot of one exercise, synthesized
// when its session is finished and persisted independently for historical
// analytics. Entries are never mutated after creation.
//
// The entry reuses the source exercise's ID as its own, so a retried finish
// call upserts the same documents instead of appending duplicates.
type ExerciseHistoryEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	TemplateID primitive.ObjectID `bson:"templateId" json:"templateId"`
	SessionID  primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`

	Name         string       `bson:"name" json:"name"`
	TrackingMode TrackingMode `bson:"trackingMode" json:"trackingMode"`
	Notes        string       `bson:"notes,omitempty" json:"notes,omitempty"`
	PerformedAt  time.Time    `bson:"performedAt" json:"performedAt"`

	// Sets are embedded here rather than flattened: the snapshot is
	// write-once, so targeted per-set updates are never needed.
	Sets []WorkoutSet `bson:"sets" json:"sets"`
}

// NewHistoryEntry synthesizes the history snapshot for one exercise of a
// finished session.
func NewHistoryEntry(exercise *WorkoutExercise, performedAt time.Time) ExerciseHistoryEntry {
	sets := make([]WorkoutSet, len(exercise.Sets))
	for i := range exercise.Sets {
		sets[i] = exercise.Sets[i].Clone()
	}
	return ExerciseHistoryEntry{
		ID:           exercise.ID,
		AuthorID:     exercise.AuthorID,
		TemplateID:   exercise.TemplateID,
		SessionID:    exercise.SessionID,
		ExerciseID:   exercise.ID,
		Name:         exercise.Name,
		TrackingMode: exercise.TrackingMode,
		Notes:        exercise.Notes,
		PerformedAt:  performedAt,
		Sets:         sets,
	}
}
