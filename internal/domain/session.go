package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSession is one performed (or in-progress) workout instance, owning
// an ordered list of exercises. EndedAt == nil means the session is still in
// progress. The Exercises slice is persisted flattened across the exercise
// and set collections, never embedded in the session document.
type WorkoutSession struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID primitive.ObjectID `bson:"authorId" json:"authorId"`
	Name     string             `bson:"name" json:"name"`

	// Provenance links back to whatever the session was started from.
	WorkoutTemplateID   *primitive.ObjectID `bson:"workoutTemplateId,omitempty" json:"workoutTemplateId,omitempty"`
	ScheduledWorkoutID  *primitive.ObjectID `bson:"scheduledWorkoutId,omitempty" json:"scheduledWorkoutId,omitempty"`
	TrainingPlanID      *primitive.ObjectID `bson:"trainingPlanId,omitempty" json:"trainingPlanId,omitempty"`
	ProgramID           *primitive.ObjectID `bson:"programId,omitempty" json:"programId,omitempty"`
	DayPlanID           *primitive.ObjectID `bson:"dayPlanId,omitempty" json:"dayPlanId,omitempty"`

	DateCreated  time.Time  `bson:"dateCreated" json:"dateCreated"`
	DateModified time.Time  `bson:"dateModified" json:"dateModified"`
	EndedAt      *time.Time `bson:"endedAt,omitempty" json:"endedAt,omitempty"`
	Notes        string     `bson:"notes,omitempty" json:"notes,omitempty"`

	Exercises []WorkoutExercise `bson:"-" json:"exercises"`
}

// InProgress reports whether the session has not been ended yet.
func (s *WorkoutSession) InProgress() bool {
	return s.EndedAt == nil
}

// UpdateExercises is the single write path for the exercise tree. It replaces
// the exercises and bumps DateModified in the same step, so no reader ever
// observes a mutated tree with a stale modification timestamp. DateModified
// only moves forward.
func (s *WorkoutSession) UpdateExercises(exercises []WorkoutExercise, now time.Time) {
	s.Exercises = exercises
	if now.After(s.DateModified) {
		s.DateModified = now
	}
}

// ExerciseByID returns a pointer into the Exercises slice, or nil if absent.
func (s *WorkoutSession) ExerciseByID(id primitive.ObjectID) *WorkoutExercise {
	for i := range s.Exercises {
		if s.Exercises[i].ID == id {
			return &s.Exercises[i]
		}
	}
	return nil
}

// ReindexExercises restores dense 1..N exercise indices.
func (s *WorkoutSession) ReindexExercises() {
	for i := range s.Exercises {
		s.Exercises[i].ExerciseIndex = i + 1
	}
}

// Clone returns a deep copy of the whole session tree. Edit mode works on a
// clone so a discard can restore the original untouched.
func (s *WorkoutSession) Clone() *WorkoutSession {
	out := *s
	out.WorkoutTemplateID = cloneObjectIDPtr(s.WorkoutTemplateID)
	out.ScheduledWorkoutID = cloneObjectIDPtr(s.ScheduledWorkoutID)
	out.TrainingPlanID = cloneObjectIDPtr(s.TrainingPlanID)
	out.ProgramID = cloneObjectIDPtr(s.ProgramID)
	out.DayPlanID = cloneObjectIDPtr(s.DayPlanID)
	out.EndedAt = cloneTimePtr(s.EndedAt)
	if s.Exercises != nil {
		out.Exercises = make([]WorkoutExercise, len(s.Exercises))
		for i := range s.Exercises {
			out.Exercises[i] = s.Exercises[i].Clone()
		}
	}
	return &out
}

// Equal compares two sessions (including the full exercise/set tree) by
// value. Used to decide whether an edit-mode draft has unsaved changes.
func (s *WorkoutSession) Equal(other *WorkoutSession) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.ID != other.ID ||
		s.AuthorID != other.AuthorID ||
		s.Name != other.Name ||
		!objectIDPtrEqual(s.WorkoutTemplateID, other.WorkoutTemplateID) ||
		!objectIDPtrEqual(s.ScheduledWorkoutID, other.ScheduledWorkoutID) ||
		!objectIDPtrEqual(s.TrainingPlanID, other.TrainingPlanID) ||
		!objectIDPtrEqual(s.ProgramID, other.ProgramID) ||
		!objectIDPtrEqual(s.DayPlanID, other.DayPlanID) ||
		!s.DateCreated.Equal(other.DateCreated) ||
		!s.DateModified.Equal(other.DateModified) ||
		!timePtrEqual(s.EndedAt, other.EndedAt) ||
		s.Notes != other.Notes ||
		len(s.Exercises) != len(other.Exercises) {
		return false
	}
	for i := range s.Exercises {
		if !s.Exercises[i].Equal(&other.Exercises[i]) {
			return false
		}
	}
	return true
}
