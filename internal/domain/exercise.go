package domain

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackingMode distinguishes how an exercise's sets are measured.
type TrackingMode string

const (
	TrackingWeightReps   TrackingMode = "weight_reps"   // weight + reps
	TrackingDistanceTime TrackingMode = "distance_time" // distance + duration
	TrackingOther        TrackingMode = "other"
)

// Valid reports whether m is one of the known tracking modes.
func (m TrackingMode) Valid() bool {
	switch m {
	case TrackingWeightReps, TrackingDistanceTime, TrackingOther:
		return true
	}
	return false
}

var ErrInvalidSetForMode = errors.New("set carries fields that do not match the exercise tracking mode")

// WorkoutExercise is one movement performed within a session, owning an
// ordered list of sets. Like sets, exercises are persisted flattened: the
// Sets slice is reassembled from the set collection and never stored on the
// exercise document itself.
type WorkoutExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	TemplateID primitive.ObjectID `bson:"templateId" json:"templateId"`

	Name         string       `bson:"name" json:"name"`
	TrackingMode TrackingMode `bson:"trackingMode" json:"trackingMode"`
	Notes        string       `bson:"notes,omitempty" json:"notes,omitempty"`

	// ExerciseIndex is the 1-based position within the session, dense after
	// deletes like set indices.
	ExerciseIndex int `bson:"exerciseIndex" json:"exerciseIndex"`

	Sets []WorkoutSet `bson:"-" json:"sets"`
}

// LastSet returns the final set, or nil when the exercise has none.
func (e *WorkoutExercise) LastSet() *WorkoutSet {
	if len(e.Sets) == 0 {
		return nil
	}
	return &e.Sets[len(e.Sets)-1]
}

// AllSetsCompleted reports whether every set has a completion timestamp.
// Vacuously true for an exercise with zero sets; callers deciding
// auto-advance must combine this with a non-empty check.
func (e *WorkoutExercise) AllSetsCompleted() bool {
	for i := range e.Sets {
		if !e.Sets[i].IsCompleted() {
			return false
		}
	}
	return true
}

// SetByID returns a pointer into the Sets slice, or nil if absent.
func (e *WorkoutExercise) SetByID(id primitive.ObjectID) *WorkoutSet {
	for i := range e.Sets {
		if e.Sets[i].ID == id {
			return &e.Sets[i]
		}
	}
	return nil
}

// ReindexSets restores dense 1..N set indices, preserving relative order.
func (e *WorkoutExercise) ReindexSets() {
	for i := range e.Sets {
		e.Sets[i].SetIndex = i + 1
	}
}

// Validate checks that the sets only carry metric fields relevant to the
// exercise's tracking mode. TrackingOther accepts anything.
func (e *WorkoutExercise) Validate() error {
	if !e.TrackingMode.Valid() {
		return errors.New("unknown tracking mode: " + string(e.TrackingMode))
	}
	for i := range e.Sets {
		set := &e.Sets[i]
		switch e.TrackingMode {
		case TrackingWeightReps:
			if set.DurationSec != nil || set.DistanceMeters != nil {
				return ErrInvalidSetForMode
			}
		case TrackingDistanceTime:
			if set.Reps != nil || set.WeightKg != nil {
				return ErrInvalidSetForMode
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the exercise and its sets.
func (e WorkoutExercise) Clone() WorkoutExercise {
	out := e
	if e.Sets != nil {
		out.Sets = make([]WorkoutSet, len(e.Sets))
		for i := range e.Sets {
			out.Sets[i] = e.Sets[i].Clone()
		}
	}
	return out
}

// Equal compares two exercises (including sets) by value.
func (e *WorkoutExercise) Equal(other *WorkoutExercise) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.ID != other.ID ||
		e.SessionID != other.SessionID ||
		e.AuthorID != other.AuthorID ||
		e.TemplateID != other.TemplateID ||
		e.Name != other.Name ||
		e.TrackingMode != other.TrackingMode ||
		e.Notes != other.Notes ||
		e.ExerciseIndex != other.ExerciseIndex ||
		len(e.Sets) != len(other.Sets) {
		return false
	}
	for i := range e.Sets {
		if !e.Sets[i].Equal(&other.Sets[i]) {
			return false
		}
	}
	return true
}
