package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutSet is one discrete performance unit within an exercise: a number of
// reps at a weight, or a distance over a duration. Which metric fields are
// meaningful is decided by the owning exercise's TrackingMode.
//
// Sets are persisted as their own documents (not nested inside the exercise),
// so they carry foreign keys back to the session and exercise.
type WorkoutSet struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SessionID  primitive.ObjectID  `bson:"sessionId" json:"sessionId"`
	ExerciseID primitive.ObjectID  `bson:"exerciseId" json:"exerciseId"`
	AuthorID   primitive.ObjectID  `bson:"authorId" json:"authorId"`
	TemplateID *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"`

	// SetIndex is the 1-based position within the owning exercise. Indices
	// stay dense (1..N): deleting a set re-indexes the remaining ones.
	SetIndex int `bson:"setIndex" json:"setIndex"`

	Reps           *int     `bson:"reps,omitempty" json:"reps,omitempty"`
	WeightKg       *float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	DurationSec    *int     `bson:"durationSec,omitempty" json:"durationSec,omitempty"`
	DistanceMeters *float64 `bson:"distanceMeters,omitempty" json:"distanceMeters,omitempty"`
	RPE            *float64 `bson:"rpe,omitempty" json:"rpe,omitempty"`

	IsWarmup bool `bson:"isWarmup" json:"isWarmup"`

	// CompletedAt being non-nil means the set is done.
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	DateCreated time.Time `bson:"dateCreated" json:"dateCreated"`
}

// IsCompleted reports whether the set has been marked done.
func (s *WorkoutSet) IsCompleted() bool {
	return s.CompletedAt != nil
}

// Clone returns a deep copy of the set (pointer fields duplicated).
func (s WorkoutSet) Clone() WorkoutSet {
	out := s
	out.TemplateID = cloneObjectIDPtr(s.TemplateID)
	out.Reps = cloneIntPtr(s.Reps)
	out.WeightKg = cloneFloatPtr(s.WeightKg)
	out.DurationSec = cloneIntPtr(s.DurationSec)
	out.DistanceMeters = cloneFloatPtr(s.DistanceMeters)
	out.RPE = cloneFloatPtr(s.RPE)
	out.CompletedAt = cloneTimePtr(s.CompletedAt)
	return out
}

// Equal compares two sets by value.
func (s *WorkoutSet) Equal(other *WorkoutSet) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.ID == other.ID &&
		s.SessionID == other.SessionID &&
		s.ExerciseID == other.ExerciseID &&
		s.AuthorID == other.AuthorID &&
		objectIDPtrEqual(s.TemplateID, other.TemplateID) &&
		s.SetIndex == other.SetIndex &&
		intPtrEqual(s.Reps, other.Reps) &&
		floatPtrEqual(s.WeightKg, other.WeightKg) &&
		intPtrEqual(s.DurationSec, other.DurationSec) &&
		floatPtrEqual(s.DistanceMeters, other.DistanceMeters) &&
		floatPtrEqual(s.RPE, other.RPE) &&
		s.IsWarmup == other.IsWarmup &&
		timePtrEqual(s.CompletedAt, other.CompletedAt) &&
		s.DateCreated.Equal(other.DateCreated)
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneObjectIDPtr(p *primitive.ObjectID) *primitive.ObjectID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func objectIDPtrEqual(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
