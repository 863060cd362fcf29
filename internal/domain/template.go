package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseTemplate is a reusable exercise definition in the user's library.
// In-session exercises reference their template by ID; unit display
// preferences are also keyed per template.
type ExerciseTemplate struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID primitive.ObjectID `bson:"authorId" json:"authorId"`

	Name            string       `bson:"name" json:"name"`
	TrackingMode    TrackingMode `bson:"trackingMode" json:"trackingMode"`
	MuscleGroup     string       `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
	Notes           string       `bson:"notes,omitempty" json:"notes,omitempty"`
	DefaultSetCount int          `bson:"defaultSetCount" json:"defaultSetCount"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutTemplateExercise is one planned slot inside a workout template.
type WorkoutTemplateExercise struct {
	ExerciseTemplateID primitive.ObjectID `bson:"exerciseTemplateId" json:"exerciseTemplateId"`
	Name               string             `bson:"name" json:"name"`
	TrackingMode       TrackingMode       `bson:"trackingMode" json:"trackingMode"`
	SetCount           int                `bson:"setCount" json:"setCount"`
}

// WorkoutTemplate is a reusable, ordered workout plan. Starting a session
// from a template materializes one WorkoutExercise per slot with SetCount
// empty sets each.
type WorkoutTemplate struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID primitive.ObjectID `bson:"authorId" json:"authorId"`

	Name      string                    `bson:"name" json:"name"`
	Notes     string                    `bson:"notes,omitempty" json:"notes,omitempty"`
	Exercises []WorkoutTemplateExercise `bson:"exercises" json:"exercises"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
