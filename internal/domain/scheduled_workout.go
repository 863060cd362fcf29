package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduledWorkout links a calendar date to a workout template and, once
// performed, to the completed session. A past-dated occurrence that was never
// performed can be marked missed.
type ScheduledWorkout struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID          primitive.ObjectID `bson:"authorId" json:"authorId"`
	WorkoutTemplateID primitive.ObjectID `bson:"workoutTemplateId" json:"workoutTemplateId"`

	// Date is the calendar day (midnight UTC) the workout is planned for.
	Date time.Time `bson:"date" json:"date"`

	CompletedSessionID *primitive.ObjectID `bson:"completedSessionId,omitempty" json:"completedSessionId,omitempty"`
	IsCompleted        bool                `bson:"isCompleted" json:"isCompleted"`
	IsMissed           bool                `bson:"isMissed" json:"isMissed"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
