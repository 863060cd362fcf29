package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account owning sessions, templates and schedule entries.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON

	// Default display units, used when no per-exercise preference exists.
	WeightUnit   WeightUnit   `bson:"weightUnit" json:"weightUnit"`
	DistanceUnit DistanceUnit `bson:"distanceUnit" json:"distanceUnit"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
