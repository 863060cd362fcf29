package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeightUnit and DistanceUnit are display preferences only; stored values are
// always kilograms and meters.
type WeightUnit string

type DistanceUnit string

const (
	WeightKilograms WeightUnit = "kg"
	WeightPounds    WeightUnit = "lb"

	DistanceKilometers DistanceUnit = "km"
	DistanceMiles      DistanceUnit = "mi"
)

// Valid reports whether the unit is one of the supported weight units.
func (u WeightUnit) Valid() bool {
	return u == WeightKilograms || u == WeightPounds
}

// Valid reports whether the unit is one of the supported distance units.
func (u DistanceUnit) Valid() bool {
	return u == DistanceKilometers || u == DistanceMiles
}

// UnitPreference is the per-user, per-exercise-template unit display choice.
// It lives independently of any session so it survives session deletion.
type UnitPreference struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID           primitive.ObjectID `bson:"authorId" json:"authorId"`
	ExerciseTemplateID primitive.ObjectID `bson:"exerciseTemplateId" json:"exerciseTemplateId"`

	WeightUnit   WeightUnit   `bson:"weightUnit" json:"weightUnit"`
	DistanceUnit DistanceUnit `bson:"distanceUnit" json:"distanceUnit"`

	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
