package domain

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptrInt(v int) *int             { return &v }
func ptrFloat(v float64) *float64   { return &v }
func ptrTime(v time.Time) *time.Time { return &v }

// buildSession constructs a two-exercise tree with completed and open sets.
func buildSession() *WorkoutSession {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	session := &WorkoutSession{
		ID:           primitive.NewObjectID(),
		AuthorID:     primitive.NewObjectID(),
		Name:         "Push Day",
		DateCreated:  now,
		DateModified: now,
	}
	for i := 0; i < 2; i++ {
		ex := WorkoutExercise{
			ID:            primitive.NewObjectID(),
			SessionID:     session.ID,
			AuthorID:      session.AuthorID,
			TemplateID:    primitive.NewObjectID(),
			Name:          "Bench Press",
			TrackingMode:  TrackingWeightReps,
			ExerciseIndex: i + 1,
		}
		for j := 0; j < 3; j++ {
			set := WorkoutSet{
				ID:          primitive.NewObjectID(),
				SessionID:   session.ID,
				ExerciseID:  ex.ID,
				AuthorID:    session.AuthorID,
				SetIndex:    j + 1,
				Reps:        ptrInt(8),
				WeightKg:    ptrFloat(60),
				DateCreated: now,
			}
			if j == 0 {
				set.CompletedAt = ptrTime(now.Add(time.Minute))
			}
			ex.Sets = append(ex.Sets, set)
		}
		session.Exercises = append(session.Exercises, ex)
	}
	return session
}

// TestCloneIsDeep verifies that mutating a clone never leaks into the
// original tree, including through pointer-valued metric fields.
func TestCloneIsDeep(t *testing.T) {
	original := buildSession()
	clone := original.Clone()

	if !clone.Equal(original) {
		t.Fatal("clone should compare equal to the original")
	}

	*clone.Exercises[0].Sets[0].Reps = 99
	clone.Exercises[0].Sets[1].CompletedAt = ptrTime(time.Now())
	clone.Exercises[1].Name = "Squat"
	clone.Notes = "changed"

	if *original.Exercises[0].Sets[0].Reps != 8 {
		t.Errorf("original reps mutated through clone: got %d", *original.Exercises[0].Sets[0].Reps)
	}
	if original.Exercises[0].Sets[1].CompletedAt != nil {
		t.Error("original completion timestamp mutated through clone")
	}
	if original.Exercises[1].Name != "Bench Press" {
		t.Errorf("original exercise name mutated: got %q", original.Exercises[1].Name)
	}
	if clone.Equal(original) {
		t.Error("mutated clone should no longer compare equal")
	}
}

// TestUpdateExercisesBumpsDateModified verifies the single write path keeps
// the modification timestamp monotonic: it moves forward with the tree and
// never backwards.
func TestUpdateExercisesBumpsDateModified(t *testing.T) {
	session := buildSession()
	before := session.DateModified

	later := before.Add(time.Minute)
	session.UpdateExercises(session.Exercises, later)
	if !session.DateModified.Equal(later) {
		t.Errorf("DateModified = %v, want %v", session.DateModified, later)
	}

	// A write stamped with an earlier clock must not move the timestamp back.
	session.UpdateExercises(session.Exercises, before)
	if !session.DateModified.Equal(later) {
		t.Errorf("DateModified regressed to %v", session.DateModified)
	}
}

// TestReindexKeepsDenseOrder verifies deleting from the middle re-numbers
// indices 1..N without reordering survivors.
func TestReindexKeepsDenseOrder(t *testing.T) {
	session := buildSession()
	ex := &session.Exercises[0]
	survivorFirst := ex.Sets[0].ID
	survivorLast := ex.Sets[2].ID

	ex.Sets = append(ex.Sets[:1], ex.Sets[2:]...)
	ex.ReindexSets()

	if len(ex.Sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(ex.Sets))
	}
	if ex.Sets[0].ID != survivorFirst || ex.Sets[1].ID != survivorLast {
		t.Error("relative order changed during reindex")
	}
	for i, set := range ex.Sets {
		if set.SetIndex != i+1 {
			t.Errorf("set %d has index %d, want %d", i, set.SetIndex, i+1)
		}
	}

	session.Exercises = session.Exercises[1:]
	session.ReindexExercises()
	if session.Exercises[0].ExerciseIndex != 1 {
		t.Errorf("exercise index = %d, want 1", session.Exercises[0].ExerciseIndex)
	}
}

// TestAllSetsCompleted verifies completion detection, including the vacuous
// zero-set case callers must guard against.
func TestAllSetsCompleted(t *testing.T) {
	session := buildSession()
	ex := &session.Exercises[0]

	if ex.AllSetsCompleted() {
		t.Error("exercise with open sets reported all complete")
	}
	now := time.Now().UTC()
	for i := range ex.Sets {
		ex.Sets[i].CompletedAt = &now
	}
	if !ex.AllSetsCompleted() {
		t.Error("fully completed exercise reported incomplete")
	}

	empty := WorkoutExercise{TrackingMode: TrackingWeightReps}
	if !empty.AllSetsCompleted() {
		t.Error("zero-set exercise should be vacuously complete")
	}
}

// TestValidateTrackingMode verifies that metric fields foreign to the
// exercise's tracking mode are rejected, and that TrackingOther accepts any.
func TestValidateTrackingMode(t *testing.T) {
	cases := []struct {
		name    string
		mode    TrackingMode
		set     WorkoutSet
		wantErr bool
	}{
		{"weight reps ok", TrackingWeightReps, WorkoutSet{Reps: ptrInt(5), WeightKg: ptrFloat(100)}, false},
		{"weight reps with distance", TrackingWeightReps, WorkoutSet{DistanceMeters: ptrFloat(400)}, true},
		{"distance time ok", TrackingDistanceTime, WorkoutSet{DistanceMeters: ptrFloat(400), DurationSec: ptrInt(90)}, false},
		{"distance time with reps", TrackingDistanceTime, WorkoutSet{Reps: ptrInt(5)}, true},
		{"other takes anything", TrackingOther, WorkoutSet{Reps: ptrInt(5), DistanceMeters: ptrFloat(400)}, false},
	}
	for _, tc := range cases {
		ex := WorkoutExercise{TrackingMode: tc.mode, Sets: []WorkoutSet{tc.set}}
		err := ex.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
	}
}

// TestNewHistoryEntryReusesExerciseID verifies the snapshot id matches the
// source exercise, which is what makes a retried finish idempotent.
func TestNewHistoryEntryReusesExerciseID(t *testing.T) {
	session := buildSession()
	ex := &session.Exercises[0]
	performedAt := time.Now().UTC()

	entry := NewHistoryEntry(ex, performedAt)
	if entry.ID != ex.ID {
		t.Errorf("entry ID = %v, want exercise ID %v", entry.ID, ex.ID)
	}
	if entry.SessionID != session.ID || entry.TemplateID != ex.TemplateID {
		t.Error("entry lost its provenance links")
	}
	if len(entry.Sets) != len(ex.Sets) {
		t.Fatalf("entry has %d sets, want %d", len(entry.Sets), len(ex.Sets))
	}

	// The snapshot must be insulated from later mutations of the live tree.
	*ex.Sets[0].Reps = 1
	if *entry.Sets[0].Reps != 8 {
		t.Errorf("history set mutated through live tree: got %d", *entry.Sets[0].Reps)
	}
}
