package service

import (
	"testing"
	"time"

	"openlift/tracking-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptrInt(v int) *int           { return &v }
func ptrFloat(v float64) *float64 { return &v }

// newTestSession builds an in-progress session with the given shape.
func newTestSession(exercises, setsPerExercise int) *domain.WorkoutSession {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	session := &domain.WorkoutSession{
		ID:           primitive.NewObjectID(),
		AuthorID:     primitive.NewObjectID(),
		Name:         "Test Workout",
		DateCreated:  now,
		DateModified: now,
	}
	for i := 0; i < exercises; i++ {
		ex := domain.WorkoutExercise{
			ID:            primitive.NewObjectID(),
			SessionID:     session.ID,
			AuthorID:      session.AuthorID,
			TemplateID:    primitive.NewObjectID(),
			Name:          "Exercise",
			TrackingMode:  domain.TrackingWeightReps,
			ExerciseIndex: i + 1,
		}
		for j := 0; j < setsPerExercise; j++ {
			ex.Sets = append(ex.Sets, domain.WorkoutSet{
				ID:          primitive.NewObjectID(),
				SessionID:   session.ID,
				ExerciseID:  ex.ID,
				AuthorID:    session.AuthorID,
				SetIndex:    j + 1,
				DateCreated: now,
			})
		}
		session.Exercises = append(session.Exercises, ex)
	}
	return session
}

// completeSet marks one set done through the tracker's update path and
// reports whether focus auto-advanced.
func completeSet(t *testing.T, tracker *SessionTracker, exerciseID, setID primitive.ObjectID) bool {
	t.Helper()
	now := time.Now().UTC()
	return tracker.UpdateSet(domain.WorkoutSet{
		ID:          setID,
		Reps:        ptrInt(8),
		WeightKg:    ptrFloat(60),
		CompletedAt: &now,
	}, exerciseID)
}

// TestAddSetSeedsFromLastSet verifies a new set copies the previous set's
// metrics, gets the next dense index, and starts incomplete.
func TestAddSetSeedsFromLastSet(t *testing.T) {
	session := newTestSession(1, 1)
	ex := &session.Exercises[0]
	ex.Sets[0].Reps = ptrInt(10)
	ex.Sets[0].WeightKg = ptrFloat(80)
	now := time.Now().UTC()
	ex.Sets[0].CompletedAt = &now

	tracker := NewSessionTracker(session)
	tracker.AddSet(ex.ID)

	snap := tracker.Snapshot()
	sets := snap.Exercises[0].Sets
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(sets))
	}
	added := sets[1]
	if added.SetIndex != 2 {
		t.Errorf("added set index = %d, want 2", added.SetIndex)
	}
	if added.Reps == nil || *added.Reps != 10 {
		t.Error("added set should inherit reps from the previous set")
	}
	if added.WeightKg == nil || *added.WeightKg != 80 {
		t.Error("added set should inherit weight from the previous set")
	}
	if added.CompletedAt != nil {
		t.Error("added set must start incomplete")
	}
	if added.SessionID != session.ID || added.ExerciseID != ex.ID || added.AuthorID != session.AuthorID {
		t.Error("added set is missing foreign keys")
	}

	// Seeded values are copies, not shared pointers.
	*added.Reps = 1
	if *snap.Exercises[0].Sets[0].Reps != 10 {
		t.Error("seed pointer shared between sets")
	}
}

// TestAddSetToEmptyExercise verifies the first set of an exercise starts with
// no metric values at all.
func TestAddSetToEmptyExercise(t *testing.T) {
	session := newTestSession(1, 0)
	tracker := NewSessionTracker(session)
	tracker.AddSet(session.Exercises[0].ID)

	snap := tracker.Snapshot()
	if len(snap.Exercises[0].Sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(snap.Exercises[0].Sets))
	}
	set := snap.Exercises[0].Sets[0]
	if set.Reps != nil || set.WeightKg != nil || set.DurationSec != nil || set.DistanceMeters != nil || set.RPE != nil {
		t.Error("first set should carry no seeded metrics")
	}
	if set.SetIndex != 1 {
		t.Errorf("first set index = %d, want 1", set.SetIndex)
	}
}

// TestDeleteSetReindexes verifies removal from the middle keeps indices
// dense, and an unknown set id is a harmless no-op.
func TestDeleteSetReindexes(t *testing.T) {
	session := newTestSession(1, 3)
	ex := session.Exercises[0]
	tracker := NewSessionTracker(session)

	tracker.DeleteSet(ex.Sets[1].ID, ex.ID)
	snap := tracker.Snapshot()
	sets := snap.Exercises[0].Sets
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(sets))
	}
	if sets[0].ID != ex.Sets[0].ID || sets[1].ID != ex.Sets[2].ID {
		t.Error("wrong set deleted or order changed")
	}
	if sets[0].SetIndex != 1 || sets[1].SetIndex != 2 {
		t.Errorf("indices not dense: %d, %d", sets[0].SetIndex, sets[1].SetIndex)
	}

	tracker.DeleteSet(primitive.NewObjectID(), ex.ID)
	if got := len(tracker.Snapshot().Exercises[0].Sets); got != 2 {
		t.Errorf("unknown id delete changed set count to %d", got)
	}
}

// TestUpdateSetPreservesStructuralFields verifies client-supplied ids and
// indices can never overwrite the stored ones.
func TestUpdateSetPreservesStructuralFields(t *testing.T) {
	session := newTestSession(1, 2)
	ex := session.Exercises[0]
	target := ex.Sets[1]
	tracker := NewSessionTracker(session)

	tracker.UpdateSet(domain.WorkoutSet{
		ID:        target.ID,
		SessionID: primitive.NewObjectID(), // hostile values, must be ignored
		AuthorID:  primitive.NewObjectID(),
		SetIndex:  42,
		Reps:      ptrInt(12),
	}, ex.ID)

	snap := tracker.Snapshot()
	got := snap.Exercises[0].Sets[1]
	if got.SessionID != session.ID || got.AuthorID != session.AuthorID || got.ExerciseID != ex.ID {
		t.Error("structural ids overwritten by update")
	}
	if got.SetIndex != 2 {
		t.Errorf("set index overwritten: got %d, want 2", got.SetIndex)
	}
	if got.Reps == nil || *got.Reps != 12 {
		t.Error("editable field not applied")
	}
	if !got.DateCreated.Equal(target.DateCreated) {
		t.Error("creation date overwritten by update")
	}
}

// TestAutoAdvanceFiresExactlyOnce walks the current exercise to completion
// and verifies focus moves on the completing update only, with the finished
// card collapsing and the next one expanding.
func TestAutoAdvanceFiresExactlyOnce(t *testing.T) {
	session := newTestSession(2, 2)
	first := session.Exercises[0]
	second := session.Exercises[1]
	tracker := NewSessionTracker(session)

	if id, _ := tracker.CurrentExerciseID(); id != first.ID {
		t.Fatal("first exercise should start current")
	}
	if !tracker.Expanded(first.ID) || tracker.Expanded(second.ID) {
		t.Fatal("only the first card should start expanded")
	}

	if advanced := completeSet(t, tracker, first.ID, first.Sets[0].ID); advanced {
		t.Error("advance fired with an open set remaining")
	}
	if advanced := completeSet(t, tracker, first.ID, first.Sets[1].ID); !advanced {
		t.Error("advance did not fire on the completing update")
	}

	if id, _ := tracker.CurrentExerciseID(); id != second.ID {
		t.Error("focus did not move to the next exercise")
	}
	if tracker.Expanded(first.ID) {
		t.Error("finished card should have collapsed")
	}
	if !tracker.Expanded(second.ID) {
		t.Error("next card should have expanded")
	}

	// Re-updating a set of the already-complete exercise must not advance.
	if advanced := completeSet(t, tracker, first.ID, first.Sets[0].ID); advanced {
		t.Error("advance fired again on an already-complete exercise")
	}

	// Completing the last exercise has nowhere to advance to.
	completeSet(t, tracker, second.ID, second.Sets[0].ID)
	if advanced := completeSet(t, tracker, second.ID, second.Sets[1].ID); advanced {
		t.Error("advance fired with no next exercise")
	}
	if id, _ := tracker.CurrentExerciseID(); id != second.ID {
		t.Error("focus moved past the last exercise")
	}
}

// TestAddExerciseFromTemplate verifies the planned number of empty sets and
// the card expansion of a newly added exercise.
func TestAddExerciseFromTemplate(t *testing.T) {
	session := newTestSession(0, 0)
	tracker := NewSessionTracker(session)

	template := &domain.ExerciseTemplate{
		ID:              primitive.NewObjectID(),
		AuthorID:        session.AuthorID,
		Name:            "Deadlift",
		TrackingMode:    domain.TrackingWeightReps,
		DefaultSetCount: 3,
	}
	tracker.AddExercise(template)

	snap := tracker.Snapshot()
	if len(snap.Exercises) != 1 {
		t.Fatalf("expected 1 exercise, got %d", len(snap.Exercises))
	}
	ex := snap.Exercises[0]
	if ex.Name != "Deadlift" || ex.TemplateID != template.ID {
		t.Error("exercise not built from template")
	}
	if ex.ExerciseIndex != 1 {
		t.Errorf("exercise index = %d, want 1", ex.ExerciseIndex)
	}
	if len(ex.Sets) != 3 {
		t.Fatalf("expected 3 default sets, got %d", len(ex.Sets))
	}
	for i, set := range ex.Sets {
		if set.CompletedAt != nil || set.Reps != nil {
			t.Errorf("default set %d should be empty and incomplete", i)
		}
		if set.SetIndex != i+1 {
			t.Errorf("default set %d has index %d", i, set.SetIndex)
		}
	}

	if id, ok := tracker.CurrentExerciseID(); !ok || id != ex.ID {
		t.Error("first added exercise should take focus")
	}
	if !tracker.Expanded(ex.ID) {
		t.Error("added exercise card should expand")
	}
}

// TestDeleteExerciseClampsFocus verifies focus stays on a live exercise when
// the current or trailing exercise disappears.
func TestDeleteExerciseClampsFocus(t *testing.T) {
	session := newTestSession(3, 1)
	tracker := NewSessionTracker(session)
	// DeleteExercise compacts the shared exercises slice in place, so grab
	// the ids up front instead of re-indexing session.Exercises afterwards.
	firstID := session.Exercises[0].ID
	secondID := session.Exercises[1].ID
	lastID := session.Exercises[2].ID

	// Deleting ahead of focus keeps the same exercise current.
	tracker.DeleteExercise(lastID)
	if id, _ := tracker.CurrentExerciseID(); id != firstID {
		t.Error("focus moved when a later exercise was deleted")
	}

	// Deleting everything clears focus entirely.
	tracker.DeleteExercise(firstID)
	tracker.DeleteExercise(secondID)
	if _, ok := tracker.CurrentExerciseID(); ok {
		t.Error("focus should be empty with no exercises left")
	}

	snap := tracker.Snapshot()
	if len(snap.Exercises) != 0 {
		t.Errorf("expected empty exercise list, got %d", len(snap.Exercises))
	}
}

// TestEndAppliesOnce verifies the end timestamp is stamped on the first call
// only and duplicate triggers report already-ended.
func TestEndAppliesOnce(t *testing.T) {
	session := newTestSession(1, 1)
	tracker := NewSessionTracker(session)

	if !tracker.End() {
		t.Fatal("first End should apply")
	}
	snap := tracker.Snapshot()
	if snap.EndedAt == nil {
		t.Fatal("EndedAt not stamped")
	}
	stamped := *snap.EndedAt

	if tracker.End() {
		t.Error("second End should report already ended")
	}
	if got := tracker.Snapshot().EndedAt; !got.Equal(stamped) {
		t.Error("second End moved the end timestamp")
	}
	if tracker.Timer().Active() {
		t.Error("timer should stop when the session ends")
	}
}

// TestMutationsBumpDateModified verifies every tracker mutation republishes
// the tree with a fresh modification timestamp.
func TestMutationsBumpDateModified(t *testing.T) {
	session := newTestSession(1, 1)
	tracker := NewSessionTracker(session)

	clock := session.DateModified
	tracker.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	before := tracker.Snapshot().DateModified
	tracker.UpdateSessionNotes("felt strong")
	after := tracker.Snapshot().DateModified
	if !after.After(before) {
		t.Error("notes update did not bump DateModified")
	}

	tracker.AddSet(session.Exercises[0].ID)
	if got := tracker.Snapshot().DateModified; !got.After(after) {
		t.Error("set addition did not bump DateModified")
	}
}

// TestSnapshotIsIsolated verifies a snapshot does not alias the live tree.
func TestSnapshotIsIsolated(t *testing.T) {
	session := newTestSession(1, 1)
	tracker := NewSessionTracker(session)

	snap := tracker.Snapshot()
	snap.Exercises[0].Name = "Tampered"
	snap.Name = "Tampered"

	fresh := tracker.Snapshot()
	if fresh.Name == "Tampered" || fresh.Exercises[0].Name == "Tampered" {
		t.Error("snapshot mutation leaked into the tracked session")
	}
}
