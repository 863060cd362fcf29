package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"openlift/tracking-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestCache(t *testing.T) SessionCache {
	t.Helper()
	c, err := NewSQLiteSessionCache(":memory:")
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleSession(authorID primitive.ObjectID, modified time.Time) *domain.WorkoutSession {
	session := &domain.WorkoutSession{
		ID:           primitive.NewObjectID(),
		AuthorID:     authorID,
		Name:         "Leg Day",
		DateCreated:  modified.Add(-time.Hour),
		DateModified: modified,
	}
	reps := 5
	weight := 120.0
	ex := domain.WorkoutExercise{
		ID:            primitive.NewObjectID(),
		SessionID:     session.ID,
		AuthorID:      authorID,
		TemplateID:    primitive.NewObjectID(),
		Name:          "Squat",
		TrackingMode:  domain.TrackingWeightReps,
		ExerciseIndex: 1,
		Sets: []domain.WorkoutSet{{
			ID:          primitive.NewObjectID(),
			SessionID:   session.ID,
			AuthorID:    authorID,
			SetIndex:    1,
			Reps:        &reps,
			WeightKg:    &weight,
			DateCreated: modified,
		}},
	}
	ex.Sets[0].ExerciseID = ex.ID
	session.Exercises = append(session.Exercises, ex)
	return session
}

// TestPutGetRoundTrip verifies the whole tree survives the JSON round trip,
// including pointer-valued metrics and foreign keys.
func TestPutGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	session := sampleSession(primitive.NewObjectID(), time.Now().UTC())

	if err := c.Put(ctx, session); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.ID != session.ID || got.AuthorID != session.AuthorID || got.Name != session.Name {
		t.Error("summary fields lost in round trip")
	}
	if len(got.Exercises) != 1 || len(got.Exercises[0].Sets) != 1 {
		t.Fatal("tree shape lost in round trip")
	}
	set := got.Exercises[0].Sets[0]
	if set.Reps == nil || *set.Reps != 5 || set.WeightKg == nil || *set.WeightKg != 120.0 {
		t.Error("set metrics lost in round trip")
	}
	if set.ExerciseID != got.Exercises[0].ID || set.SessionID != session.ID {
		t.Error("foreign keys lost in round trip")
	}
}

// TestGetMissing verifies a cache miss is the typed ErrNotFound.
func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	if _, err := c.Get(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on missing id = %v, want ErrNotFound", err)
	}
}

// TestPutUpserts verifies a second Put for the same session replaces the
// stored tree instead of erroring, which is what makes retried saves safe.
func TestPutUpserts(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	session := sampleSession(primitive.NewObjectID(), time.Now().UTC())

	if err := c.Put(ctx, session); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	session.Name = "Renamed"
	ended := time.Now().UTC()
	session.EndedAt = &ended
	if err := c.Put(ctx, session); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := c.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("name = %q, want %q", got.Name, "Renamed")
	}
	if got.EndedAt == nil {
		t.Error("end timestamp lost on upsert")
	}
}

// TestDelete verifies removal, and that deleting an absent id is not an error.
func TestDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	session := sampleSession(primitive.NewObjectID(), time.Now().UTC())

	if err := c.Put(ctx, session); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, session.ID); err != nil {
		t.Errorf("Delete of absent id = %v, want nil", err)
	}
}

// TestGetByAuthor verifies per-user filtering and newest-first ordering by
// creation date, matching the remote listing even when an older session was
// modified more recently.
func TestGetByAuthor(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	author := primitive.NewObjectID()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	older := sampleSession(author, base)
	newer := sampleSession(author, base.Add(time.Hour))
	other := sampleSession(primitive.NewObjectID(), base.Add(2*time.Hour))
	// A late correction to the older session must not move it to the top.
	older.DateModified = base.Add(3 * time.Hour)
	for _, s := range []*domain.WorkoutSession{older, newer, other} {
		if err := c.Put(ctx, s); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	got, err := c.GetByAuthor(ctx, author)
	if err != nil {
		t.Fatalf("GetByAuthor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Error("sessions not ordered newest created first")
	}
}
