package service

import (
	"sync"
	"time"

	"openlift/tracking-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionTracker owns the in-memory state of one active tracking flow: the
// session tree, the "current" exercise focus, the expanded/collapsed card
// set, and the elapsed timer. It is the single authority for mutating the
// tree while tracking.
//
// All mutation methods are lenient towards stale UI state: an unknown
// exercise or set id is a no-op, never a panic or error. Every tree change
// goes through the session's UpdateExercises write path so the modification
// timestamp can never lag behind the tree.
type SessionTracker struct {
	mu              sync.Mutex
	session         *domain.WorkoutSession
	currentExercise int // index into session.Exercises; -1 when empty
	expanded        map[primitive.ObjectID]bool
	timer           *ElapsedTimer

	now func() time.Time
}

// NewSessionTracker wraps a session for tracking. The first exercise becomes
// current and expanded.
func NewSessionTracker(session *domain.WorkoutSession) *SessionTracker {
	t := &SessionTracker{
		session:         session,
		currentExercise: -1,
		expanded:        make(map[primitive.ObjectID]bool),
		timer:           NewElapsedTimer(),
		now:             time.Now,
	}
	if len(session.Exercises) > 0 {
		t.currentExercise = 0
		t.expanded[session.Exercises[0].ID] = true
	}
	return t
}

// Snapshot returns a deep copy of the session tree, safe to persist or
// render without holding the tracker's lock.
func (t *SessionTracker) Snapshot() *domain.WorkoutSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Clone()
}

// SessionID returns the tracked session's id.
func (t *SessionTracker) SessionID() primitive.ObjectID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.ID
}

// AuthorID returns the tracked session's owner.
func (t *SessionTracker) AuthorID() primitive.ObjectID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.AuthorID
}

// Timer returns the elapsed-time tracker for the session view.
func (t *SessionTracker) Timer() *ElapsedTimer {
	return t.timer
}

// CurrentExerciseID returns the id of the exercise currently in focus.
func (t *SessionTracker) CurrentExerciseID() (primitive.ObjectID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentExercise < 0 || t.currentExercise >= len(t.session.Exercises) {
		return primitive.NilObjectID, false
	}
	return t.session.Exercises[t.currentExercise].ID, true
}

// Expanded reports whether an exercise card is expanded.
func (t *SessionTracker) Expanded(exerciseID primitive.ObjectID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expanded[exerciseID]
}

// touch republishes the exercises slice through the single write path,
// bumping DateModified together with the tree. Callers must hold t.mu.
func (t *SessionTracker) touch() {
	t.session.UpdateExercises(t.session.Exercises, t.now().UTC())
}

// AddSet appends a new set to the exercise, seeded from the previous set's
// reps/weight/duration/distance/RPE (or empty when the exercise has none).
// The new set starts incomplete and is never a warmup.
func (t *SessionTracker) AddSet(exerciseID primitive.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ex := t.session.ExerciseByID(exerciseID)
	if ex == nil {
		return
	}

	set := domain.WorkoutSet{
		ID:          primitive.NewObjectID(),
		SessionID:   t.session.ID,
		ExerciseID:  ex.ID,
		AuthorID:    t.session.AuthorID,
		SetIndex:    len(ex.Sets) + 1,
		IsWarmup:    false,
		DateCreated: t.now().UTC(),
	}
	templateID := ex.TemplateID
	set.TemplateID = &templateID

	if last := ex.LastSet(); last != nil {
		seed := last.Clone()
		set.Reps = seed.Reps
		set.WeightKg = seed.WeightKg
		set.DurationSec = seed.DurationSec
		set.DistanceMeters = seed.DistanceMeters
		set.RPE = seed.RPE
	}

	ex.Sets = append(ex.Sets, set)
	t.touch()
}

// DeleteSet removes a set and re-indexes the exercise's remaining sets back
// to a dense 1..N sequence.
func (t *SessionTracker) DeleteSet(setID, exerciseID primitive.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ex := t.session.ExerciseByID(exerciseID)
	if ex == nil {
		return
	}

	kept := ex.Sets[:0]
	for i := range ex.Sets {
		if ex.Sets[i].ID != setID {
			kept = append(kept, ex.Sets[i])
		}
	}
	if len(kept) == len(ex.Sets) {
		return
	}
	ex.Sets = kept
	ex.ReindexSets()
	t.touch()
}

// UpdateSet replaces a set by id, keeping its structural fields (ids, index,
// creation date) intact. If the replacement transitions the current exercise
// from "not all sets complete" to "all sets complete", focus auto-advances to
// the next exercise (when one exists) and the card set follows: the finished
// card collapses, the next expands. The advance fires exactly on that
// transition, never on later updates to an already-complete exercise.
// Returns whether focus moved.
func (t *SessionTracker) UpdateSet(updated domain.WorkoutSet, exerciseID primitive.ObjectID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ex := t.session.ExerciseByID(exerciseID)
	if ex == nil {
		return false
	}
	target := ex.SetByID(updated.ID)
	if target == nil {
		return false
	}

	var current *domain.WorkoutExercise
	if t.currentExercise >= 0 && t.currentExercise < len(t.session.Exercises) {
		current = &t.session.Exercises[t.currentExercise]
	}
	wasAllComplete := current != nil && len(current.Sets) > 0 && current.AllSetsCompleted()

	replacement := updated.Clone()
	replacement.ID = target.ID
	replacement.SessionID = target.SessionID
	replacement.ExerciseID = target.ExerciseID
	replacement.AuthorID = target.AuthorID
	replacement.TemplateID = target.TemplateID
	replacement.SetIndex = target.SetIndex
	replacement.DateCreated = target.DateCreated
	*target = replacement

	advanced := false
	nowAllComplete := current != nil && len(current.Sets) > 0 && current.AllSetsCompleted()
	if !wasAllComplete && nowAllComplete {
		if t.currentExercise+1 < len(t.session.Exercises) {
			delete(t.expanded, current.ID)
			t.currentExercise++
			t.expanded[t.session.Exercises[t.currentExercise].ID] = true
			advanced = true
		}
	}

	t.touch()
	return advanced
}

// AddExercise appends an exercise built from a template, with the template's
// default number of empty sets, and expands its card.
func (t *SessionTracker) AddExercise(template *domain.ExerciseTemplate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	ex := domain.WorkoutExercise{
		ID:            primitive.NewObjectID(),
		SessionID:     t.session.ID,
		AuthorID:      t.session.AuthorID,
		TemplateID:    template.ID,
		Name:          template.Name,
		TrackingMode:  template.TrackingMode,
		ExerciseIndex: len(t.session.Exercises) + 1,
	}
	templateID := template.ID
	for i := 0; i < template.DefaultSetCount; i++ {
		ex.Sets = append(ex.Sets, domain.WorkoutSet{
			ID:          primitive.NewObjectID(),
			SessionID:   t.session.ID,
			ExerciseID:  ex.ID,
			AuthorID:    t.session.AuthorID,
			TemplateID:  &templateID,
			SetIndex:    i + 1,
			DateCreated: now,
		})
	}

	t.session.Exercises = append(t.session.Exercises, ex)
	if t.currentExercise < 0 {
		t.currentExercise = 0
	}
	t.expanded[ex.ID] = true
	t.touch()
}

// DeleteExercise removes a whole exercise and re-indexes the remaining
// exercises 1..N. Focus is clamped so it always points at a live exercise.
func (t *SessionTracker) DeleteExercise(exerciseID primitive.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := -1
	for i := range t.session.Exercises {
		if t.session.Exercises[i].ID == exerciseID {
			removed = i
			break
		}
	}
	if removed < 0 {
		return
	}

	delete(t.expanded, exerciseID)
	t.session.Exercises = append(t.session.Exercises[:removed], t.session.Exercises[removed+1:]...)
	t.session.ReindexExercises()

	if removed < t.currentExercise {
		t.currentExercise--
	}
	if t.currentExercise >= len(t.session.Exercises) {
		t.currentExercise = len(t.session.Exercises) - 1
	}
	t.touch()
}

// UpdateSessionNotes replaces the session-level notes.
func (t *SessionTracker) UpdateSessionNotes(notes string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.Notes = notes
	t.touch()
}

// UpdateExerciseNotes replaces one exercise's notes. No-op on a stale id.
func (t *SessionTracker) UpdateExerciseNotes(exerciseID primitive.ObjectID, notes string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ex := t.session.ExerciseByID(exerciseID)
	if ex == nil {
		return
	}
	ex.Notes = notes
	t.touch()
}

// End stamps the session's end timestamp. Returns false when the session was
// already ended, so duplicate finish triggers cannot double-apply.
func (t *SessionTracker) End() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session.EndedAt != nil {
		return false
	}
	now := t.now().UTC()
	t.session.EndedAt = &now
	t.session.UpdateExercises(t.session.Exercises, now)
	t.timer.Stop()
	return true
}
