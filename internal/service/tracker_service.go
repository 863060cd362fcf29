package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"openlift/tracking-app/internal/cache"
	"openlift/tracking-app/internal/domain"
	"openlift/tracking-app/internal/repository"
	"openlift/tracking-app/internal/storage"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound      = errors.New("workout session not found")
	ErrSessionAlreadyActive = errors.New("another workout session is already in progress")
	ErrSessionEnded         = errors.New("workout session has already ended")
	ErrSessionNotEnded      = errors.New("workout session is still in progress")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrScheduledNotFound    = errors.New("scheduled workout not found")
	ErrLocalSaveFailed      = errors.New("failed to save workout session locally")
	ErrRemoteSyncFailed     = errors.New("failed to sync workout session to the remote store")
	ErrTimeout              = errors.New("operation timed out")
)

// TrackerService drives the whole session lifecycle: starting and resuming
// sessions, persisting mutations local-first, finishing with history
// synthesis, and deleting.
//
// Persistence ordering per mutation batch is strict: the local cache write is
// awaited and must succeed before the remote store is touched. A remote
// failure after a successful local write never rolls the local write back;
// it is either retried transparently on the next mirror or surfaced as a
// retryable error, depending on the operation.
type TrackerService interface {
	StartFromTemplate(ctx context.Context, authorID, workoutTemplateID primitive.ObjectID) (*SessionTracker, error)
	StartFromScheduled(ctx context.Context, authorID, scheduledID primitive.ObjectID) (*SessionTracker, error)
	StartEmpty(ctx context.Context, authorID primitive.ObjectID, name string) (*SessionTracker, error)
	Resume(ctx context.Context, authorID, sessionID primitive.ObjectID) (*SessionTracker, error)

	// SaveProgress persists the tracker's current tree: local write awaited,
	// remote mirrored in the background.
	SaveProgress(ctx context.Context, tracker *SessionTracker) error
	SaveAndExit(ctx context.Context, tracker *SessionTracker) error
	DiscardAndExit(tracker *SessionTracker)
	FinishWorkout(ctx context.Context, tracker *SessionTracker) (*domain.WorkoutSession, error)

	AddExerciseFromTemplate(ctx context.Context, tracker *SessionTracker, exerciseTemplateID primitive.ObjectID) error

	// BeginEdit opens a finished session for review-and-correct editing.
	// Mutations land on a draft copy through the returned tracker; nothing
	// persists until SaveEdit, and DiscardEdit restores the exact pre-edit
	// state.
	BeginEdit(ctx context.Context, authorID, sessionID primitive.ObjectID) (*SessionTracker, error)
	EditTracker(authorID, sessionID primitive.ObjectID) (*SessionTracker, error)
	SaveEdit(ctx context.Context, authorID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error)
	DiscardEdit(authorID, sessionID primitive.ObjectID, force bool) error

	GetSession(ctx context.Context, authorID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error)
	ListSessions(ctx context.Context, authorID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error)
	EndSession(ctx context.Context, authorID, sessionID primitive.ObjectID) error
	DeleteSession(ctx context.Context, authorID, sessionID primitive.ObjectID) error

	ExerciseHistory(ctx context.Context, authorID, templateID primitive.ObjectID, limit int64) ([]domain.ExerciseHistoryEntry, error)

	UnitPreference(ctx context.Context, authorID, exerciseTemplateID primitive.ObjectID) (*domain.UnitPreference, error)
	SetUnitPreference(ctx context.Context, pref *domain.UnitPreference) error
}

// trackerService implements the TrackerService interface.
type trackerService struct {
	sessionRepo  repository.WorkoutSessionRepository
	historyRepo  repository.ExerciseHistoryRepository
	scheduled    repository.ScheduledWorkoutRepository
	workoutTmpl  repository.WorkoutTemplateRepository
	exerciseTmpl repository.ExerciseTemplateRepository
	unitPrefs    repository.UnitPreferenceRepository
	users        repository.UserRepository
	sessionCache cache.SessionCache
	archive      storage.ArchiveStorage // may be nil when archival is disabled
	registry     *ActiveSessionRegistry
	logger       zerolog.Logger

	remoteTimeout time.Duration

	mu       sync.Mutex
	trackers map[primitive.ObjectID]*SessionTracker // sessionID -> live tracker
	edits    map[primitive.ObjectID]*sessionEdit    // sessionID -> open edit
}

// sessionEdit pairs the editor state machine with a tracker wrapped around
// its draft, so edit endpoints mutate the draft through the same methods as
// live tracking. The tracker's timer is never started.
type sessionEdit struct {
	editor  *SessionEditor
	tracker *SessionTracker
}

// NewTrackerService creates a new instance of trackerService.
func NewTrackerService(
	sessionRepo repository.WorkoutSessionRepository,
	historyRepo repository.ExerciseHistoryRepository,
	scheduled repository.ScheduledWorkoutRepository,
	workoutTmpl repository.WorkoutTemplateRepository,
	exerciseTmpl repository.ExerciseTemplateRepository,
	unitPrefs repository.UnitPreferenceRepository,
	users repository.UserRepository,
	sessionCache cache.SessionCache,
	archive storage.ArchiveStorage,
	registry *ActiveSessionRegistry,
	remoteTimeout time.Duration,
	logger zerolog.Logger,
) TrackerService {
	if remoteTimeout <= 0 {
		remoteTimeout = 10 * time.Second
	}
	return &trackerService{
		sessionRepo:   sessionRepo,
		historyRepo:   historyRepo,
		scheduled:     scheduled,
		workoutTmpl:   workoutTmpl,
		exerciseTmpl:  exerciseTmpl,
		unitPrefs:     unitPrefs,
		users:         users,
		sessionCache:  sessionCache,
		archive:       archive,
		registry:      registry,
		remoteTimeout: remoteTimeout,
		logger:        logger,
		trackers:      make(map[primitive.ObjectID]*SessionTracker),
		edits:         make(map[primitive.ObjectID]*sessionEdit),
	}
}

// remoteCtx bounds a remote call so a hung network surfaces as ErrTimeout
// instead of blocking the UI-facing operation forever.
func (s *trackerService) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.remoteTimeout)
}

// mapRemoteErr folds deadline expiry into the retryable timeout error.
func mapRemoteErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// persistLocal is the awaited first tier of every mutation batch.
func (s *trackerService) persistLocal(ctx context.Context, session *domain.WorkoutSession) error {
	if err := s.sessionCache.Put(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("session", session.ID.Hex()).Msg("local session save failed")
		return fmt.Errorf("%w: %v", ErrLocalSaveFailed, err)
	}
	return nil
}

// mirrorRemote pushes the tree to the remote store with merge-upsert
// semantics. Failures are logged and deferred; the local write stands.
func (s *trackerService) mirrorRemote(session *domain.WorkoutSession) {
	ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
	defer cancel()
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		s.logger.Warn().Err(err).Str("session", session.ID.Hex()).Msg("remote session mirror failed; will converge on next save")
	}
}

// === Starting and resuming ===

func (s *trackerService) startSession(ctx context.Context, session *domain.WorkoutSession) (*SessionTracker, error) {
	if !s.registry.Start(session.AuthorID, session.ID) {
		return nil, ErrSessionAlreadyActive
	}

	if err := s.persistLocal(ctx, session); err != nil {
		s.registry.Clear(session.AuthorID)
		return nil, err
	}

	// The remote create is awaited but non-fatal: the session is durable
	// locally, and every later mirror upserts the full tree.
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if _, err := s.sessionRepo.Create(rctx, session); err != nil {
		s.logger.Warn().Err(mapRemoteErr(err)).Str("session", session.ID.Hex()).Msg("remote session create deferred")
	}

	tracker := NewSessionTracker(session)
	tracker.Timer().Start()

	s.mu.Lock()
	s.trackers[session.ID] = tracker
	s.mu.Unlock()
	return tracker, nil
}

// newSessionShell builds the summary-level fields every start path shares.
func newSessionShell(authorID primitive.ObjectID, name string) *domain.WorkoutSession {
	now := time.Now().UTC()
	return &domain.WorkoutSession{
		ID:           primitive.NewObjectID(),
		AuthorID:     authorID,
		Name:         name,
		DateCreated:  now,
		DateModified: now,
	}
}

// materializeTemplate expands a workout template's slots into in-session
// exercises with the planned number of empty sets each.
func materializeTemplate(session *domain.WorkoutSession, template *domain.WorkoutTemplate) {
	now := time.Now().UTC()
	for i, slot := range template.Exercises {
		ex := domain.WorkoutExercise{
			ID:            primitive.NewObjectID(),
			SessionID:     session.ID,
			AuthorID:      session.AuthorID,
			TemplateID:    slot.ExerciseTemplateID,
			Name:          slot.Name,
			TrackingMode:  slot.TrackingMode,
			ExerciseIndex: i + 1,
		}
		templateID := slot.ExerciseTemplateID
		for j := 0; j < slot.SetCount; j++ {
			ex.Sets = append(ex.Sets, domain.WorkoutSet{
				ID:          primitive.NewObjectID(),
				SessionID:   session.ID,
				ExerciseID:  ex.ID,
				AuthorID:    session.AuthorID,
				TemplateID:  &templateID,
				SetIndex:    j + 1,
				DateCreated: now,
			})
		}
		session.Exercises = append(session.Exercises, ex)
	}
}

// StartFromTemplate starts a new session materialized from a workout template.
func (s *trackerService) StartFromTemplate(ctx context.Context, authorID, workoutTemplateID primitive.ObjectID) (*SessionTracker, error) {
	rctx, cancel := s.remoteCtx(ctx)
	template, err := s.workoutTmpl.GetByID(rctx, workoutTemplateID)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, mapRemoteErr(err)
	}
	if template.AuthorID != authorID {
		return nil, ErrTemplateNotFound
	}

	session := newSessionShell(authorID, template.Name)
	session.WorkoutTemplateID = &template.ID
	materializeTemplate(session, template)
	return s.startSession(ctx, session)
}

// StartFromScheduled starts a session for a calendar occurrence, carrying the
// provenance link so finishing can mark the occurrence completed.
func (s *trackerService) StartFromScheduled(ctx context.Context, authorID, scheduledID primitive.ObjectID) (*SessionTracker, error) {
	rctx, cancel := s.remoteCtx(ctx)
	occurrence, err := s.scheduled.GetByID(rctx, scheduledID)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduledNotFound
		}
		return nil, mapRemoteErr(err)
	}
	if occurrence.AuthorID != authorID {
		return nil, ErrScheduledNotFound
	}

	rctx, cancel = s.remoteCtx(ctx)
	template, err := s.workoutTmpl.GetByID(rctx, occurrence.WorkoutTemplateID)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, mapRemoteErr(err)
	}

	session := newSessionShell(authorID, template.Name)
	session.WorkoutTemplateID = &template.ID
	session.ScheduledWorkoutID = &occurrence.ID
	materializeTemplate(session, template)
	return s.startSession(ctx, session)
}

// StartEmpty starts a blank session the user builds up as they go.
func (s *trackerService) StartEmpty(ctx context.Context, authorID primitive.ObjectID, name string) (*SessionTracker, error) {
	if name == "" {
		name = "Workout"
	}
	return s.startSession(ctx, newSessionShell(authorID, name))
}

// Resume returns the live tracker for a session, rehydrating the tree from
// the local cache (falling back to the remote store) when no tracker exists.
func (s *trackerService) Resume(ctx context.Context, authorID, sessionID primitive.ObjectID) (*SessionTracker, error) {
	s.mu.Lock()
	if tracker, ok := s.trackers[sessionID]; ok {
		s.mu.Unlock()
		if tracker.AuthorID() != authorID {
			return nil, ErrSessionNotFound
		}
		return tracker, nil
	}
	s.mu.Unlock()

	if active, ok := s.registry.Active(authorID); ok && active != sessionID {
		return nil, ErrSessionAlreadyActive
	}

	session, err := s.loadSession(ctx, authorID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.InProgress() {
		return nil, ErrSessionEnded
	}

	if !s.registry.Start(authorID, sessionID) {
		return nil, ErrSessionAlreadyActive
	}

	tracker := NewSessionTracker(session)
	tracker.Timer().Start()

	s.mu.Lock()
	s.trackers[sessionID] = tracker
	s.mu.Unlock()
	return tracker, nil
}

// loadSession reads cache-first, then the remote store.
func (s *trackerService) loadSession(ctx context.Context, authorID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionCache.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrLocalSaveFailed, err)
	}
	if session == nil {
		rctx, cancel := s.remoteCtx(ctx)
		defer cancel()
		session, err = s.sessionRepo.GetByID(rctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrSessionNotFound
			}
			return nil, mapRemoteErr(err)
		}
	}
	if session.AuthorID != authorID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// dropTracker forgets the live tracker and active-session marker.
func (s *trackerService) dropTracker(tracker *SessionTracker) {
	tracker.Timer().Stop()
	s.mu.Lock()
	delete(s.trackers, tracker.SessionID())
	s.mu.Unlock()
	s.registry.Clear(tracker.AuthorID())
}

// === Persistence during tracking ===

// SaveProgress writes the current tree local-first and mirrors it to the
// remote store in the background.
func (s *trackerService) SaveProgress(ctx context.Context, tracker *SessionTracker) error {
	snapshot := tracker.Snapshot()
	if err := s.persistLocal(ctx, snapshot); err != nil {
		return err
	}
	go s.mirrorRemote(snapshot)
	return nil
}

// SaveAndExit persists the partial session without ending it and releases
// the tracking state. The remote mirror is awaited but a failure there is
// deferred: the local copy is durable and converges on the next resume.
func (s *trackerService) SaveAndExit(ctx context.Context, tracker *SessionTracker) error {
	snapshot := tracker.Snapshot()
	if err := s.persistLocal(ctx, snapshot); err != nil {
		return err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if err := s.sessionRepo.Update(rctx, snapshot); err != nil {
		s.logger.Warn().Err(mapRemoteErr(err)).Str("session", snapshot.ID.Hex()).Msg("remote save deferred on exit")
	}

	s.dropTracker(tracker)
	return nil
}

// DiscardAndExit drops the in-memory state without any persistence call.
// Whatever was last saved (locally and remotely) remains untouched.
func (s *trackerService) DiscardAndExit(tracker *SessionTracker) {
	s.dropTracker(tracker)
}

// FinishWorkout ends the session, persists it local-then-remote, synthesizes
// one history entry per exercise, links the scheduled occurrence when there
// is one, and archives a snapshot. Safe to retry: the end timestamp is set
// once, the remote tree write is an upsert and history entries are keyed by
// exercise id.
func (s *trackerService) FinishWorkout(ctx context.Context, tracker *SessionTracker) (*domain.WorkoutSession, error) {
	tracker.End()
	snapshot := tracker.Snapshot()

	if err := s.persistLocal(ctx, snapshot); err != nil {
		return nil, err
	}

	rctx, cancel := s.remoteCtx(ctx)
	err := s.sessionRepo.Update(rctx, snapshot)
	cancel()
	if err != nil {
		// Local state is durable; the caller may retry the whole finish.
		return snapshot, fmt.Errorf("%w: %v", ErrRemoteSyncFailed, mapRemoteErr(err))
	}

	entries := make([]domain.ExerciseHistoryEntry, 0, len(snapshot.Exercises))
	for i := range snapshot.Exercises {
		entries = append(entries, domain.NewHistoryEntry(&snapshot.Exercises[i], *snapshot.EndedAt))
	}
	rctx, cancel = s.remoteCtx(ctx)
	err = s.historyRepo.CreateMany(rctx, entries)
	cancel()
	if err != nil {
		return snapshot, fmt.Errorf("%w: %v", ErrRemoteSyncFailed, mapRemoteErr(err))
	}

	if snapshot.ScheduledWorkoutID != nil {
		rctx, cancel = s.remoteCtx(ctx)
		err = s.scheduled.Complete(rctx, *snapshot.ScheduledWorkoutID, snapshot.ID, *snapshot.EndedAt)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Str("scheduled", snapshot.ScheduledWorkoutID.Hex()).Msg("failed to mark scheduled workout completed")
		}
	}

	s.archiveSession(snapshot)
	s.dropTracker(tracker)
	return snapshot, nil
}

// archiveSession uploads a JSON snapshot of the finished session in the
// background. Best-effort only.
func (s *trackerService) archiveSession(session *domain.WorkoutSession) {
	if s.archive == nil {
		return
	}
	go func() {
		payload, err := json.Marshal(session)
		if err != nil {
			s.logger.Error().Err(err).Str("session", session.ID.Hex()).Msg("failed to encode session archive")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.archive.StoreSessionArchive(ctx, session.AuthorID.Hex(), session.ID.Hex(), payload); err != nil {
			s.logger.Warn().Err(err).Str("session", session.ID.Hex()).Msg("session archive upload failed")
		}
	}()
}

// AddExerciseFromTemplate resolves an exercise template and appends it to the
// tracked session, persisting the new tree.
func (s *trackerService) AddExerciseFromTemplate(ctx context.Context, tracker *SessionTracker, exerciseTemplateID primitive.ObjectID) error {
	rctx, cancel := s.remoteCtx(ctx)
	template, err := s.exerciseTmpl.GetByID(rctx, exerciseTemplateID)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return mapRemoteErr(err)
	}
	if template.AuthorID != tracker.AuthorID() {
		return ErrTemplateNotFound
	}

	tracker.AddExercise(template)
	return s.SaveProgress(ctx, tracker)
}

// === After-the-fact correction ===

// BeginEdit opens a finished session for correction. The session must not be
// actively tracked or already under edit; resuming is the path for
// in-progress sessions.
func (s *trackerService) BeginEdit(ctx context.Context, authorID, sessionID primitive.ObjectID) (*SessionTracker, error) {
	s.mu.Lock()
	_, tracking := s.trackers[sessionID]
	_, editing := s.edits[sessionID]
	s.mu.Unlock()
	if tracking {
		return nil, ErrSessionNotEnded
	}
	if editing {
		return nil, ErrAlreadyEditing
	}

	session, err := s.loadSession(ctx, authorID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.InProgress() {
		return nil, ErrSessionNotEnded
	}

	editor := NewSessionEditor(session)
	if err := editor.Begin(); err != nil {
		return nil, err
	}
	draft, err := editor.Draft()
	if err != nil {
		return nil, err
	}
	edit := &sessionEdit{editor: editor, tracker: NewSessionTracker(draft)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edits[sessionID]; ok {
		return nil, ErrAlreadyEditing
	}
	s.edits[sessionID] = edit
	return edit.tracker, nil
}

// editFor resolves the open edit for a session, enforcing ownership.
func (s *trackerService) editFor(authorID, sessionID primitive.ObjectID) (*sessionEdit, error) {
	s.mu.Lock()
	edit, ok := s.edits[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotEditing
	}
	if edit.tracker.AuthorID() != authorID {
		return nil, ErrSessionNotFound
	}
	return edit, nil
}

// EditTracker returns the draft tracker for an open edit.
func (s *trackerService) EditTracker(authorID, sessionID primitive.ObjectID) (*SessionTracker, error) {
	edit, err := s.editFor(authorID, sessionID)
	if err != nil {
		return nil, err
	}
	return edit.tracker, nil
}

// SaveEdit persists the corrected tree local-then-remote and resolves the
// edit. History snapshots are re-synthesized so corrections show up in the
// per-exercise history; the exercise-id keys make that an upsert, not an
// append. A remote failure leaves the edit open so the save can be retried.
func (s *trackerService) SaveEdit(ctx context.Context, authorID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	edit, err := s.editFor(authorID, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := edit.tracker.Snapshot()
	if err := s.persistLocal(ctx, snapshot); err != nil {
		return nil, err
	}

	rctx, cancel := s.remoteCtx(ctx)
	err = s.sessionRepo.Update(rctx, snapshot)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteSyncFailed, mapRemoteErr(err))
	}

	if snapshot.EndedAt != nil {
		entries := make([]domain.ExerciseHistoryEntry, 0, len(snapshot.Exercises))
		for i := range snapshot.Exercises {
			entries = append(entries, domain.NewHistoryEntry(&snapshot.Exercises[i], *snapshot.EndedAt))
		}
		rctx, cancel = s.remoteCtx(ctx)
		err = s.historyRepo.CreateMany(rctx, entries)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteSyncFailed, mapRemoteErr(err))
		}
	}

	if _, err := edit.editor.Save(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	delete(s.edits, sessionID)
	s.mu.Unlock()
	return snapshot, nil
}

// DiscardEdit drops the draft without persisting anything. When the draft
// carries unsaved changes the discard must be forced.
func (s *trackerService) DiscardEdit(authorID, sessionID primitive.ObjectID, force bool) error {
	edit, err := s.editFor(authorID, sessionID)
	if err != nil {
		return err
	}
	if _, err := edit.editor.Discard(force); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.edits, sessionID)
	s.mu.Unlock()
	return nil
}

// === Reads, ending, deleting ===

// GetSession returns the full tree, cache-first.
func (s *trackerService) GetSession(ctx context.Context, authorID, sessionID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return s.loadSession(ctx, authorID, sessionID)
}

// ListSessions returns session summaries, newest first. When the remote
// store is unreachable the locally cached sessions are served instead.
func (s *trackerService) ListSessions(ctx context.Context, authorID primitive.ObjectID, limit int64) ([]domain.WorkoutSession, error) {
	rctx, cancel := s.remoteCtx(ctx)
	sessions, err := s.sessionRepo.GetByAuthor(rctx, authorID, limit)
	cancel()
	if err == nil {
		return sessions, nil
	}
	s.logger.Warn().Err(mapRemoteErr(err)).Msg("remote session list failed; serving local cache")

	cached, cacheErr := s.sessionCache.GetByAuthor(ctx, authorID)
	if cacheErr != nil {
		return nil, mapRemoteErr(err)
	}
	if limit > 0 && int64(len(cached)) > limit {
		cached = cached[:limit]
	}
	return cached, nil
}

// EndSession stamps only the end timestamp of a session that is not being
// actively tracked, e.g. a stale in-progress session ended from the list
// screen. Uses the narrow end update so the whole tree is not re-sent.
func (s *trackerService) EndSession(ctx context.Context, authorID, sessionID primitive.ObjectID) error {
	session, err := s.loadSession(ctx, authorID, sessionID)
	if err != nil {
		return err
	}
	if !session.InProgress() {
		return ErrSessionEnded
	}

	now := time.Now().UTC()
	session.EndedAt = &now
	session.UpdateExercises(session.Exercises, now)
	if err := s.persistLocal(ctx, session); err != nil {
		return err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if err := s.sessionRepo.End(rctx, sessionID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", ErrRemoteSyncFailed, mapRemoteErr(err))
	}

	if active, ok := s.registry.Active(authorID); ok && active == sessionID {
		s.registry.Clear(authorID)
	}
	return nil
}

// DeleteSession removes the session locally first, then remotely. A remote
// failure is surfaced as retryable and does not resurrect the local copy.
func (s *trackerService) DeleteSession(ctx context.Context, authorID, sessionID primitive.ObjectID) error {
	// Ownership check before destroying anything.
	if _, err := s.loadSession(ctx, authorID, sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	if tracker, ok := s.trackers[sessionID]; ok {
		delete(s.trackers, sessionID)
		tracker.Timer().Stop()
	}
	s.mu.Unlock()
	if active, ok := s.registry.Active(authorID); ok && active == sessionID {
		s.registry.Clear(authorID)
	}

	if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrLocalSaveFailed, err)
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if err := s.sessionRepo.Delete(rctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrRemoteSyncFailed, mapRemoteErr(err))
	}
	return nil
}

// ExerciseHistory lists the write-once snapshots for one exercise template.
func (s *trackerService) ExerciseHistory(ctx context.Context, authorID, templateID primitive.ObjectID, limit int64) ([]domain.ExerciseHistoryEntry, error) {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	entries, err := s.historyRepo.GetByAuthorAndTemplate(rctx, authorID, templateID, limit)
	if err != nil {
		return nil, mapRemoteErr(err)
	}
	return entries, nil
}

// === Unit preferences ===

// UnitPreference returns the per-exercise-template display units, falling
// back to the user's account defaults when none have been stored.
func (s *trackerService) UnitPreference(ctx context.Context, authorID, exerciseTemplateID primitive.ObjectID) (*domain.UnitPreference, error) {
	rctx, cancel := s.remoteCtx(ctx)
	pref, err := s.unitPrefs.Get(rctx, authorID, exerciseTemplateID)
	cancel()
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, mapRemoteErr(err)
	}

	rctx, cancel = s.remoteCtx(ctx)
	defer cancel()
	user, err := s.users.GetByID(rctx, authorID)
	if err != nil {
		return nil, mapRemoteErr(err)
	}
	return &domain.UnitPreference{
		AuthorID:           authorID,
		ExerciseTemplateID: exerciseTemplateID,
		WeightUnit:         user.WeightUnit,
		DistanceUnit:       user.DistanceUnit,
	}, nil
}

// SetUnitPreference stores the per-exercise-template display units,
// independently of any session.
func (s *trackerService) SetUnitPreference(ctx context.Context, pref *domain.UnitPreference) error {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if err := s.unitPrefs.Set(rctx, pref); err != nil {
		return mapRemoteErr(err)
	}
	return nil
}
