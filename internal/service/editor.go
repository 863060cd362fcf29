package service

import (
	"errors"
	"sync"

	"openlift/tracking-app/internal/domain"
)

// --- Error Definitions ---
var (
	ErrNotEditing     = errors.New("no edit in progress")
	ErrAlreadyEditing = errors.New("an edit is already in progress")
	ErrUnsavedChanges = errors.New("edit has unsaved changes")
	ErrEditorSpent    = errors.New("editor has already been resolved")
)

// EditorState is the lifecycle phase of a SessionEditor.
type EditorState string

const (
	EditorViewing   EditorState = "viewing"
	EditorEditing   EditorState = "editing"
	EditorSaved     EditorState = "saved"
	EditorDiscarded EditorState = "discarded"
)

// SessionEditor wraps a finished session for review-and-correct editing.
// Entering edit mode deep-copies the tree; every mutation lands on the copy
// only, so a discard restores the exact pre-edit state with no persistence
// round trip. An editor resolves exactly once, to Saved or Discarded.
type SessionEditor struct {
	mu       sync.Mutex
	state    EditorState
	original *domain.WorkoutSession
	draft    *domain.WorkoutSession
}

// NewSessionEditor wraps a session in the Viewing state.
func NewSessionEditor(session *domain.WorkoutSession) *SessionEditor {
	return &SessionEditor{
		state:    EditorViewing,
		original: session,
	}
}

// State returns the current lifecycle phase.
func (e *SessionEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Begin enters edit mode, cloning the tree into a draft.
func (e *SessionEditor) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case EditorViewing:
	case EditorEditing:
		return ErrAlreadyEditing
	default:
		return ErrEditorSpent
	}
	e.draft = e.original.Clone()
	e.state = EditorEditing
	return nil
}

// Draft exposes the mutable copy. Callers mutate it directly (or through a
// SessionTracker wrapped around it) and then Save or Discard.
func (e *SessionEditor) Draft() (*domain.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditorEditing {
		return nil, ErrNotEditing
	}
	return e.draft, nil
}

// HasChanges reports whether the draft differs from the pre-edit tree.
func (e *SessionEditor) HasChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditorEditing {
		return false
	}
	return !e.draft.Equal(e.original)
}

// Save resolves the editor, returning the draft as the new canonical tree.
// The caller is responsible for persisting it.
func (e *SessionEditor) Save() (*domain.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditorEditing {
		return nil, ErrNotEditing
	}
	e.state = EditorSaved
	e.original = e.draft
	e.draft = nil
	return e.original, nil
}

// Discard resolves the editor, dropping the draft. When the draft carries
// unsaved changes the discard must be forced, giving the caller a hook for a
// confirmation prompt.
func (e *SessionEditor) Discard(force bool) (*domain.WorkoutSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditorEditing {
		return nil, ErrNotEditing
	}
	if !force && !e.draft.Equal(e.original) {
		return nil, ErrUnsavedChanges
	}
	e.state = EditorDiscarded
	e.draft = nil
	return e.original, nil
}
