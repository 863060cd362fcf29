package service

import (
	"errors"
	"testing"
)

// TestEditorDraftIsolation verifies edit-mode mutations land on the draft
// copy only, leaving the original untouched until save.
func TestEditorDraftIsolation(t *testing.T) {
	session := newTestSession(1, 2)
	originalName := session.Name
	editor := NewSessionEditor(session)

	if editor.State() != EditorViewing {
		t.Fatalf("state = %v, want viewing", editor.State())
	}
	if err := editor.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	draft, err := editor.Draft()
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	draft.Name = "Edited"
	draft.Exercises[0].Notes = "swapped grip"

	if session.Name != originalName {
		t.Error("edit leaked into the original before save")
	}
	if !editor.HasChanges() {
		t.Error("HasChanges should report the dirty draft")
	}
}

// TestEditorSave verifies saving promotes the draft to canonical and spends
// the editor.
func TestEditorSave(t *testing.T) {
	editor := NewSessionEditor(newTestSession(1, 1))
	if err := editor.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	draft, _ := editor.Draft()
	draft.Name = "Edited"

	saved, err := editor.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Name != "Edited" {
		t.Error("saved session missing the edit")
	}
	if editor.State() != EditorSaved {
		t.Errorf("state = %v, want saved", editor.State())
	}

	if err := editor.Begin(); !errors.Is(err, ErrEditorSpent) {
		t.Errorf("Begin on spent editor = %v, want ErrEditorSpent", err)
	}
}

// TestEditorDiscard verifies a dirty draft needs force, and that discarding
// restores the exact pre-edit tree.
func TestEditorDiscard(t *testing.T) {
	session := newTestSession(1, 2)
	pristine := session.Clone()
	editor := NewSessionEditor(session)
	if err := editor.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	draft, _ := editor.Draft()
	draft.Exercises[0].Sets[0].Reps = ptrInt(99)

	if _, err := editor.Discard(false); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("Discard(false) with dirty draft = %v, want ErrUnsavedChanges", err)
	}

	restored, err := editor.Discard(true)
	if err != nil {
		t.Fatalf("Discard(true): %v", err)
	}
	if !restored.Equal(pristine) {
		t.Error("discard did not restore the pre-edit tree")
	}
	if editor.State() != EditorDiscarded {
		t.Errorf("state = %v, want discarded", editor.State())
	}
}

// TestEditorCleanDiscard verifies an unchanged draft discards without force.
func TestEditorCleanDiscard(t *testing.T) {
	editor := NewSessionEditor(newTestSession(1, 1))
	if err := editor.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if editor.HasChanges() {
		t.Error("fresh draft should have no changes")
	}
	if _, err := editor.Discard(false); err != nil {
		t.Errorf("clean Discard(false) = %v, want nil", err)
	}
}

// TestEditorGuards verifies operations outside the editing state fail with
// the expected errors.
func TestEditorGuards(t *testing.T) {
	editor := NewSessionEditor(newTestSession(1, 1))

	if _, err := editor.Draft(); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Draft before Begin = %v, want ErrNotEditing", err)
	}
	if _, err := editor.Save(); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Save before Begin = %v, want ErrNotEditing", err)
	}

	if err := editor.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := editor.Begin(); !errors.Is(err, ErrAlreadyEditing) {
		t.Errorf("double Begin = %v, want ErrAlreadyEditing", err)
	}
}
