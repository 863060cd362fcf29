package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"openlift/tracking-app/internal/domain"
	"openlift/tracking-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler exposes the session lifecycle and the live tracking flow.
type SessionHandler struct {
	trackerService service.TrackerService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(trackerService service.TrackerService) *SessionHandler {
	return &SessionHandler{trackerService: trackerService}
}

// --- Request/Response Structs ---

// StartSessionRequest starts a session from a workout template, from a
// scheduled occurrence, or empty, depending on which fields are set.
type StartSessionRequest struct {
	WorkoutTemplateID  string `json:"workoutTemplateId,omitempty"`
	ScheduledWorkoutID string `json:"scheduledWorkoutId,omitempty"`
	Name               string `json:"name,omitempty"`
}

// TrackerStateResponse is the tracking view state: the full tree plus the
// focus, card and timer state the session screen renders from.
type TrackerStateResponse struct {
	Session           *domain.WorkoutSession `json:"session"`
	CurrentExerciseID *string                `json:"currentExerciseId,omitempty"`
	ElapsedSeconds    int                    `json:"elapsedSeconds"`
	TimerActive       bool                   `json:"timerActive"`
	AutoAdvanced      bool                   `json:"autoAdvanced,omitempty"`
}

type AddExerciseRequest struct {
	ExerciseTemplateID string `json:"exerciseTemplateId" binding:"required"`
}

// UpdateSetRequest carries the editable fields of a set. Structural fields
// (ids, index) are never client-writable. Completed toggles the completion
// timestamp server-side.
type UpdateSetRequest struct {
	Reps           *int     `json:"reps,omitempty"`
	WeightKg       *float64 `json:"weightKg,omitempty"`
	DurationSec    *int     `json:"durationSec,omitempty"`
	DistanceMeters *float64 `json:"distanceMeters,omitempty"`
	RPE            *float64 `json:"rpe,omitempty"`
	IsWarmup       bool     `json:"isWarmup"`
	Completed      bool     `json:"completed"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type UnitPreferenceRequest struct {
	WeightUnit   domain.WeightUnit   `json:"weightUnit" binding:"required,oneof=kg lb"`
	DistanceUnit domain.DistanceUnit `json:"distanceUnit" binding:"required,oneof=km mi"`
}

// --- Helpers ---

// respondServiceError maps tracker-service errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrScheduledNotFound),
		errors.Is(err, service.ErrNotEditing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionAlreadyActive),
		errors.Is(err, service.ErrSessionEnded),
		errors.Is(err, service.ErrSessionNotEnded),
		errors.Is(err, service.ErrAlreadyEditing),
		errors.Is(err, service.ErrUnsavedChanges),
		errors.Is(err, service.ErrEditorSpent):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrTimeout):
		abortWithError(c, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, service.ErrRemoteSyncFailed):
		abortWithError(c, http.StatusBadGateway, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func trackerState(tracker *service.SessionTracker, autoAdvanced bool) TrackerStateResponse {
	resp := TrackerStateResponse{
		Session:        tracker.Snapshot(),
		ElapsedSeconds: tracker.Timer().Elapsed(),
		TimerActive:    tracker.Timer().Active(),
		AutoAdvanced:   autoAdvanced,
	}
	if id, ok := tracker.CurrentExerciseID(); ok {
		hex := id.Hex()
		resp.CurrentExerciseID = &hex
	}
	return resp
}

// resumeTracker resolves the live tracker for the :id session, rehydrating if
// needed. On failure the response is already written.
func (h *SessionHandler) resumeTracker(c *gin.Context) (*service.SessionTracker, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return nil, false
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return nil, false
	}
	tracker, err := h.trackerService.Resume(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return tracker, true
}

// --- Lifecycle Handlers ---

// StartSession begins tracking a new session.
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	var tracker *service.SessionTracker
	switch {
	case req.ScheduledWorkoutID != "":
		scheduledID, parseErr := primitive.ObjectIDFromHex(req.ScheduledWorkoutID)
		if parseErr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid scheduledWorkoutId format")
			return
		}
		tracker, err = h.trackerService.StartFromScheduled(c.Request.Context(), userID, scheduledID)
	case req.WorkoutTemplateID != "":
		templateID, parseErr := primitive.ObjectIDFromHex(req.WorkoutTemplateID)
		if parseErr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid workoutTemplateId format")
			return
		}
		tracker, err = h.trackerService.StartFromTemplate(c.Request.Context(), userID, templateID)
	default:
		tracker, err = h.trackerService.StartEmpty(c.Request.Context(), userID, req.Name)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trackerState(tracker, false))
}

// ResumeSession rehydrates (or reuses) the live tracker and returns its state.
func (h *SessionHandler) ResumeSession(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// ListSessions returns session summaries, newest first.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	sessions, err := h.trackerService.ListSessions(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession returns the full session tree.
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	session, err := h.trackerService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// EndSession stamps the end timestamp of a session without the full finish
// flow, e.g. closing out a stale in-progress session from the list screen.
func (h *SessionHandler) EndSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.trackerService.EndSession(c.Request.Context(), userID, sessionID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteSession removes a session locally and remotely.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.trackerService.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Tracking Handlers ---

// AddExercise appends an exercise from the library to the tracked session.
func (h *SessionHandler) AddExercise(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}

	var req AddExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.ExerciseTemplateID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseTemplateId format")
		return
	}

	if err := h.trackerService.AddExerciseFromTemplate(c.Request.Context(), tracker, templateID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// DeleteExercise removes an exercise (and its sets) from the tracked session.
func (h *SessionHandler) DeleteExercise(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	tracker.DeleteExercise(exerciseID)
	if err := h.trackerService.SaveProgress(c.Request.Context(), tracker); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// AddSet appends a set to an exercise, seeded from its previous set.
func (h *SessionHandler) AddSet(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	tracker.AddSet(exerciseID)
	if err := h.trackerService.SaveProgress(c.Request.Context(), tracker); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// UpdateSet replaces a set's editable fields. Completing the last open set of
// the current exercise auto-advances focus; the response reports it.
func (h *SessionHandler) UpdateSet(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}

	advanced, ok := applySetUpdate(c, tracker, exerciseID, setID)
	if !ok {
		return
	}
	if err := h.trackerService.SaveProgress(c.Request.Context(), tracker); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, advanced))
}

// applySetUpdate binds an UpdateSetRequest, validates it against the
// exercise's tracking mode and applies it through the tracker. Shared by the
// live and after-the-fact edit paths; on failure the response is already
// written.
func applySetUpdate(c *gin.Context, tracker *service.SessionTracker, exerciseID, setID primitive.ObjectID) (advanced, ok bool) {
	var req UpdateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return false, false
	}

	snapshot := tracker.Snapshot()
	exercise := snapshot.ExerciseByID(exerciseID)
	if exercise == nil {
		abortWithError(c, http.StatusNotFound, "exercise not found in session")
		return false, false
	}
	if err := validateSetForMode(&req, exercise.TrackingMode); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return false, false
	}

	updated := domain.WorkoutSet{
		ID:             setID,
		Reps:           req.Reps,
		WeightKg:       req.WeightKg,
		DurationSec:    req.DurationSec,
		DistanceMeters: req.DistanceMeters,
		RPE:            req.RPE,
		IsWarmup:       req.IsWarmup,
	}
	if req.Completed {
		// Keep the original completion time when the set was already done.
		if prev := exercise.SetByID(setID); prev != nil && prev.CompletedAt != nil {
			updated.CompletedAt = prev.CompletedAt
		} else {
			now := time.Now().UTC()
			updated.CompletedAt = &now
		}
	}

	return tracker.UpdateSet(updated, exerciseID), true
}

// validateSetForMode rejects metric fields that do not belong to the
// exercise's tracking mode.
func validateSetForMode(req *UpdateSetRequest, mode domain.TrackingMode) error {
	switch mode {
	case domain.TrackingWeightReps:
		if req.DurationSec != nil || req.DistanceMeters != nil {
			return domain.ErrInvalidSetForMode
		}
	case domain.TrackingDistanceTime:
		if req.Reps != nil || req.WeightKg != nil {
			return domain.ErrInvalidSetForMode
		}
	}
	return nil
}

// DeleteSet removes a set from an exercise.
func (h *SessionHandler) DeleteSet(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}

	tracker.DeleteSet(setID, exerciseID)
	if err := h.trackerService.SaveProgress(c.Request.Context(), tracker); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// UpdateSessionNotes replaces the session-level notes.
func (h *SessionHandler) UpdateSessionNotes(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}

	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	tracker.UpdateSessionNotes(req.Notes)
	if err := h.trackerService.SaveProgress(c.Request.Context(), tracker); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// UpdateExerciseNotes replaces one exercise's notes.
func (h *SessionHandler) UpdateExerciseNotes(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}

	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	tracker.UpdateExerciseNotes(exerciseID, req.Notes)
	if err := h.trackerService.SaveProgress(c.Request.Context(), tracker); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// ToggleTimer pauses or resumes the elapsed-time counter.
func (h *SessionHandler) ToggleTimer(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	active := tracker.Timer().PauseResume()
	c.JSON(http.StatusOK, gin.H{
		"timerActive":    active,
		"elapsedSeconds": tracker.Timer().Elapsed(),
	})
}

// SaveAndExit persists the partial session and leaves tracking mode.
func (h *SessionHandler) SaveAndExit(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	if err := h.trackerService.SaveAndExit(c.Request.Context(), tracker); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DiscardAndExit leaves tracking mode without persisting in-memory changes.
func (h *SessionHandler) DiscardAndExit(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	h.trackerService.DiscardAndExit(tracker)
	c.Status(http.StatusNoContent)
}

// FinishWorkout ends the session, synthesizes history and exits tracking.
func (h *SessionHandler) FinishWorkout(c *gin.Context) {
	tracker, ok := h.resumeTracker(c)
	if !ok {
		return
	}
	session, err := h.trackerService.FinishWorkout(c.Request.Context(), tracker)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// --- After-the-fact Edit Handlers ---

// editTracker resolves the draft tracker for the :id session's open edit.
// On failure the response is already written.
func (h *SessionHandler) editTracker(c *gin.Context) (*service.SessionTracker, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return nil, false
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return nil, false
	}
	tracker, err := h.trackerService.EditTracker(userID, sessionID)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return tracker, true
}

// BeginEdit opens a finished session for correction. All edits land on a
// draft copy; nothing persists until the edit is saved.
func (h *SessionHandler) BeginEdit(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	tracker, err := h.trackerService.BeginEdit(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// AddEditedSet appends a set to an exercise of the draft.
func (h *SessionHandler) AddEditedSet(c *gin.Context) {
	tracker, ok := h.editTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	tracker.AddSet(exerciseID)
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// UpdateEditedSet replaces a set's editable fields on the draft.
func (h *SessionHandler) UpdateEditedSet(c *gin.Context) {
	tracker, ok := h.editTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}
	if _, ok := applySetUpdate(c, tracker, exerciseID, setID); !ok {
		return
	}
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// DeleteEditedSet removes a set from an exercise of the draft.
func (h *SessionHandler) DeleteEditedSet(c *gin.Context) {
	tracker, ok := h.editTracker(c)
	if !ok {
		return
	}
	exerciseID, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	setID, ok := pathObjectID(c, "setId")
	if !ok {
		return
	}
	tracker.DeleteSet(setID, exerciseID)
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// UpdateEditedNotes replaces the draft's session-level notes.
func (h *SessionHandler) UpdateEditedNotes(c *gin.Context) {
	tracker, ok := h.editTracker(c)
	if !ok {
		return
	}
	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	tracker.UpdateSessionNotes(req.Notes)
	c.JSON(http.StatusOK, trackerState(tracker, false))
}

// SaveEdit persists the corrected session and closes the edit.
func (h *SessionHandler) SaveEdit(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	session, err := h.trackerService.SaveEdit(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// DiscardEdit drops the draft. A draft with unsaved changes is only dropped
// when ?force=true, giving the client a confirmation hook.
func (h *SessionHandler) DiscardEdit(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	sessionID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	force := c.Query("force") == "true"
	if err := h.trackerService.DiscardEdit(userID, sessionID, force); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- History and Unit Preference Handlers ---

// ExerciseHistory lists historical snapshots for one exercise template.
func (h *SessionHandler) ExerciseHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	templateID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	entries, err := h.trackerService.ExerciseHistory(c.Request.Context(), userID, templateID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetUnitPreference returns the display units for one exercise template.
func (h *SessionHandler) GetUnitPreference(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	templateID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	pref, err := h.trackerService.UnitPreference(c.Request.Context(), userID, templateID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

// SetUnitPreference stores the display units for one exercise template.
func (h *SessionHandler) SetUnitPreference(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	templateID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req UnitPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	pref := &domain.UnitPreference{
		AuthorID:           userID,
		ExerciseTemplateID: templateID,
		WeightUnit:         req.WeightUnit,
		DistanceUnit:       req.DistanceUnit,
	}
	if err := h.trackerService.SetUnitPreference(c.Request.Context(), pref); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}
