package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"openlift/tracking-app/internal/repository"
	"openlift/tracking-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleHandler exposes the workout calendar.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// --- Request Structs ---

type ScheduleWorkoutRequest struct {
	WorkoutTemplateID string `json:"workoutTemplateId" binding:"required"`
	// Date is the planned calendar day, RFC 3339.
	Date time.Time `json:"date" binding:"required"`
}

// --- Handler Methods ---

func respondScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound), errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// ScheduleWorkout plans a workout template for a calendar day.
func (h *ScheduleHandler) ScheduleWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ScheduleWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.WorkoutTemplateID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workoutTemplateId format")
		return
	}

	scheduled, err := h.scheduleService.Schedule(c.Request.Context(), userID, templateID, req.Date)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheduled)
}

// ListSchedule returns occurrences in the from/to range. Past unperformed
// occurrences are swept to missed before the list is returned, so the
// calendar never shows a stale "planned" state.
func (h *ScheduleHandler) ListSchedule(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	from, err := time.Parse(time.RFC3339, c.DefaultQuery("from", time.Now().UTC().AddDate(0, -1, 0).Format(time.RFC3339)))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid from date")
		return
	}
	to, err := time.Parse(time.RFC3339, c.DefaultQuery("to", time.Now().UTC().AddDate(0, 1, 0).Format(time.RFC3339)))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid to date")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if _, err := h.scheduleService.SweepMissed(c.Request.Context(), userID, today); err != nil {
		respondScheduleError(c, err)
		return
	}

	occurrences, err := h.scheduleService.ListRange(c.Request.Context(), userID, from, to)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, occurrences)
}

// DeleteScheduledWorkout removes an occurrence from the calendar.
func (h *ScheduleHandler) DeleteScheduledWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(c.Request.Context(), userID, id); err != nil {
		respondScheduleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
