package api

import (
	"errors"
	"fmt"
	"net/http"

	"openlift/tracking-app/internal/domain"
	"openlift/tracking-app/internal/repository"
	"openlift/tracking-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateHandler exposes the exercise library and workout plan CRUD.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// --- Request Structs ---

type ExerciseTemplateRequest struct {
	Name            string              `json:"name" binding:"required"`
	TrackingMode    domain.TrackingMode `json:"trackingMode" binding:"required,oneof=weight_reps distance_time other"`
	MuscleGroup     string              `json:"muscleGroup,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	DefaultSetCount int                 `json:"defaultSetCount" binding:"gte=0"`
}

type WorkoutTemplateSlotRequest struct {
	ExerciseTemplateID string `json:"exerciseTemplateId" binding:"required"`
	SetCount           int    `json:"setCount" binding:"gte=0"`
}

type WorkoutTemplateRequest struct {
	Name      string                       `json:"name" binding:"required"`
	Notes     string                       `json:"notes,omitempty"`
	Exercises []WorkoutTemplateSlotRequest `json:"exercises"`
}

// --- Helpers ---

func respondTemplateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "template not found")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func (req *WorkoutTemplateRequest) toDomain(authorID primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	template := &domain.WorkoutTemplate{
		AuthorID: authorID,
		Name:     req.Name,
		Notes:    req.Notes,
	}
	for _, slot := range req.Exercises {
		exerciseTemplateID, err := primitive.ObjectIDFromHex(slot.ExerciseTemplateID)
		if err != nil {
			return nil, fmt.Errorf("invalid exerciseTemplateId %q", slot.ExerciseTemplateID)
		}
		template.Exercises = append(template.Exercises, domain.WorkoutTemplateExercise{
			ExerciseTemplateID: exerciseTemplateID,
			SetCount:           slot.SetCount,
		})
	}
	return template, nil
}

// --- Exercise Template Handlers ---

func (h *TemplateHandler) CreateExerciseTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ExerciseTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template := &domain.ExerciseTemplate{
		AuthorID:        userID,
		Name:            req.Name,
		TrackingMode:    req.TrackingMode,
		MuscleGroup:     req.MuscleGroup,
		Notes:           req.Notes,
		DefaultSetCount: req.DefaultSetCount,
	}
	created, err := h.templateService.CreateExerciseTemplate(c.Request.Context(), template)
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TemplateHandler) ListExerciseTemplates(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	templates, err := h.templateService.ListExerciseTemplates(c.Request.Context(), userID)
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetExerciseTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	template, err := h.templateService.GetExerciseTemplate(c.Request.Context(), userID, id)
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) UpdateExerciseTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req ExerciseTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template := &domain.ExerciseTemplate{
		ID:              id,
		Name:            req.Name,
		TrackingMode:    req.TrackingMode,
		MuscleGroup:     req.MuscleGroup,
		Notes:           req.Notes,
		DefaultSetCount: req.DefaultSetCount,
	}
	if err := h.templateService.UpdateExerciseTemplate(c.Request.Context(), userID, template); err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) DeleteExerciseTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.templateService.DeleteExerciseTemplate(c.Request.Context(), userID, id); err != nil {
		respondTemplateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Workout Template Handlers ---

func (h *TemplateHandler) CreateWorkoutTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req WorkoutTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	template, err := req.toDomain(userID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.templateService.CreateWorkoutTemplate(c.Request.Context(), template)
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TemplateHandler) ListWorkoutTemplates(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	templates, err := h.templateService.ListWorkoutTemplates(c.Request.Context(), userID)
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetWorkoutTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	template, err := h.templateService.GetWorkoutTemplate(c.Request.Context(), userID, id)
	if err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) UpdateWorkoutTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req WorkoutTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	template, err := req.toDomain(userID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	template.ID = id

	if err := h.templateService.UpdateWorkoutTemplate(c.Request.Context(), userID, template); err != nil {
		respondTemplateError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) DeleteWorkoutTemplate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.templateService.DeleteWorkoutTemplate(c.Request.Context(), userID, id); err != nil {
		respondTemplateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
