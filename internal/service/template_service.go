package service

import (
	"context"
	"errors"
	"time"

	"openlift/tracking-app/internal/domain"
	"openlift/tracking-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrValidation = errors.New("validation failed")
)

// TemplateService manages the exercise library and reusable workout plans.
type TemplateService interface {
	CreateExerciseTemplate(ctx context.Context, template *domain.ExerciseTemplate) (*domain.ExerciseTemplate, error)
	GetExerciseTemplate(ctx context.Context, authorID, id primitive.ObjectID) (*domain.ExerciseTemplate, error)
	ListExerciseTemplates(ctx context.Context, authorID primitive.ObjectID) ([]domain.ExerciseTemplate, error)
	UpdateExerciseTemplate(ctx context.Context, authorID primitive.ObjectID, template *domain.ExerciseTemplate) error
	DeleteExerciseTemplate(ctx context.Context, authorID, id primitive.ObjectID) error

	CreateWorkoutTemplate(ctx context.Context, template *domain.WorkoutTemplate) (*domain.WorkoutTemplate, error)
	GetWorkoutTemplate(ctx context.Context, authorID, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	ListWorkoutTemplates(ctx context.Context, authorID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
	UpdateWorkoutTemplate(ctx context.Context, authorID primitive.ObjectID, template *domain.WorkoutTemplate) error
	DeleteWorkoutTemplate(ctx context.Context, authorID, id primitive.ObjectID) error
}

// templateService implements the TemplateService interface.
type templateService struct {
	exerciseRepo repository.ExerciseTemplateRepository
	workoutRepo  repository.WorkoutTemplateRepository
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(exerciseRepo repository.ExerciseTemplateRepository, workoutRepo repository.WorkoutTemplateRepository) TemplateService {
	return &templateService{exerciseRepo: exerciseRepo, workoutRepo: workoutRepo}
}

func validateExerciseTemplate(template *domain.ExerciseTemplate) error {
	if template.Name == "" {
		return errors.Join(ErrValidation, errors.New("name cannot be empty"))
	}
	if !template.TrackingMode.Valid() {
		return errors.Join(ErrValidation, errors.New("unknown tracking mode"))
	}
	if template.DefaultSetCount < 0 {
		return errors.Join(ErrValidation, errors.New("default set count cannot be negative"))
	}
	return nil
}

// CreateExerciseTemplate adds an exercise definition to the user's library.
func (s *templateService) CreateExerciseTemplate(ctx context.Context, template *domain.ExerciseTemplate) (*domain.ExerciseTemplate, error) {
	if err := validateExerciseTemplate(template); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	id, err := s.exerciseRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}
	template.ID = id
	return template, nil
}

func (s *templateService) GetExerciseTemplate(ctx context.Context, authorID, id primitive.ObjectID) (*domain.ExerciseTemplate, error) {
	template, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if template.AuthorID != authorID {
		return nil, repository.ErrNotFound
	}
	return template, nil
}

func (s *templateService) ListExerciseTemplates(ctx context.Context, authorID primitive.ObjectID) ([]domain.ExerciseTemplate, error) {
	return s.exerciseRepo.GetByAuthor(ctx, authorID)
}

func (s *templateService) UpdateExerciseTemplate(ctx context.Context, authorID primitive.ObjectID, template *domain.ExerciseTemplate) error {
	if err := validateExerciseTemplate(template); err != nil {
		return err
	}
	existing, err := s.GetExerciseTemplate(ctx, authorID, template.ID)
	if err != nil {
		return err
	}
	template.AuthorID = existing.AuthorID
	template.CreatedAt = existing.CreatedAt
	template.UpdatedAt = time.Now().UTC()
	return s.exerciseRepo.Update(ctx, template)
}

func (s *templateService) DeleteExerciseTemplate(ctx context.Context, authorID, id primitive.ObjectID) error {
	return s.exerciseRepo.Delete(ctx, id, authorID)
}

func validateWorkoutTemplate(template *domain.WorkoutTemplate) error {
	if template.Name == "" {
		return errors.Join(ErrValidation, errors.New("name cannot be empty"))
	}
	for i := range template.Exercises {
		slot := &template.Exercises[i]
		if slot.ExerciseTemplateID.IsZero() {
			return errors.Join(ErrValidation, errors.New("exercise slot is missing a template reference"))
		}
		if slot.SetCount < 0 {
			return errors.Join(ErrValidation, errors.New("set count cannot be negative"))
		}
	}
	return nil
}

// CreateWorkoutTemplate stores a reusable workout plan. Slot names and
// tracking modes are denormalized from the referenced exercise templates so
// starting a session does not need N extra lookups.
func (s *templateService) CreateWorkoutTemplate(ctx context.Context, template *domain.WorkoutTemplate) (*domain.WorkoutTemplate, error) {
	if err := validateWorkoutTemplate(template); err != nil {
		return nil, err
	}
	if err := s.denormalizeSlots(ctx, template); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	id, err := s.workoutRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}
	template.ID = id
	return template, nil
}

// denormalizeSlots copies name and tracking mode from each slot's exercise
// template, validating ownership along the way.
func (s *templateService) denormalizeSlots(ctx context.Context, template *domain.WorkoutTemplate) error {
	for i := range template.Exercises {
		slot := &template.Exercises[i]
		exercise, err := s.exerciseRepo.GetByID(ctx, slot.ExerciseTemplateID)
		if err != nil {
			return err
		}
		if exercise.AuthorID != template.AuthorID {
			return repository.ErrNotFound
		}
		slot.Name = exercise.Name
		slot.TrackingMode = exercise.TrackingMode
		if slot.SetCount == 0 {
			slot.SetCount = exercise.DefaultSetCount
		}
	}
	return nil
}

func (s *templateService) GetWorkoutTemplate(ctx context.Context, authorID, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	template, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if template.AuthorID != authorID {
		return nil, repository.ErrNotFound
	}
	return template, nil
}

func (s *templateService) ListWorkoutTemplates(ctx context.Context, authorID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	return s.workoutRepo.GetByAuthor(ctx, authorID)
}

func (s *templateService) UpdateWorkoutTemplate(ctx context.Context, authorID primitive.ObjectID, template *domain.WorkoutTemplate) error {
	if err := validateWorkoutTemplate(template); err != nil {
		return err
	}
	existing, err := s.GetWorkoutTemplate(ctx, authorID, template.ID)
	if err != nil {
		return err
	}
	template.AuthorID = existing.AuthorID
	if err := s.denormalizeSlots(ctx, template); err != nil {
		return err
	}
	template.CreatedAt = existing.CreatedAt
	template.UpdatedAt = time.Now().UTC()
	return s.workoutRepo.Update(ctx, template)
}

func (s *templateService) DeleteWorkoutTemplate(ctx context.Context, authorID, id primitive.ObjectID) error {
	return s.workoutRepo.Delete(ctx, id, authorID)
}
