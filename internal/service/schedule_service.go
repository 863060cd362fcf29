package service

import (
	"context"
	"errors"
	"time"

	"openlift/tracking-app/internal/domain"
	"openlift/tracking-app/internal/repository"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleService manages calendar occurrences of workout templates.
type ScheduleService interface {
	Schedule(ctx context.Context, authorID, workoutTemplateID primitive.ObjectID, date time.Time) (*domain.ScheduledWorkout, error)
	ListRange(ctx context.Context, authorID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledWorkout, error)
	Delete(ctx context.Context, authorID, id primitive.ObjectID) error
	// SweepMissed marks every past-dated, unperformed occurrence in the range
	// as missed. Typically invoked when the calendar view loads.
	SweepMissed(ctx context.Context, authorID primitive.ObjectID, before time.Time) (int, error)
}

// scheduleService implements the ScheduleService interface.
type scheduleService struct {
	scheduledRepo repository.ScheduledWorkoutRepository
	workoutRepo   repository.WorkoutTemplateRepository
	logger        zerolog.Logger
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(scheduledRepo repository.ScheduledWorkoutRepository, workoutRepo repository.WorkoutTemplateRepository, logger zerolog.Logger) ScheduleService {
	return &scheduleService{scheduledRepo: scheduledRepo, workoutRepo: workoutRepo, logger: logger}
}

// Schedule plans a workout template for a calendar day.
func (s *scheduleService) Schedule(ctx context.Context, authorID, workoutTemplateID primitive.ObjectID, date time.Time) (*domain.ScheduledWorkout, error) {
	template, err := s.workoutRepo.GetByID(ctx, workoutTemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if template.AuthorID != authorID {
		return nil, ErrTemplateNotFound
	}

	now := time.Now().UTC()
	scheduled := &domain.ScheduledWorkout{
		AuthorID:          authorID,
		WorkoutTemplateID: workoutTemplateID,
		Date:              date.UTC().Truncate(24 * time.Hour),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	id, err := s.scheduledRepo.Create(ctx, scheduled)
	if err != nil {
		return nil, err
	}
	scheduled.ID = id
	return scheduled, nil
}

// ListRange returns the occurrences between from and to, inclusive.
func (s *scheduleService) ListRange(ctx context.Context, authorID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledWorkout, error) {
	return s.scheduledRepo.GetByAuthorAndRange(ctx, authorID, from, to)
}

// Delete removes an occurrence from the calendar.
func (s *scheduleService) Delete(ctx context.Context, authorID, id primitive.ObjectID) error {
	return s.scheduledRepo.Delete(ctx, id, authorID)
}

// SweepMissed walks the user's past occurrences and stamps the ones that were
// never performed. Individual stamp failures are logged and skipped so one
// bad document does not block the sweep.
func (s *scheduleService) SweepMissed(ctx context.Context, authorID primitive.ObjectID, before time.Time) (int, error) {
	occurrences, err := s.scheduledRepo.GetByAuthorAndRange(ctx, authorID, time.Time{}, before)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	marked := 0
	for i := range occurrences {
		occ := &occurrences[i]
		if occ.IsCompleted || occ.IsMissed {
			continue
		}
		if err := s.scheduledRepo.MarkMissed(ctx, occ.ID, now); err != nil {
			s.logger.Warn().Err(err).Str("scheduled", occ.ID.Hex()).Msg("failed to mark occurrence missed")
			continue
		}
		marked++
	}
	return marked, nil
}
