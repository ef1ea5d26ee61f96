package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/repository"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

// ActivityService manages itinerary activities inside a vacation. All
// operations require accepted membership of the parent vacation.
type ActivityService struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	vacations  *VacationService
	logger     *slog.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(
	activities repository.ActivityRepository,
	users repository.UserRepository,
	vacations *VacationService,
	logger *slog.Logger,
) *ActivityService {
	return &ActivityService{
		activities: activities,
		users:      users,
		vacations:  vacations,
		logger:     logger,
	}
}

// CreateActivityInput holds the parameters for adding an activity.
type CreateActivityInput struct {
	Title       string
	Description string
	Location    string
	ScheduledAt *time.Time
}

// UpdateActivityInput carries partial activity updates.
type UpdateActivityInput struct {
	Title       *string
	Description *string
	Location    *string
	ScheduledAt *time.Time
}

// Create adds an activity to the vacation and awards experience points.
func (s *ActivityService) Create(ctx context.Context, userID, vacationID string, input CreateActivityInput) (*domain.Activity, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}

	if _, err := s.vacations.requireMember(ctx, vacationID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &domain.Activity{
		ID:          uuid.New().String(),
		VacationID:  vacationID,
		CreatedBy:   userID,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		ScheduledAt: input.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.activities.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	if err := s.users.AddExperience(ctx, userID, domain.XPActivityCreated); err != nil {
		s.logger.ErrorContext(ctx, "failed to award experience",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return a, nil
}

// List returns the vacation's activities ordered by schedule.
func (s *ActivityService) List(ctx context.Context, userID, vacationID string) ([]domain.Activity, error) {
	if _, err := s.vacations.requireMember(ctx, vacationID, userID); err != nil {
		return nil, err
	}

	activities, err := s.activities.ListByVacation(ctx, vacationID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	return activities, nil
}

// Update applies the non-nil fields of input. Any accepted member may edit.
func (s *ActivityService) Update(ctx context.Context, userID, activityID string, input UpdateActivityInput) (*domain.Activity, error) {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}

	if _, err := s.vacations.requireMember(ctx, a.VacationID, userID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title cannot be empty")
		}
		a.Title = *input.Title
	}
	if input.Description != nil {
		a.Description = *input.Description
	}
	if input.Location != nil {
		a.Location = *input.Location
	}
	if input.ScheduledAt != nil {
		a.ScheduledAt = input.ScheduledAt
	}

	if err := s.activities.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}

	return a, nil
}

// Delete removes an activity. The creator or the vacation owner may delete.
func (s *ActivityService) Delete(ctx context.Context, userID, activityID string) error {
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return fmt.Errorf("get activity: %w", err)
	}

	if _, err := s.vacations.requireMember(ctx, a.VacationID, userID); err != nil {
		return err
	}

	if a.CreatedBy != userID {
		v, err := s.vacations.vacations.GetByID(ctx, a.VacationID)
		if err != nil {
			return fmt.Errorf("get vacation: %w", err)
		}
		if v.OwnerID != userID {
			return apperrors.Forbidden("forbidden")
		}
	}

	if err := s.activities.Delete(ctx, activityID); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	return nil
}
