package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/event"
	"github.com/wayfarelab/wayfare/internal/repository"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/pagination"
)

// VacationService manages vacations and their membership.
type VacationService struct {
	vacations     repository.VacationRepository
	users         repository.UserRepository
	notifications *NotificationService
	producer      *event.Producer
	logger        *slog.Logger
}

// NewVacationService creates a new vacation service.
func NewVacationService(
	vacations repository.VacationRepository,
	users repository.UserRepository,
	notifications *NotificationService,
	producer *event.Producer,
	logger *slog.Logger,
) *VacationService {
	return &VacationService{
		vacations:     vacations,
		users:         users,
		notifications: notifications,
		producer:      producer,
		logger:        logger,
	}
}

// CreateVacationInput holds the parameters for creating a vacation.
type CreateVacationInput struct {
	Title       string
	Description string
	Location    string
	StartsOn    *time.Time
	EndsOn      *time.Time
}

// UpdateVacationInput carries partial vacation updates. Nil fields are left
// unchanged.
type UpdateVacationInput struct {
	Title       *string
	Description *string
	Location    *string
	StartsOn    *time.Time
	EndsOn      *time.Time
	CoverURL    *string
}

// Create makes a new vacation owned by the user and awards experience points.
func (s *VacationService) Create(ctx context.Context, ownerID string, input CreateVacationInput) (*domain.Vacation, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.StartsOn != nil && input.EndsOn != nil && input.EndsOn.Before(*input.StartsOn) {
		return nil, apperrors.InvalidInput("end date cannot be before start date")
	}

	now := time.Now().UTC()
	v := &domain.Vacation{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartsOn:    input.StartsOn,
		EndsOn:      input.EndsOn,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.vacations.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create vacation: %w", err)
	}

	if err := s.users.AddExperience(ctx, ownerID, domain.XPVacationCreated); err != nil {
		s.logger.ErrorContext(ctx, "failed to award experience",
			slog.String("user_id", ownerID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "vacation created",
		slog.String("vacation_id", v.ID),
		slog.String("owner_id", ownerID),
	)

	return v, nil
}

// Get returns a vacation visible to the user. Non-members get not found.
func (s *VacationService) Get(ctx context.Context, userID, vacationID string) (*domain.Vacation, error) {
	v, err := s.vacations.GetByID(ctx, vacationID)
	if err != nil {
		return nil, fmt.Errorf("get vacation: %w", err)
	}

	if _, err := s.requireMember(ctx, vacationID, userID); err != nil {
		return nil, err
	}

	return v, nil
}

// List returns a page of vacations the user is an accepted member of.
func (s *VacationService) List(ctx context.Context, userID string, page pagination.Params) ([]domain.Vacation, int, error) {
	items, total, err := s.vacations.ListByUser(ctx, userID, page.PerPage, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vacations: %w", err)
	}

	return items, total, nil
}

// Update applies the non-nil fields of input. Only the owner may update.
func (s *VacationService) Update(ctx context.Context, userID, vacationID string, input UpdateVacationInput) (*domain.Vacation, error) {
	v, err := s.requireOwner(ctx, userID, vacationID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title cannot be empty")
		}
		v.Title = *input.Title
	}
	if input.Description != nil {
		v.Description = *input.Description
	}
	if input.Location != nil {
		v.Location = *input.Location
	}
	if input.StartsOn != nil {
		v.StartsOn = input.StartsOn
	}
	if input.EndsOn != nil {
		v.EndsOn = input.EndsOn
	}
	if input.CoverURL != nil {
		v.CoverURL = *input.CoverURL
	}
	if v.StartsOn != nil && v.EndsOn != nil && v.EndsOn.Before(*v.StartsOn) {
		return nil, apperrors.InvalidInput("end date cannot be before start date")
	}

	if err := s.vacations.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update vacation: %w", err)
	}

	return v, nil
}

// Delete removes the vacation. Only the owner may delete.
func (s *VacationService) Delete(ctx context.Context, userID, vacationID string) error {
	if _, err := s.requireOwner(ctx, userID, vacationID); err != nil {
		return err
	}

	if err := s.vacations.Delete(ctx, vacationID); err != nil {
		return fmt.Errorf("delete vacation: %w", err)
	}

	s.logger.InfoContext(ctx, "vacation deleted",
		slog.String("vacation_id", vacationID),
		slog.String("user_id", userID),
	)

	return nil
}

// Invite adds a user to the vacation with INVITED status and notifies them.
// Only the owner may invite.
func (s *VacationService) Invite(ctx context.Context, inviterID, vacationID, usertag string) (*domain.VacationMember, error) {
	v, err := s.requireOwner(ctx, inviterID, vacationID)
	if err != nil {
		return nil, err
	}

	invitee, err := s.users.GetByUsertag(ctx, usertag)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", usertag)
		}
		return nil, fmt.Errorf("get invitee: %w", err)
	}
	if invitee.ID == inviterID {
		return nil, apperrors.InvalidInput("cannot invite yourself")
	}

	m := &domain.VacationMember{
		VacationID: vacationID,
		UserID:     invitee.ID,
		Role:       domain.MemberRoleMember,
		Status:     domain.MemberStatusInvited,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.vacations.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	if err := s.notifications.Notify(ctx, invitee.ID, domain.NotificationVacationInvite, inviterID, vacationID,
		fmt.Sprintf("You were invited to %q", v.Title)); err != nil {
		s.logger.ErrorContext(ctx, "failed to create invite notification",
			slog.String("vacation_id", vacationID),
			slog.String("user_id", invitee.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishMemberInvited(ctx, vacationID, inviterID, invitee.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish member invited event",
			slog.String("vacation_id", vacationID),
			slog.String("error", err.Error()),
		)
	}

	return m, nil
}

// AcceptInvite moves the caller's own membership from INVITED to ACCEPTED.
func (s *VacationService) AcceptInvite(ctx context.Context, userID, vacationID string) error {
	m, err := s.vacations.GetMember(ctx, vacationID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("invite", vacationID)
		}
		return fmt.Errorf("get member: %w", err)
	}
	if m.Status != domain.MemberStatusInvited {
		return apperrors.Conflict("invite already accepted")
	}

	if err := s.vacations.UpdateMemberStatus(ctx, vacationID, userID, domain.MemberStatusAccepted); err != nil {
		return fmt.Errorf("update member status: %w", err)
	}

	v, err := s.vacations.GetByID(ctx, vacationID)
	if err == nil {
		if err := s.notifications.Notify(ctx, v.OwnerID, domain.NotificationMemberAccepted, userID, vacationID,
			fmt.Sprintf("Your invite to %q was accepted", v.Title)); err != nil {
			s.logger.ErrorContext(ctx, "failed to create accept notification",
				slog.String("vacation_id", vacationID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// RemoveMember removes a member from the vacation. The owner may remove
// anyone but themselves; members may remove only themselves (leave).
func (s *VacationService) RemoveMember(ctx context.Context, callerID, vacationID, memberID string) error {
	v, err := s.vacations.GetByID(ctx, vacationID)
	if err != nil {
		return fmt.Errorf("get vacation: %w", err)
	}

	if memberID == v.OwnerID {
		return apperrors.InvalidInput("owner cannot be removed")
	}
	if callerID != v.OwnerID && callerID != memberID {
		return apperrors.Forbidden("forbidden")
	}

	if _, err := s.vacations.GetMember(ctx, vacationID, memberID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("member", memberID)
		}
		return fmt.Errorf("get member: %w", err)
	}

	if err := s.vacations.RemoveMember(ctx, vacationID, memberID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	return nil
}

// Members lists the membership rows of a vacation, visible to members only.
func (s *VacationService) Members(ctx context.Context, userID, vacationID string) ([]domain.VacationMember, error) {
	if _, err := s.requireMember(ctx, vacationID, userID); err != nil {
		return nil, err
	}

	members, err := s.vacations.ListMembers(ctx, vacationID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

// requireMember checks that the user has an accepted membership. Non-members
// and pending invitees get not found so the vacation is not disclosed.
func (s *VacationService) requireMember(ctx context.Context, vacationID, userID string) (*domain.VacationMember, error) {
	m, err := s.vacations.GetMember(ctx, vacationID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("vacation", vacationID)
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m.Status != domain.MemberStatusAccepted {
		return nil, apperrors.NotFound("vacation", vacationID)
	}

	return m, nil
}

// requireOwner checks that the user owns the vacation.
func (s *VacationService) requireOwner(ctx context.Context, userID, vacationID string) (*domain.Vacation, error) {
	v, err := s.vacations.GetByID(ctx, vacationID)
	if err != nil {
		return nil, fmt.Errorf("get vacation: %w", err)
	}
	if v.OwnerID != userID {
		return nil, apperrors.Forbidden("forbidden")
	}

	return v, nil
}
