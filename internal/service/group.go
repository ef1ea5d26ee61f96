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

// GroupService manages interest groups.
type GroupService struct {
	groups repository.GroupRepository
	logger *slog.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(groups repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{
		groups: groups,
		logger: logger,
	}
}

// CreateGroupInput holds the parameters for creating a group.
type CreateGroupInput struct {
	Name        string
	Description string
}

// Create makes a new group owned by the user, who joins as the first member.
func (s *GroupService) Create(ctx context.Context, ownerID string, input CreateGroupInput) (*domain.Group, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	g := &domain.Group{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	return g, nil
}

// Get returns a group by ID.
func (s *GroupService) Get(ctx context.Context, groupID string) (*domain.Group, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}

	return g, nil
}

// List returns the groups the user belongs to.
func (s *GroupService) List(ctx context.Context, userID string) ([]domain.Group, error) {
	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	return groups, nil
}

// Join adds the user to the group.
func (s *GroupService) Join(ctx context.Context, userID, groupID string) error {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return fmt.Errorf("get group: %w", err)
	}

	if err := s.groups.AddMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

// Leave removes the user from the group. The owner cannot leave; they must
// delete the group instead.
func (s *GroupService) Leave(ctx context.Context, userID, groupID string) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}
	if g.OwnerID == userID {
		return apperrors.InvalidInput("owner cannot leave the group")
	}

	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return apperrors.NotFound("membership", groupID)
	}

	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	return nil
}

// Delete removes the group. Only the owner may delete.
func (s *GroupService) Delete(ctx context.Context, userID, groupID string) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}
	if g.OwnerID != userID {
		return apperrors.Forbidden("forbidden")
	}

	if err := s.groups.Delete(ctx, groupID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	s.logger.InfoContext(ctx, "group deleted",
		slog.String("group_id", groupID),
		slog.String("user_id", userID),
	)

	return nil
}
