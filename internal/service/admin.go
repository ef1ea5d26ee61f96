package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/repository"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/pagination"
)

// AdminService implements the admin panel operations. All callers have
// already passed the admin guard; the self-targeting checks here are the
// last line of defense against an admin locking themselves out.
type AdminService struct {
	users  repository.UserRepository
	stats  repository.StatsRepository
	logger *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	users repository.UserRepository,
	stats repository.StatsRepository,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:  users,
		stats:  stats,
		logger: logger,
	}
}

// ListUsers returns a page of all users, newest first.
func (s *AdminService) ListUsers(ctx context.Context, page pagination.Params) ([]domain.User, int, error) {
	users, total, err := s.users.List(ctx, page.PerPage, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// UpdateRole changes a user's role. Admins cannot change their own role.
func (s *AdminService) UpdateRole(ctx context.Context, adminID, userID, role string) error {
	if userID == adminID {
		return apperrors.InvalidInput("Нельзя изменить собственную роль")
	}
	if !domain.IsValidRole(role) {
		return apperrors.InvalidInput("invalid role")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.logger.InfoContext(ctx, "user role changed",
		slog.String("admin_id", adminID),
		slog.String("user_id", userID),
		slog.String("role", role),
	)

	return nil
}

// DeleteUser removes a user and all their data. Admins cannot delete their
// own account here.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID string) error {
	if userID == adminID {
		return apperrors.Forbidden("forbidden")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted by admin",
		slog.String("admin_id", adminID),
		slog.String("user_id", userID),
	)

	return nil
}

// Stats returns aggregate counts for the dashboard.
func (s *AdminService) Stats(ctx context.Context) (*domain.Stats, error) {
	snapshot, err := s.stats.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	return snapshot, nil
}
