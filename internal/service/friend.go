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
)

// FriendService manages friend requests and friendships.
type FriendService struct {
	friendships   repository.FriendshipRepository
	users         repository.UserRepository
	notifications *NotificationService
	producer      *event.Producer
	logger        *slog.Logger
}

// NewFriendService creates a new friend service.
func NewFriendService(
	friendships repository.FriendshipRepository,
	users repository.UserRepository,
	notifications *NotificationService,
	producer *event.Producer,
	logger *slog.Logger,
) *FriendService {
	return &FriendService{
		friendships:   friendships,
		users:         users,
		notifications: notifications,
		producer:      producer,
		logger:        logger,
	}
}

// Request sends a friend request to the user with the given usertag.
func (s *FriendService) Request(ctx context.Context, requesterID, usertag string) (*domain.Friendship, error) {
	addressee, err := s.users.GetByUsertag(ctx, usertag)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", usertag)
		}
		return nil, fmt.Errorf("get addressee: %w", err)
	}
	if addressee.ID == requesterID {
		return nil, apperrors.InvalidInput("cannot friend yourself")
	}

	now := time.Now().UTC()
	f := &domain.Friendship{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		AddresseeID: addressee.ID,
		Status:      domain.FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.friendships.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create friendship: %w", err)
	}

	if err := s.notifications.Notify(ctx, addressee.ID, domain.NotificationFriendRequested, requesterID, f.ID,
		"You have a new friend request"); err != nil {
		s.logger.ErrorContext(ctx, "failed to create friend request notification",
			slog.String("friendship_id", f.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishFriendRequested(ctx, f); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish friend requested event",
			slog.String("friendship_id", f.ID),
			slog.String("error", err.Error()),
		)
	}

	return f, nil
}

// Accept accepts a pending request. Only the addressee may accept; both
// sides are awarded experience points.
func (s *FriendService) Accept(ctx context.Context, userID, friendshipID string) error {
	f, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("friend request", friendshipID)
		}
		return fmt.Errorf("get friendship: %w", err)
	}
	if f.AddresseeID != userID {
		return apperrors.Forbidden("forbidden")
	}
	if f.Status != domain.FriendshipPending {
		return apperrors.Conflict("friend request already accepted")
	}

	if err := s.friendships.Accept(ctx, friendshipID); err != nil {
		return fmt.Errorf("accept friendship: %w", err)
	}

	for _, id := range []string{f.RequesterID, f.AddresseeID} {
		if err := s.users.AddExperience(ctx, id, domain.XPFriendshipAccepted); err != nil {
			s.logger.ErrorContext(ctx, "failed to award experience",
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.notifications.Notify(ctx, f.RequesterID, domain.NotificationFriendAccepted, userID, f.ID,
		"Your friend request was accepted"); err != nil {
		s.logger.ErrorContext(ctx, "failed to create friend accepted notification",
			slog.String("friendship_id", f.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishFriendAccepted(ctx, f); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish friend accepted event",
			slog.String("friendship_id", f.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Decline removes a pending request. Only the addressee may decline.
func (s *FriendService) Decline(ctx context.Context, userID, friendshipID string) error {
	f, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("friend request", friendshipID)
		}
		return fmt.Errorf("get friendship: %w", err)
	}
	if f.AddresseeID != userID {
		return apperrors.Forbidden("forbidden")
	}
	if f.Status != domain.FriendshipPending {
		return apperrors.Conflict("friend request already accepted")
	}

	if err := s.friendships.Delete(ctx, friendshipID); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}

	return nil
}

// Unfriend removes an accepted friendship between the caller and the other
// user.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherID string) error {
	f, err := s.friendships.GetBetween(ctx, userID, otherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("friendship", otherID)
		}
		return fmt.Errorf("get friendship: %w", err)
	}
	if f.Status != domain.FriendshipAccepted {
		return apperrors.NotFound("friendship", otherID)
	}

	if err := s.friendships.Delete(ctx, f.ID); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}

	s.logger.InfoContext(ctx, "friendship removed",
		slog.String("user_id", userID),
		slog.String("friend_id", otherID),
	)

	return nil
}

// Friends lists the user's accepted friends as public profiles.
func (s *FriendService) Friends(ctx context.Context, userID string) ([]domain.PublicProfile, error) {
	users, err := s.friendships.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	profiles := make([]domain.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}

	return profiles, nil
}

// Pending lists incoming pending requests for the user.
func (s *FriendService) Pending(ctx context.Context, userID string) ([]domain.Friendship, error) {
	pending, err := s.friendships.ListPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	return pending, nil
}
