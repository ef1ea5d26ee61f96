package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarelab/wayfare/internal/cache"
	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/repository"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/pagination"
)

// NotificationService manages in-app notifications. The unread count is
// served through a short-lived Redis cache because the badge is polled far
// more often than it changes.
type NotificationService struct {
	notifications repository.NotificationRepository
	unread        *cache.UnreadCache
	logger        *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	notifications repository.NotificationRepository,
	unread *cache.UnreadCache,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		unread:        unread,
		logger:        logger,
	}
}

// Notify records a notification for a user. Other services call this on
// friend requests, invites and acceptances. Failures are returned to the
// caller, which typically logs and moves on rather than failing the
// triggering request.
func (s *NotificationService) Notify(ctx context.Context, userID, notifType, actorID, subjectID, body string) error {
	n := &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      notifType,
		ActorID:   actorID,
		SubjectID: subjectID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	s.unread.Invalidate(ctx, userID)

	return nil
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, page pagination.Params) ([]domain.Notification, int, error) {
	items, total, err := s.notifications.ListByUser(ctx, userID, page.PerPage, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	return items, total, nil
}

// UnreadCount returns the user's unread notification count, read through the
// cache.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if count, ok := s.unread.Get(ctx, userID); ok {
		return count, nil
	}

	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}

	s.unread.Set(ctx, userID, count)

	return count, nil
}

// MarkRead marks one of the user's notifications as read. Notifications of
// other users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("notification", notificationID)
		}
		return fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != userID {
		return apperrors.NotFound("notification", notificationID)
	}

	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	s.unread.Invalidate(ctx, userID)

	return nil
}

// Delete removes one of the user's notifications. Notifications of other
// users are reported as not found.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("notification", notificationID)
		}
		return fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != userID {
		return apperrors.NotFound("notification", notificationID)
	}

	if err := s.notifications.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	// Deleting an unread notification changes the badge count.
	s.unread.Invalidate(ctx, userID)

	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}

	s.unread.Invalidate(ctx, userID)

	return nil
}
