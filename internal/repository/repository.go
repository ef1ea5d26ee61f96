package repository

import (
	"context"
	"time"

	"github.com/wayfarelab/wayfare/internal/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts a new user. Returns a conflict error when the email or
	// usertag is already taken.
	Create(ctx context.Context, u *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsertag retrieves a user by usertag.
	GetByUsertag(ctx context.Context, usertag string) (*domain.User, error)

	// Update modifies the user's profile fields.
	Update(ctx context.Context, u *domain.User) error

	// UpdateRole changes the user's role.
	UpdateRole(ctx context.Context, id, role string) error

	// AddExperience increments the user's experience points.
	AddExperience(ctx context.Context, id string, points int) error

	// Delete removes the user. Dependent rows cascade.
	Delete(ctx context.Context, id string) error

	// List returns a page of users ordered by creation time, plus the total
	// count.
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)
}

// SessionRepository defines persistence operations for refresh sessions.
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *domain.Session) error

	// GetByTokenHash retrieves a session by refresh token hash, expired or
	// not. Expiry handling is the service's concern.
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)

	// ExtendExpiry pushes the session's expiry forward. The update is
	// conditional on the new expiry being later than the stored one, so
	// concurrent renewals are idempotent.
	ExtendExpiry(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes a single session.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes all sessions of a user.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired removes all expired sessions and returns how many rows
	// were deleted.
	DeleteExpired(ctx context.Context) (int64, error)

	// ListByUser returns the user's non-expired sessions, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
}

// VacationRepository defines persistence operations for vacations and their
// members.
type VacationRepository interface {
	// Create inserts a vacation together with the owner's membership row in
	// one transaction.
	Create(ctx context.Context, v *domain.Vacation) error

	// GetByID retrieves a vacation by ID.
	GetByID(ctx context.Context, id string) (*domain.Vacation, error)

	// ListByUser returns a page of vacations where the user is an accepted
	// member, newest first, plus the total count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Vacation, int, error)

	// Update modifies the vacation.
	Update(ctx context.Context, v *domain.Vacation) error

	// Delete removes the vacation. Members, activities and memories cascade.
	Delete(ctx context.Context, id string) error

	// AddMember inserts a membership row. Returns a conflict error when the
	// user already has one.
	AddMember(ctx context.Context, m *domain.VacationMember) error

	// GetMember retrieves a membership row.
	GetMember(ctx context.Context, vacationID, userID string) (*domain.VacationMember, error)

	// UpdateMemberStatus changes a member's invite status.
	UpdateMemberStatus(ctx context.Context, vacationID, userID, status string) error

	// RemoveMember deletes a membership row.
	RemoveMember(ctx context.Context, vacationID, userID string) error

	// ListMembers returns all membership rows of a vacation.
	ListMembers(ctx context.Context, vacationID string) ([]domain.VacationMember, error)
}

// ActivityRepository defines persistence operations for itinerary activities.
type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) error
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	ListByVacation(ctx context.Context, vacationID string) ([]domain.Activity, error)
	Update(ctx context.Context, a *domain.Activity) error
	Delete(ctx context.Context, id string) error
}

// MemoryRepository defines persistence operations for vacation photos.
type MemoryRepository interface {
	Create(ctx context.Context, m *domain.Memory) error
	GetByID(ctx context.Context, id string) (*domain.Memory, error)
	ListByVacation(ctx context.Context, vacationID string) ([]domain.Memory, error)
	Delete(ctx context.Context, id string) error
}

// PostRepository defines persistence operations for feed posts.
type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)

	// ListFeed returns a page of posts authored by the user or their
	// accepted friends, newest first, plus the total count.
	ListFeed(ctx context.Context, userID string, limit, offset int) ([]domain.Post, int, error)

	Update(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, id string) error
}

// FriendshipRepository defines persistence operations for friendships.
type FriendshipRepository interface {
	// Create inserts a pending request. Returns a conflict error when a
	// friendship between the pair already exists in either direction.
	Create(ctx context.Context, f *domain.Friendship) error

	GetByID(ctx context.Context, id string) (*domain.Friendship, error)

	// GetBetween retrieves the friendship between two users regardless of
	// direction.
	GetBetween(ctx context.Context, userA, userB string) (*domain.Friendship, error)

	// Accept moves a pending request to ACCEPTED.
	Accept(ctx context.Context, id string) error

	Delete(ctx context.Context, id string) error

	// ListFriends returns the accepted friends of a user.
	ListFriends(ctx context.Context, userID string) ([]domain.User, error)

	// ListPending returns incoming pending requests for a user, newest first.
	ListPending(ctx context.Context, userID string) ([]domain.Friendship, error)
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)

	// ListByUser returns a page of the user's notifications, newest first,
	// plus the total count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error)

	// CountUnread returns the number of unread notifications.
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead marks a single notification as read.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead marks all of the user's notifications as read.
	MarkAllRead(ctx context.Context, userID string) error

	Delete(ctx context.Context, id string) error
}

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	// Create inserts a group together with the owner's membership row in one
	// transaction.
	Create(ctx context.Context, g *domain.Group) error

	GetByID(ctx context.Context, id string) (*domain.Group, error)

	// ListByUser returns the groups the user belongs to.
	ListByUser(ctx context.Context, userID string) ([]domain.Group, error)

	Delete(ctx context.Context, id string) error

	// AddMember inserts a membership row. Returns a conflict error when the
	// user is already a member.
	AddMember(ctx context.Context, groupID, userID string) error

	RemoveMember(ctx context.Context, groupID, userID string) error

	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// StatsRepository provides aggregate counts for the admin dashboard.
type StatsRepository interface {
	Snapshot(ctx context.Context) (*domain.Stats, error)
}
