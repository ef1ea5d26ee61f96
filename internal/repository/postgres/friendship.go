package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wayfarelab/wayfare/internal/domain"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

// FriendshipRepository implements repository.FriendshipRepository using PostgreSQL.
type FriendshipRepository struct {
	db DB
}

// NewFriendshipRepository creates a PostgreSQL-backed friendship repository.
func NewFriendshipRepository(db DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create inserts a pending request. The unordered-pair unique index rejects
// duplicates in either direction.
func (r *FriendshipRepository) Create(ctx context.Context, f *domain.Friendship) error {
	query := `
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		f.ID,
		f.RequesterID,
		f.AddresseeID,
		f.Status,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("friend request already exists")
		}
		return fmt.Errorf("insert friendship: %w", err)
	}

	return nil
}

// GetByID retrieves a friendship by ID.
func (r *FriendshipRepository) GetByID(ctx context.Context, id string) (*domain.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`
	return r.scanFriendship(ctx, query, id)
}

// GetBetween retrieves the friendship between two users regardless of
// direction.
func (r *FriendshipRepository) GetBetween(ctx context.Context, userA, userB string) (*domain.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)`

	return r.scanFriendship(ctx, query, userA, userB)
}

// Accept moves a pending request to ACCEPTED.
func (r *FriendshipRepository) Accept(ctx context.Context, id string) error {
	query := `UPDATE friendships SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	ct, err := r.db.Exec(ctx, query,
		domain.FriendshipAccepted,
		time.Now().UTC(),
		id,
		domain.FriendshipPending,
	)
	if err != nil {
		return fmt.Errorf("accept friendship: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("friend request", id)
	}

	return nil
}

// Delete removes the friendship row.
func (r *FriendshipRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("friendship", id)
	}

	return nil
}

// ListFriends returns the accepted friends of a user.
func (r *FriendshipRepository) ListFriends(ctx context.Context, userID string) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id IN (
			SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
			FROM friendships
			WHERE (requester_id = $1 OR addressee_id = $1) AND status = $2
		)
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, userID, domain.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListPending returns incoming pending requests for a user, newest first.
func (r *FriendshipRepository) ListPending(ctx context.Context, userID string) ([]domain.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE addressee_id = $1 AND status = $2
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID, domain.FriendshipPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.Friendship
	for rows.Next() {
		var f domain.Friendship
		if err := rows.Scan(
			&f.ID,
			&f.RequesterID,
			&f.AddresseeID,
			&f.Status,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan friendship row: %w", err)
		}
		requests = append(requests, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendship rows: %w", err)
	}

	if requests == nil {
		requests = []domain.Friendship{}
	}

	return requests, nil
}

func (r *FriendshipRepository) scanFriendship(ctx context.Context, query string, args ...any) (*domain.Friendship, error) {
	var f domain.Friendship

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&f.ID,
		&f.RequesterID,
		&f.AddresseeID,
		&f.Status,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan friendship: %w", err)
	}

	return &f, nil
}
