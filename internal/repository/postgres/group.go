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

// GroupRepository implements repository.GroupRepository using PostgreSQL.
type GroupRepository struct {
	db DB
}

// NewGroupRepository creates a PostgreSQL-backed group repository.
func NewGroupRepository(db DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group and the owner's membership row in one transaction.
func (r *GroupRepository) Create(ctx context.Context, g *domain.Group) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, owner_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		g.ID, g.OwnerID, g.Name, g.Description, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, created_at)
		VALUES ($1, $2, $3)`,
		g.ID, g.OwnerID, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT id, owner_id, name, description, created_at FROM groups WHERE id = $1`

	var g domain.Group
	err := r.db.QueryRow(ctx, query, id).Scan(
		&g.ID,
		&g.OwnerID,
		&g.Name,
		&g.Description,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}

	return &g, nil
}

// ListByUser returns the groups the user belongs to.
func (r *GroupRepository) ListByUser(ctx context.Context, userID string) ([]domain.Group, error) {
	query := `
		SELECT g.id, g.owner_id, g.name, g.description, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group rows: %w", err)
	}

	if groups == nil {
		groups = []domain.Group{}
	}

	return groups, nil
}

// Delete removes the group. Members cascade.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("group", id)
	}

	return nil
}

// AddMember inserts a membership row.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	query := `INSERT INTO group_members (group_id, user_id, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, groupID, userID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("user is already a member of this group")
		}
		return fmt.Errorf("insert group member: %w", err)
	}

	return nil
}

// RemoveMember deletes a membership row.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("group member", userID)
	}

	return nil
}

// IsMember reports whether the user belongs to the group.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}

	return exists, nil
}
