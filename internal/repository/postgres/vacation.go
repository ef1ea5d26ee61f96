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

const vacationColumns = `id, owner_id, title, description, location, starts_on, ends_on, cover_url, created_at, updated_at`

// VacationRepository implements repository.VacationRepository using PostgreSQL.
type VacationRepository struct {
	db DB
}

// NewVacationRepository creates a PostgreSQL-backed vacation repository.
func NewVacationRepository(db DB) *VacationRepository {
	return &VacationRepository{db: db}
}

// Create inserts a vacation and the owner's ACCEPTED membership row in one
// transaction.
func (r *VacationRepository) Create(ctx context.Context, v *domain.Vacation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO vacations (id, owner_id, title, description, location, starts_on, ends_on, cover_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID,
		v.OwnerID,
		v.Title,
		v.Description,
		v.Location,
		v.StartsOn,
		v.EndsOn,
		v.CoverURL,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vacation: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO vacation_members (vacation_id, user_id, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID,
		v.OwnerID,
		domain.MemberRoleOwner,
		domain.MemberStatusAccepted,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a vacation by ID.
func (r *VacationRepository) GetByID(ctx context.Context, id string) (*domain.Vacation, error) {
	query := `SELECT ` + vacationColumns + ` FROM vacations WHERE id = $1`

	var v domain.Vacation
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.OwnerID,
		&v.Title,
		&v.Description,
		&v.Location,
		&v.StartsOn,
		&v.EndsOn,
		&v.CoverURL,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan vacation: %w", err)
	}

	return &v, nil
}

// ListByUser returns a page of vacations where the user is an accepted
// member, newest first, plus the total count.
func (r *VacationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Vacation, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM vacations v
		JOIN vacation_members m ON m.vacation_id = v.id
		WHERE m.user_id = $1 AND m.status = $2`,
		userID, domain.MemberStatusAccepted,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count vacations: %w", err)
	}

	query := `
		SELECT v.id, v.owner_id, v.title, v.description, v.location, v.starts_on, v.ends_on, v.cover_url, v.created_at, v.updated_at
		FROM vacations v
		JOIN vacation_members m ON m.vacation_id = v.id
		WHERE m.user_id = $1 AND m.status = $2
		ORDER BY v.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, userID, domain.MemberStatusAccepted, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vacations: %w", err)
	}
	defer rows.Close()

	var vacations []domain.Vacation
	for rows.Next() {
		var v domain.Vacation
		if err := rows.Scan(
			&v.ID,
			&v.OwnerID,
			&v.Title,
			&v.Description,
			&v.Location,
			&v.StartsOn,
			&v.EndsOn,
			&v.CoverURL,
			&v.CreatedAt,
			&v.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan vacation row: %w", err)
		}
		vacations = append(vacations, v)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate vacation rows: %w", err)
	}

	if vacations == nil {
		vacations = []domain.Vacation{}
	}

	return vacations, total, nil
}

// Update modifies the vacation.
func (r *VacationRepository) Update(ctx context.Context, v *domain.Vacation) error {
	v.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE vacations
		SET title = $1, description = $2, location = $3, starts_on = $4, ends_on = $5, cover_url = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.db.Exec(ctx, query,
		v.Title,
		v.Description,
		v.Location,
		v.StartsOn,
		v.EndsOn,
		v.CoverURL,
		v.UpdatedAt,
		v.ID,
	)
	if err != nil {
		return fmt.Errorf("update vacation: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("vacation", v.ID)
	}

	return nil
}

// Delete removes the vacation. Members, activities and memories cascade.
func (r *VacationRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM vacations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vacation: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("vacation", id)
	}

	return nil
}

// AddMember inserts a membership row.
func (r *VacationRepository) AddMember(ctx context.Context, m *domain.VacationMember) error {
	query := `
		INSERT INTO vacation_members (vacation_id, user_id, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, m.VacationID, m.UserID, m.Role, m.Status, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("user is already a member of this vacation")
		}
		return fmt.Errorf("insert vacation member: %w", err)
	}

	return nil
}

// GetMember retrieves a membership row.
func (r *VacationRepository) GetMember(ctx context.Context, vacationID, userID string) (*domain.VacationMember, error) {
	query := `
		SELECT vacation_id, user_id, role, status, created_at
		FROM vacation_members
		WHERE vacation_id = $1 AND user_id = $2`

	var m domain.VacationMember
	err := r.db.QueryRow(ctx, query, vacationID, userID).Scan(
		&m.VacationID,
		&m.UserID,
		&m.Role,
		&m.Status,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan vacation member: %w", err)
	}

	return &m, nil
}

// UpdateMemberStatus changes a member's invite status.
func (r *VacationRepository) UpdateMemberStatus(ctx context.Context, vacationID, userID, status string) error {
	query := `UPDATE vacation_members SET status = $1 WHERE vacation_id = $2 AND user_id = $3`

	ct, err := r.db.Exec(ctx, query, status, vacationID, userID)
	if err != nil {
		return fmt.Errorf("update member status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("vacation member", userID)
	}

	return nil
}

// RemoveMember deletes a membership row.
func (r *VacationRepository) RemoveMember(ctx context.Context, vacationID, userID string) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM vacation_members WHERE vacation_id = $1 AND user_id = $2`,
		vacationID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove vacation member: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("vacation member", userID)
	}

	return nil
}

// ListMembers returns all membership rows of a vacation.
func (r *VacationRepository) ListMembers(ctx context.Context, vacationID string) ([]domain.VacationMember, error) {
	query := `
		SELECT vacation_id, user_id, role, status, created_at
		FROM vacation_members
		WHERE vacation_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, vacationID)
	if err != nil {
		return nil, fmt.Errorf("list vacation members: %w", err)
	}
	defer rows.Close()

	var members []domain.VacationMember
	for rows.Next() {
		var m domain.VacationMember
		if err := rows.Scan(&m.VacationID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}

	if members == nil {
		members = []domain.VacationMember{}
	}

	return members, nil
}
