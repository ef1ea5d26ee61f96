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

const userColumns = `id, name, usertag, email, password_hash, role, bio, avatar_url, banner_url, location, website, visibility, experience_points, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, usertag, email, password_hash, role, bio, avatar_url, banner_url, location, website, visibility, experience_points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Usertag,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.Bio,
		u.AvatarURL,
		u.BannerURL,
		u.Location,
		u.Website,
		u.Visibility,
		u.Experience,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintIn(err, "users_usertag") {
				return apperrors.AlreadyExists("user", "usertag", u.Usertag)
			}
			// Duplicate email carries the product's fixed message.
			return apperrors.Conflict("Пользователь с таким email уже существует")
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// GetByUsertag retrieves a user by usertag.
func (r *UserRepository) GetByUsertag(ctx context.Context, usertag string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE usertag = $1`
	return r.scanUser(ctx, query, usertag)
}

// Update modifies the user's profile fields.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, bio = $2, avatar_url = $3, banner_url = $4, location = $5,
		    website = $6, visibility = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.db.Exec(ctx, query,
		u.Name,
		u.Bio,
		u.AvatarURL,
		u.BannerURL,
		u.Location,
		u.Website,
		u.Visibility,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// UpdateRole changes the user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id, role string) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, role, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// AddExperience increments the user's experience points.
func (r *UserRepository) AddExperience(ctx context.Context, id string, points int) error {
	query := `UPDATE users SET experience_points = experience_points + $1 WHERE id = $2`

	ct, err := r.db.Exec(ctx, query, points, id)
	if err != nil {
		return fmt.Errorf("add experience: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// Delete removes the user. Sessions, posts and memberships cascade via FK.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// List returns a page of users ordered by creation time, plus the total count.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Usertag,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Bio,
		&u.AvatarURL,
		&u.BannerURL,
		&u.Location,
		&u.Website,
		&u.Visibility,
		&u.Experience,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Usertag,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.Bio,
			&u.AvatarURL,
			&u.BannerURL,
			&u.Location,
			&u.Website,
			&u.Visibility,
			&u.Experience,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}

	return users, nil
}
