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

const activityColumns = `id, vacation_id, created_by, title, description, location, scheduled_at, created_at, updated_at`

// ActivityRepository implements repository.ActivityRepository using PostgreSQL.
type ActivityRepository struct {
	db DB
}

// NewActivityRepository creates a PostgreSQL-backed activity repository.
func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity.
func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	query := `
		INSERT INTO activities (id, vacation_id, created_by, title, description, location, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.VacationID,
		a.CreatedBy,
		a.Title,
		a.Description,
		a.Location,
		a.ScheduledAt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}

// GetByID retrieves an activity by ID.
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	var a domain.Activity
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.VacationID,
		&a.CreatedBy,
		&a.Title,
		&a.Description,
		&a.Location,
		&a.ScheduledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan activity: %w", err)
	}

	return &a, nil
}

// ListByVacation returns all activities of a vacation ordered by schedule.
func (r *ActivityRepository) ListByVacation(ctx context.Context, vacationID string) ([]domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE vacation_id = $1 ORDER BY scheduled_at ASC NULLS LAST, created_at ASC`

	rows, err := r.db.Query(ctx, query, vacationID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(
			&a.ID,
			&a.VacationID,
			&a.CreatedBy,
			&a.Title,
			&a.Description,
			&a.Location,
			&a.ScheduledAt,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}

	if activities == nil {
		activities = []domain.Activity{}
	}

	return activities, nil
}

// Update modifies the activity.
func (r *ActivityRepository) Update(ctx context.Context, a *domain.Activity) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE activities
		SET title = $1, description = $2, location = $3, scheduled_at = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.db.Exec(ctx, query,
		a.Title,
		a.Description,
		a.Location,
		a.ScheduledAt,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("activity", a.ID)
	}

	return nil
}

// Delete removes the activity.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("activity", id)
	}

	return nil
}
