package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wayfarelab/wayfare/internal/domain"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

const memoryColumns = `id, vacation_id, uploaded_by, url, caption, taken_on, created_at`

// MemoryRepository implements repository.MemoryRepository using PostgreSQL.
type MemoryRepository struct {
	db DB
}

// NewMemoryRepository creates a PostgreSQL-backed memory repository.
func NewMemoryRepository(db DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Create inserts a new memory row.
func (r *MemoryRepository) Create(ctx context.Context, m *domain.Memory) error {
	query := `
		INSERT INTO memories (id, vacation_id, uploaded_by, url, caption, taken_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		m.ID,
		m.VacationID,
		m.UploadedBy,
		m.URL,
		m.Caption,
		m.TakenOn,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	return nil
}

// GetByID retrieves a memory by ID.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Memory, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE id = $1`

	var m domain.Memory
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.VacationID,
		&m.UploadedBy,
		&m.URL,
		&m.Caption,
		&m.TakenOn,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan memory: %w", err)
	}

	return &m, nil
}

// ListByVacation returns all memories of a vacation, newest first.
func (r *MemoryRepository) ListByVacation(ctx context.Context, vacationID string) ([]domain.Memory, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE vacation_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, vacationID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var memories []domain.Memory
	for rows.Next() {
		var m domain.Memory
		if err := rows.Scan(
			&m.ID,
			&m.VacationID,
			&m.UploadedBy,
			&m.URL,
			&m.Caption,
			&m.TakenOn,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		memories = append(memories, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}

	if memories == nil {
		memories = []domain.Memory{}
	}

	return memories, nil
}

// Delete removes a memory row.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("memory", id)
	}

	return nil
}
