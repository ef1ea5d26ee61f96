package postgres

import (
	"context"
	"fmt"

	"github.com/wayfarelab/wayfare/internal/domain"
)

// StatsRepository implements repository.StatsRepository using PostgreSQL.
type StatsRepository struct {
	db DB
}

// NewStatsRepository creates a PostgreSQL-backed stats repository.
func NewStatsRepository(db DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Snapshot returns aggregate counts for the admin dashboard.
func (r *StatsRepository) Snapshot(ctx context.Context) (*domain.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM vacations),
			(SELECT COUNT(*) FROM posts),
			(SELECT COUNT(*) FROM memories),
			(SELECT COUNT(*) FROM sessions WHERE expires_at > NOW())`

	var s domain.Stats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.Users,
		&s.Vacations,
		&s.Posts,
		&s.Memories,
		&s.Sessions,
	)
	if err != nil {
		return nil, fmt.Errorf("scan stats: %w", err)
	}

	return &s, nil
}
