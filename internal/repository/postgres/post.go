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

const postColumns = `id, author_id, content, image_url, vacation_id, created_at, updated_at`

// feedAuthors selects the user plus their accepted friends in either
// direction of the friendship row.
const feedAuthors = `
	SELECT $1::uuid AS author_id
	UNION
	SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
	FROM friendships
	WHERE (requester_id = $1 OR addressee_id = $1) AND status = 'ACCEPTED'`

// PostRepository implements repository.PostRepository using PostgreSQL.
type PostRepository struct {
	db DB
}

// NewPostRepository creates a PostgreSQL-backed post repository.
func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	query := `
		INSERT INTO posts (id, author_id, content, image_url, vacation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.AuthorID,
		p.Content,
		p.ImageURL,
		p.VacationID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetByID retrieves a post by ID.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var p domain.Post
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.AuthorID,
		&p.Content,
		&p.ImageURL,
		&p.VacationID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	return &p, nil
}

// ListFeed returns a page of posts by the user and their accepted friends,
// newest first, plus the total count.
func (r *PostRepository) ListFeed(ctx context.Context, userID string, limit, offset int) ([]domain.Post, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE author_id IN (`+feedAuthors+`)`,
		userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count feed posts: %w", err)
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id IN (` + feedAuthors + `)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list feed posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.ID,
			&p.AuthorID,
			&p.Content,
			&p.ImageURL,
			&p.VacationID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate post rows: %w", err)
	}

	if posts == nil {
		posts = []domain.Post{}
	}

	return posts, total, nil
}

// Update modifies the post content.
func (r *PostRepository) Update(ctx context.Context, p *domain.Post) error {
	p.UpdatedAt = time.Now().UTC()

	query := `UPDATE posts SET content = $1, image_url = $2, updated_at = $3 WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, p.Content, p.ImageURL, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("post", p.ID)
	}

	return nil
}

// Delete removes the post.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("post", id)
	}

	return nil
}
