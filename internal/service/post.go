package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/event"
	"github.com/wayfarelab/wayfare/internal/repository"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
	"github.com/wayfarelab/wayfare/pkg/pagination"
)

const maxPostLength = 5000

// PostService manages feed posts.
type PostService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	vacations *VacationService
	producer  *event.Producer
	logger    *slog.Logger
}

// NewPostService creates a new post service.
func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	vacations *VacationService,
	producer *event.Producer,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:     posts,
		users:     users,
		vacations: vacations,
		producer:  producer,
		logger:    logger,
	}
}

// CreatePostInput holds the parameters for creating a post.
type CreatePostInput struct {
	Content    string
	ImageURL   string
	VacationID *string
}

// Create publishes a post to the author's feed and awards experience points.
// A post may link a vacation the author is an accepted member of.
func (s *PostService) Create(ctx context.Context, authorID string, input CreatePostInput) (*domain.Post, error) {
	if input.Content == "" {
		return nil, apperrors.InvalidInput("content is required")
	}
	if len(input.Content) > maxPostLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content exceeds %d characters", maxPostLength))
	}

	if input.VacationID != nil {
		if _, err := s.vacations.requireMember(ctx, *input.VacationID, authorID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	p := &domain.Post{
		ID:         uuid.New().String(),
		AuthorID:   authorID,
		Content:    input.Content,
		ImageURL:   input.ImageURL,
		VacationID: input.VacationID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := s.users.AddExperience(ctx, authorID, domain.XPPostCreated); err != nil {
		s.logger.ErrorContext(ctx, "failed to award experience",
			slog.String("user_id", authorID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishPostCreated(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish post created event",
			slog.String("post_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	return p, nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, postID string) (*domain.Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return p, nil
}

// Feed returns a page of posts by the user and their accepted friends,
// newest first.
func (s *PostService) Feed(ctx context.Context, userID string, page pagination.Params) ([]domain.Post, int, error) {
	posts, total, err := s.posts.ListFeed(ctx, userID, page.PerPage, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list feed: %w", err)
	}

	return posts, total, nil
}

// Update edits the post's content. Only the author may edit.
func (s *PostService) Update(ctx context.Context, userID, postID, content string) (*domain.Post, error) {
	if content == "" {
		return nil, apperrors.InvalidInput("content is required")
	}
	if len(content) > maxPostLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content exceeds %d characters", maxPostLength))
	}

	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if p.AuthorID != userID {
		return nil, apperrors.Forbidden("forbidden")
	}

	p.Content = content
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return p, nil
}

// Delete removes a post. The author may always delete; moderators and admins
// may delete anyone's post.
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	if p.AuthorID != userID {
		caller, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("get caller: %w", err)
		}
		if caller.Role != domain.RoleModerator && caller.Role != domain.RoleAdmin {
			return apperrors.Forbidden("forbidden")
		}

		s.logger.InfoContext(ctx, "post removed by moderator",
			slog.String("post_id", postID),
			slog.String("moderator_id", userID),
		)
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}
