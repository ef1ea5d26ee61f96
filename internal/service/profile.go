package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wayfarelab/wayfare/internal/domain"
	"github.com/wayfarelab/wayfare/internal/repository"
	"github.com/wayfarelab/wayfare/internal/storage"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

// ProfileService manages the user's own profile and the public profile view.
type ProfileService struct {
	users       repository.UserRepository
	friendships repository.FriendshipRepository
	store       storage.Store
	logger      *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(
	users repository.UserRepository,
	friendships repository.FriendshipRepository,
	store storage.Store,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:       users,
		friendships: friendships,
		store:       store,
		logger:      logger,
	}
}

// GetProfile returns the user's own full profile record.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput carries partial profile updates. Nil fields are left
// unchanged.
type UpdateProfileInput struct {
	Name       *string
	Bio        *string
	Location   *string
	Website    *string
	Visibility *string
}

// UpdateProfile applies the non-nil fields of input to the user's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name cannot be empty")
		}
		user.Name = *input.Name
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Location != nil {
		user.Location = *input.Location
	}
	if input.Website != nil {
		user.Website = *input.Website
	}
	if input.Visibility != nil {
		if !domain.IsValidVisibility(*input.Visibility) {
			return nil, apperrors.InvalidInput("invalid visibility")
		}
		user.Visibility = *input.Visibility
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// GetPublicProfile returns another user's public profile, honoring their
// visibility setting. A hidden profile is reported as not found so its
// existence is not disclosed.
func (s *ProfileService) GetPublicProfile(ctx context.Context, viewerID, usertag string) (*domain.PublicProfile, error) {
	user, err := s.users.GetByUsertag(ctx, usertag)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.ID != viewerID {
		visible, err := s.visibleTo(ctx, viewerID, user)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, apperrors.NotFound("user", usertag)
		}
	}

	profile := user.Public()
	return &profile, nil
}

func (s *ProfileService) visibleTo(ctx context.Context, viewerID string, user *domain.User) (bool, error) {
	switch user.Visibility {
	case domain.VisibilityPublic:
		return true, nil
	case domain.VisibilityPrivate:
		return false, nil
	}

	f, err := s.friendships.GetBetween(ctx, viewerID, user.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check friendship: %w", err)
	}

	return f.Status == domain.FriendshipAccepted, nil
}

// UploadAvatar stores a new avatar image and records its URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, contentType string, data []byte) (*domain.User, error) {
	return s.uploadImage(ctx, userID, "avatars", contentType, data, func(u *domain.User, url string) {
		u.AvatarURL = url
	})
}

// UploadBanner stores a new profile banner image and records its URL.
func (s *ProfileService) UploadBanner(ctx context.Context, userID, contentType string, data []byte) (*domain.User, error) {
	return s.uploadImage(ctx, userID, "banners", contentType, data, func(u *domain.User, url string) {
		u.BannerURL = url
	})
}

func (s *ProfileService) uploadImage(ctx context.Context, userID, prefix, contentType string, data []byte, set func(*domain.User, string)) (*domain.User, error) {
	if !storage.AllowedContentType(contentType) {
		return nil, apperrors.InvalidInput("unsupported image type")
	}
	if len(data) == 0 {
		return nil, apperrors.InvalidInput("empty upload")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s%s", prefix, userID, uuid.New().String(), storage.ExtensionFor(contentType))
	url, err := s.store.Save(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	set(user, url)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "profile image updated",
		slog.String("user_id", userID),
		slog.String("key", key),
	)

	return user, nil
}
