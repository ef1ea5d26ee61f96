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
	"github.com/wayfarelab/wayfare/internal/storage"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

// MemoryService manages vacation photos. Bytes go to the storage backend;
// only URLs hit the database.
type MemoryService struct {
	memories  repository.MemoryRepository
	users     repository.UserRepository
	vacations *VacationService
	store     storage.Store
	producer  *event.Producer
	logger    *slog.Logger
}

// NewMemoryService creates a new memory service.
func NewMemoryService(
	memories repository.MemoryRepository,
	users repository.UserRepository,
	vacations *VacationService,
	store storage.Store,
	producer *event.Producer,
	logger *slog.Logger,
) *MemoryService {
	return &MemoryService{
		memories:  memories,
		users:     users,
		vacations: vacations,
		store:     store,
		producer:  producer,
		logger:    logger,
	}
}

// UploadMemoryInput holds the parameters for uploading a photo.
type UploadMemoryInput struct {
	ContentType string
	Data        []byte
	Caption     string
	TakenOn     *time.Time
}

// Upload stores a photo on a vacation and awards experience points. Only
// accepted members may upload.
func (s *MemoryService) Upload(ctx context.Context, userID, vacationID string, input UploadMemoryInput) (*domain.Memory, error) {
	if !storage.AllowedContentType(input.ContentType) {
		return nil, apperrors.InvalidInput("unsupported image type")
	}
	if len(input.Data) == 0 {
		return nil, apperrors.InvalidInput("empty upload")
	}

	if _, err := s.vacations.requireMember(ctx, vacationID, userID); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("memories/%s/%s%s", vacationID, id, storage.ExtensionFor(input.ContentType))
	url, err := s.store.Save(ctx, key, input.ContentType, input.Data)
	if err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	m := &domain.Memory{
		ID:         id,
		VacationID: vacationID,
		UploadedBy: userID,
		URL:        url,
		Caption:    input.Caption,
		TakenOn:    input.TakenOn,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.memories.Create(ctx, m); err != nil {
		// Best-effort cleanup of the orphaned blob.
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.WarnContext(ctx, "failed to clean up orphaned blob",
				slog.String("key", key),
				slog.String("error", derr.Error()),
			)
		}
		return nil, fmt.Errorf("create memory: %w", err)
	}

	if err := s.users.AddExperience(ctx, userID, domain.XPMemoryUploaded); err != nil {
		s.logger.ErrorContext(ctx, "failed to award experience",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishMemoryUploaded(ctx, m); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish memory uploaded event",
			slog.String("memory_id", m.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "memory uploaded",
		slog.String("memory_id", m.ID),
		slog.String("vacation_id", vacationID),
		slog.String("user_id", userID),
	)

	return m, nil
}

// List returns the vacation's photos, visible to accepted members only.
func (s *MemoryService) List(ctx context.Context, userID, vacationID string) ([]domain.Memory, error) {
	if _, err := s.vacations.requireMember(ctx, vacationID, userID); err != nil {
		return nil, err
	}

	memories, err := s.memories.ListByVacation(ctx, vacationID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	return memories, nil
}

// Delete removes a photo. The uploader or the vacation owner may delete.
func (s *MemoryService) Delete(ctx context.Context, userID, memoryID string) error {
	m, err := s.memories.GetByID(ctx, memoryID)
	if err != nil {
		return fmt.Errorf("get memory: %w", err)
	}

	if _, err := s.vacations.requireMember(ctx, m.VacationID, userID); err != nil {
		return err
	}

	if m.UploadedBy != userID {
		v, err := s.vacations.vacations.GetByID(ctx, m.VacationID)
		if err != nil {
			return fmt.Errorf("get vacation: %w", err)
		}
		if v.OwnerID != userID {
			return apperrors.Forbidden("forbidden")
		}
	}

	if err := s.memories.Delete(ctx, memoryID); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}

	return nil
}
