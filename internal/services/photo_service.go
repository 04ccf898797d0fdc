package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/saeid-a/GymDashBack/internal/logger"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
	"go.uber.org/zap"
)

var photoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".heic": {},
}

type progressPhotoStore interface {
	Create(ctx context.Context, input repository.CreatePhotoInput) (*models.ProgressPhoto, error)
	GetByID(ctx context.Context, photoID int64) (*models.ProgressPhoto, error)
	ListByStudentID(ctx context.Context, studentID int64) ([]models.ProgressPhoto, error)
	Delete(ctx context.Context, photoID int64) error
}

type UploadPhotoInput struct {
	StudentID int64
	Caption   *string
	TakenAt   *time.Time
	File      io.Reader
	Filename  string
}

type PhotoService struct {
	photoRepo progressPhotoStore
	storage   StorageService
	access    studentAccess
	now       func() time.Time
}

func NewPhotoService(photoRepo progressPhotoStore, storage StorageService, roster rosterChecker) *PhotoService {
	return &PhotoService{
		photoRepo: photoRepo,
		storage:   storage,
		access:    studentAccess{roster: roster},
		now:       time.Now,
	}
}

func (s *PhotoService) Upload(
	ctx context.Context,
	actorID int64,
	role string,
	input UploadPhotoInput,
) (*models.ProgressPhoto, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	if input.File == nil {
		return nil, ErrInvalidInput
	}
	if err := s.access.check(ctx, actorID, role, input.StudentID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(input.Filename)))
	if _, ok := photoExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: unsupported photo type %q", ErrInvalidInput, ext)
	}

	takenAt := s.now().UTC()
	if input.TakenAt != nil {
		if input.TakenAt.After(takenAt.Add(time.Minute)) {
			return nil, fmt.Errorf("%w: taken_at is in the future", ErrInvalidInput)
		}
		takenAt = input.TakenAt.UTC()
	}

	filename := fmt.Sprintf("%d-%d%s", input.StudentID, s.now().UnixNano(), ext)
	fileURL, err := s.storage.UploadFile(ctx, input.File, filename, progressPhotoFolder)
	if err != nil {
		return nil, err
	}

	photo, err := s.photoRepo.Create(ctx, repository.CreatePhotoInput{
		StudentID: input.StudentID,
		Caption:   trimOptional(input.Caption),
		TakenAt:   takenAt,
		FileURL:   fileURL,
	})
	if err != nil {
		if cleanupErr := s.storage.DeleteFile(ctx, fileURL); cleanupErr != nil {
			return nil, errors.Join(err, fmt.Errorf("cleanup failed: %w", cleanupErr))
		}
		return nil, err
	}

	return photo, nil
}

func (s *PhotoService) List(ctx context.Context, actorID int64, role string, studentID int64) ([]models.ProgressPhoto, error) {
	if err := s.access.check(ctx, actorID, role, studentID); err != nil {
		return nil, err
	}
	return s.photoRepo.ListByStudentID(ctx, studentID)
}

func (s *PhotoService) GetDownloadURL(ctx context.Context, actorID int64, role string, photoID int64) (string, error) {
	if s.storage == nil {
		return "", ErrStorageUnavailable
	}
	photo, err := s.accessiblePhoto(ctx, actorID, role, photoID)
	if err != nil {
		return "", err
	}
	return s.storage.GetSignedURL(ctx, photo.FileURL, signedURLLifetime)
}

// Delete removes the row first; a failed storage delete only leaves an
// orphaned object behind.
func (s *PhotoService) Delete(ctx context.Context, actorID int64, role string, photoID int64) error {
	if s.storage == nil {
		return ErrStorageUnavailable
	}
	photo, err := s.accessiblePhoto(ctx, actorID, role, photoID)
	if err != nil {
		return err
	}
	if err := s.photoRepo.Delete(ctx, photo.ID); err != nil {
		return err
	}
	if err := s.storage.DeleteFile(ctx, photo.FileURL); err != nil {
		logger.L().Warn("progress photo object not deleted",
			zap.Error(err),
			zap.Int64("photo_id", photo.ID),
		)
	}
	return nil
}

func (s *PhotoService) accessiblePhoto(
	ctx context.Context,
	actorID int64,
	role string,
	photoID int64,
) (*models.ProgressPhoto, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if err := s.access.check(ctx, actorID, role, photo.StudentID); err != nil {
		if errors.Is(err, ErrNotInRoster) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return photo, nil
}
