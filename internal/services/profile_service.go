package services

import (
	"context"

	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
)

type ProfileUpdater interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	UpdatePartial(ctx context.Context, userID int64, req repository.UpdateProfileInput) (*models.Profile, error)
}

type ProfileService struct {
	profileRepo ProfileUpdater
}

func NewProfileService(profileRepo ProfileUpdater) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

// UpdateProfile leaves nil fields untouched.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, req repository.UpdateProfileInput) (*models.Profile, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.profileRepo.UpdatePartial(ctx, userID, req)
}
