package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
)

type profileApplicationService interface {
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req repository.UpdateProfileInput) (*models.Profile, error)
}

type ProfileHandler struct {
	profileService profileApplicationService
	now            func() time.Time
}

func NewProfileHandler(profileService profileApplicationService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, now: time.Now}
}

type updateProfileRequest struct {
	FullName     *string   `json:"full_name" validate:"omitempty,max=120"`
	Gender       *string   `json:"gender"`
	HeightCM     *float64  `json:"height_cm" validate:"omitempty,lt=300"`
	BirthYear    *int      `json:"birth_year"`
	FitnessLevel *string   `json:"fitness_level"`
	Goals        *[]string `json:"goals" validate:"omitempty,max=10,dive,max=80"`
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.profileService.GetProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := parseProfileUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req updateProfileRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}
	if validationErr := validateProfileUpdateRequest(req, h.now()); validationErr != "" {
		return badRequest(c, validationErr)
	}

	profile, err := h.profileService.UpdateProfile(c.Context(), userID, repository.UpdateProfileInput{
		FullName:     trimmedPtr(req.FullName),
		Gender:       trimmedPtr(req.Gender),
		HeightCM:     req.HeightCM,
		BirthYear:    req.BirthYear,
		FitnessLevel: trimmedPtr(req.FitnessLevel),
		Goals:        trimAll(req.Goals),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}
