package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/services"
)

const (
	maxPhotoSizeBytes   = 10 * 1024 * 1024
	maxCaptionLength    = 280
	signedURLTTLSeconds = 3600
)

type photoApplicationService interface {
	Upload(ctx context.Context, actorID int64, role string, input services.UploadPhotoInput) (*models.ProgressPhoto, error)
	List(ctx context.Context, actorID int64, role string, studentID int64) ([]models.ProgressPhoto, error)
	GetDownloadURL(ctx context.Context, actorID int64, role string, photoID int64) (string, error)
	Delete(ctx context.Context, actorID int64, role string, photoID int64) error
}

type PhotoHandler struct {
	service photoApplicationService
}

func NewPhotoHandler(service photoApplicationService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

func (h *PhotoHandler) Upload(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	studentID, ok := parseIDParam(c, "studentId")
	if !ok {
		return badRequest(c, "Invalid student id")
	}

	var caption *string
	if rawCaption := strings.TrimSpace(c.FormValue("caption")); rawCaption != "" {
		if len([]rune(rawCaption)) > maxCaptionLength {
			return badRequest(c, "caption is too long")
		}
		caption = &rawCaption
	}

	var takenAt *time.Time
	if rawTakenAt := strings.TrimSpace(c.FormValue("taken_at")); rawTakenAt != "" {
		parsed, err := parseFlexibleTime(rawTakenAt)
		if err != nil {
			return badRequest(c, "taken_at must be RFC3339 or YYYY-MM-DD")
		}
		takenAt = &parsed
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return badRequest(c, "photo is required")
	}
	if fileHeader.Size <= 0 {
		return badRequest(c, "photo is empty")
	}
	if fileHeader.Size > maxPhotoSizeBytes {
		return badRequest(c, "photo exceeds 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to open file"})
	}
	defer file.Close()

	photo, err := h.service.Upload(c.Context(), actorID, role, services.UploadPhotoInput{
		StudentID: studentID,
		Caption:   caption,
		TakenAt:   takenAt,
		File:      file,
		Filename:  fileHeader.Filename,
	})
	if err != nil {
		return mapPhotoError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"photo": photo})
}

func (h *PhotoHandler) List(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	studentID, ok := parseIDParam(c, "studentId")
	if !ok {
		return badRequest(c, "Invalid student id")
	}

	photos, err := h.service.List(c.Context(), actorID, role, studentID)
	if err != nil {
		return mapPhotoError(c, err)
	}
	return c.JSON(fiber.Map{"photos": photos})
}

func (h *PhotoHandler) Download(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid photo id")
	}

	signedURL, err := h.service.GetDownloadURL(c.Context(), actorID, role, photoID)
	if err != nil {
		return mapPhotoError(c, err)
	}
	return c.JSON(fiber.Map{"download_url": signedURL, "expires_in_seconds": signedURLTTLSeconds})
}

func (h *PhotoHandler) Delete(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	photoID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid photo id")
	}

	if err := h.service.Delete(c.Context(), actorID, role, photoID); err != nil {
		return mapPhotoError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapPhotoError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotInRoster):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(fiber.Map{"error": "Storage service is not configured"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Photo not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process photo request"})
	}
}
