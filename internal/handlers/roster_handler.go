package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type rosterApplicationService interface {
	Add(ctx context.Context, staffID int64, role string, email string) (*models.User, error)
	Remove(ctx context.Context, staffID int64, role string, studentID int64) error
	List(ctx context.Context, staffID int64, role string) ([]models.RosterEntry, error)
}

type RosterHandler struct {
	service rosterApplicationService
}

func NewRosterHandler(service rosterApplicationService) *RosterHandler {
	return &RosterHandler{service: service}
}

type addRosterMemberRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

func (h *RosterHandler) AddStudent(c *fiber.Ctx) error {
	staffID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}

	var req addRosterMemberRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		return badRequest(c, "Invalid email format")
	}

	student, err := h.service.Add(c.Context(), staffID, role, email)
	if err != nil {
		return mapRosterError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"student": userResponse(student)})
}

func (h *RosterHandler) RemoveStudent(c *fiber.Ctx) error {
	staffID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	studentID, ok := parseIDParam(c, "studentId")
	if !ok {
		return badRequest(c, "Invalid student id")
	}

	if err := h.service.Remove(c.Context(), staffID, role, studentID); err != nil {
		return mapRosterError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RosterHandler) ListStudents(c *fiber.Ctx) error {
	staffID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}

	entries, err := h.service.List(c.Context(), staffID, role)
	if err != nil {
		return mapRosterError(c, err)
	}
	return c.JSON(fiber.Map{"students": entries})
}

func mapRosterError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only registered students can be added"})
	case errors.Is(err, services.ErrAlreadyInRoster):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Student is already in your roster"})
	case errors.Is(err, services.ErrNotInRoster):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student is not in your roster"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process roster request"})
	}
}
