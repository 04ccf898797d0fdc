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

type taskApplicationService interface {
	Create(ctx context.Context, ownerID int64, input services.CreateTaskInput) (*models.Task, error)
	Board(ctx context.Context, ownerID int64) (models.TaskBoard, error)
	Update(ctx context.Context, ownerID int64, taskID int64, input services.UpdateTaskInput) (*models.Task, error)
	Move(ctx context.Context, ownerID int64, taskID int64, input services.MoveTaskInput) (models.TaskBoard, error)
	Delete(ctx context.Context, ownerID int64, taskID int64) error
}

type TaskHandler struct {
	service taskApplicationService
}

func NewTaskHandler(service taskApplicationService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     string  `json:"due_date"`
}

// An empty due_date clears it, as does clear_due_date.
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	ClearDue    bool    `json:"clear_due_date"`
}

type moveTaskRequest struct {
	Status   string `json:"status" validate:"required"`
	Position *int   `json:"position" validate:"required,min=0"`
}

func (h *TaskHandler) Board(c *fiber.Ctx) error {
	ownerID, _, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}

	board, err := h.service.Board(c.Context(), ownerID)
	if err != nil {
		return mapTaskError(c, err)
	}
	return c.JSON(fiber.Map{"board": board})
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	ownerID, _, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	var req createTaskRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}
	dueDate, ok := parseOptionalDate(req.DueDate)
	if !ok {
		return badRequest(c, "due_date must be RFC3339 or YYYY-MM-DD")
	}

	task, err := h.service.Create(c.Context(), ownerID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      strings.TrimSpace(req.Status),
		Priority:    strings.TrimSpace(req.Priority),
		DueDate:     dueDate,
	})
	if err != nil {
		return mapTaskError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) Update(c *fiber.Ctx) error {
	ownerID, _, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid task id")
	}
	var req updateTaskRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		ClearDue:    req.ClearDue,
	}
	if req.DueDate != nil {
		dueDate, ok := parseOptionalDate(*req.DueDate)
		if !ok {
			return badRequest(c, "due_date must be RFC3339 or YYYY-MM-DD")
		}
		input.DueDate = dueDate
		input.ClearDue = input.ClearDue || dueDate == nil
	}

	task, err := h.service.Update(c.Context(), ownerID, taskID, input)
	if err != nil {
		return mapTaskError(c, err)
	}
	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) Move(c *fiber.Ctx) error {
	ownerID, _, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid task id")
	}
	var req moveTaskRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	board, err := h.service.Move(c.Context(), ownerID, taskID, services.MoveTaskInput{
		Status:   strings.TrimSpace(req.Status),
		Position: *req.Position,
	})
	if err != nil {
		return mapTaskError(c, err)
	}
	return c.JSON(fiber.Map{"board": board})
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	ownerID, _, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid task id")
	}

	if err := h.service.Delete(c.Context(), ownerID, taskID); err != nil {
		return mapTaskError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseOptionalDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parsed, err := parseFlexibleTime(raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

func mapTaskError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process task request"})
	}
}
