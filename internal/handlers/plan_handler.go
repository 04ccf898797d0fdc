package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type planApplicationService interface {
	CreateTemplate(ctx context.Context, actorID int64, role string, input services.PlanInput) (*models.PlanDetail, error)
	ListTemplates(ctx context.Context, actorID int64, role string) ([]models.PlanDetail, error)
	GetPlan(ctx context.Context, actorID int64, role string, planID int64) (*models.PlanDetail, error)
	UpdateTemplate(ctx context.Context, actorID int64, role string, planID int64, input services.PlanInput) (*models.PlanDetail, error)
	DuplicateTemplate(ctx context.Context, actorID int64, role string, planID int64) (*models.PlanDetail, error)
	DeleteTemplate(ctx context.Context, actorID int64, role string, planID int64) error
	AssignTemplate(ctx context.Context, actorID int64, role string, templateID int64, input services.AssignPlanInput) (*models.PlanDetail, error)
	ListStudentPlans(ctx context.Context, actorID int64, role string, studentID int64) ([]models.PlanDetail, error)
	GetActivePlan(ctx context.Context, actorID int64, role string, studentID int64) (*models.PlanDetail, error)
	SetActivePlan(ctx context.Context, actorID int64, role string, studentID int64, planID int64) (*models.PlanDetail, error)
	SetExerciseCompletion(
		ctx context.Context,
		actorID int64,
		role string,
		planID int64,
		exerciseID string,
		completed bool,
	) (*models.PlanDetail, error)
	ResetPlanProgress(ctx context.Context, actorID int64, role string, planID int64) (*models.PlanDetail, error)
}

type PlanHandler struct {
	service planApplicationService
}

func NewPlanHandler(service planApplicationService) *PlanHandler {
	return &PlanHandler{service: service}
}

type planRequest struct {
	Title         string          `json:"title" validate:"required,max=120"`
	Description   *string         `json:"description" validate:"omitempty,max=2000"`
	Goal          *string         `json:"goal" validate:"omitempty,max=200"`
	Level         *string         `json:"level"`
	DurationWeeks int             `json:"duration_weeks" validate:"min=0,max=104"`
	Schedule      models.Schedule `json:"schedule" validate:"max=14"`
}

func (r planRequest) toInput() services.PlanInput {
	return services.PlanInput{
		Title:         r.Title,
		Description:   r.Description,
		Goal:          r.Goal,
		Level:         r.Level,
		DurationWeeks: r.DurationWeeks,
		Schedule:      r.Schedule,
	}
}

type assignPlanRequest struct {
	StudentID int64 `json:"student_id" validate:"required,gt=0"`
	Activate  *bool `json:"activate"`
}

type setActivePlanRequest struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"`
}

type exerciseCompletionRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

func (h *PlanHandler) CreateTemplate(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	var req planRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	plan, err := h.service.CreateTemplate(c.Context(), actorID, role, req.toInput())
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) ListTemplates(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}

	plans, err := h.service.ListTemplates(c.Context(), actorID, role)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid plan id")
	}

	plan, err := h.service.GetPlan(c.Context(), actorID, role, planID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) UpdateTemplate(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid plan id")
	}
	var req planRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	plan, err := h.service.UpdateTemplate(c.Context(), actorID, role, planID, req.toInput())
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) DuplicateTemplate(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid plan id")
	}

	plan, err := h.service.DuplicateTemplate(c.Context(), actorID, role, planID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) DeleteTemplate(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid plan id")
	}

	if err := h.service.DeleteTemplate(c.Context(), actorID, role, planID); err != nil {
		return mapPlanError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlanHandler) AssignTemplate(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	templateID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid plan id")
	}
	var req assignPlanRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	activate := true
	if req.Activate != nil {
		activate = *req.Activate
	}
	plan, err := h.service.AssignTemplate(c.Context(), actorID, role, templateID, services.AssignPlanInput{
		StudentID: req.StudentID,
		Activate:  activate,
	})
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) ListStudentPlans(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	studentID, ok := parseIDParam(c, "studentId")
	if !ok {
		return badRequest(c, "Invalid student id")
	}

	plans, err := h.service.ListStudentPlans(c.Context(), actorID, role, studentID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *PlanHandler) GetActivePlan(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	studentID, ok := parseIDParam(c, "studentId")
	if !ok {
		return badRequest(c, "Invalid student id")
	}

	plan, err := h.service.GetActivePlan(c.Context(), actorID, role, studentID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) SetActivePlan(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	studentID, ok := parseIDParam(c, "studentId")
	if !ok {
		return badRequest(c, "Invalid student id")
	}
	var req setActivePlanRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	plan, err := h.service.SetActivePlan(c.Context(), actorID, role, studentID, req.PlanID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) SetExerciseCompletion(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid plan id")
	}
	exerciseID := strings.TrimSpace(c.Params("exerciseId"))
	if exerciseID == "" {
		return badRequest(c, "Invalid exercise id")
	}
	var req exerciseCompletionRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	plan, err := h.service.SetExerciseCompletion(c.Context(), actorID, role, planID, exerciseID, *req.Completed)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) ResetPlanProgress(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	planID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid plan id")
	}

	plan, err := h.service.ResetPlanProgress(c.Context(), actorID, role, planID)
	if err != nil {
		return mapPlanError(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func mapPlanError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotInRoster):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": "Operation is not allowed for this plan kind"})
	case errors.Is(err, services.ErrNoActivePlan):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No active plan"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exercise not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process plan request"})
	}
}
