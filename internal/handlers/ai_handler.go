package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type aiApplicationService interface {
	GenerateWorkoutPlan(ctx context.Context, actorID int64, role string, input services.GenerateWorkoutPlanInput) (*services.GeneratedPlan, error)
	DescribeExercise(ctx context.Context, input services.DescribeExerciseInput) (*services.GeneratedText, error)
	AnalyzePerformance(ctx context.Context, actorID int64, role string, studentID int64) (*services.GeneratedText, error)
}

type AIHandler struct {
	service aiApplicationService
}

func NewAIHandler(service aiApplicationService) *AIHandler {
	return &AIHandler{service: service}
}

type generateWorkoutPlanRequest struct {
	StudentID      int64    `json:"student_id" validate:"omitempty,gt=0"`
	Goal           string   `json:"goal" validate:"required,max=200"`
	Level          string   `json:"level" validate:"required"`
	DaysPerWeek    int      `json:"days_per_week" validate:"required,min=1,max=7"`
	SessionMinutes int      `json:"session_minutes" validate:"required,min=15,max=180"`
	DurationWeeks  int      `json:"duration_weeks" validate:"min=0,max=104"`
	Equipment      []string `json:"equipment" validate:"max=20,dive,max=60"`
	Save           bool     `json:"save"`
}

type describeExerciseRequest struct {
	Exercise string `json:"exercise" validate:"required,max=100"`
	Level    string `json:"level"`
}

func (h *AIHandler) GenerateWorkoutPlan(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	var req generateWorkoutPlanRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	result, err := h.service.GenerateWorkoutPlan(c.Context(), actorID, role, services.GenerateWorkoutPlanInput{
		StudentID:      req.StudentID,
		Goal:           req.Goal,
		Level:          req.Level,
		DaysPerWeek:    req.DaysPerWeek,
		SessionMinutes: req.SessionMinutes,
		DurationWeeks:  req.DurationWeeks,
		Equipment:      req.Equipment,
		Save:           req.Save,
	})
	if err != nil {
		return mapAIError(c, err)
	}

	status := fiber.StatusOK
	if result.Saved {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

func (h *AIHandler) DescribeExercise(c *fiber.Ctx) error {
	if _, _, ok := actorFromLocals(c); !ok {
		return unauthorized(c)
	}
	var req describeExerciseRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	result, err := h.service.DescribeExercise(c.Context(), services.DescribeExerciseInput{
		Exercise: req.Exercise,
		Level:    req.Level,
	})
	if err != nil {
		return mapAIError(c, err)
	}
	return c.JSON(result)
}

func (h *AIHandler) AnalyzePerformance(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	studentID, ok := parseIDParam(c, "studentId")
	if !ok {
		return badRequest(c, "Invalid student id")
	}

	result, err := h.service.AnalyzePerformance(c.Context(), actorID, role, studentID)
	if err != nil {
		return mapAIError(c, err)
	}
	return c.JSON(result)
}

func mapAIError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotInRoster):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAIBadResponse):
		return c.Status(fiber.StatusBadGateway).
			JSON(fiber.Map{"error": "AI service returned an unusable response"})
	case errors.Is(err, services.ErrAIUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(fiber.Map{"error": "AI service is unavailable"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process AI request"})
	}
}
