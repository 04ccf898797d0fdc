package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type metricApplicationService interface {
	Record(
		ctx context.Context,
		actorID int64,
		role string,
		studentID int64,
		input services.RecordMetricInput,
	) (*models.BodyMetric, error)
	List(ctx context.Context, actorID int64, role string, studentID int64, window repository.MetricRange) ([]models.BodyMetric, error)
	Series(
		ctx context.Context,
		actorID int64,
		role string,
		studentID int64,
		metric string,
		window repository.MetricRange,
	) (*models.MetricSeries, error)
	Summary(ctx context.Context, actorID int64, role string, studentID int64, window repository.MetricRange) (*models.MetricSummary, error)
	Latest(ctx context.Context, actorID int64, role string, studentID int64) (*models.BodyMetric, error)
	Delete(ctx context.Context, actorID int64, role string, metricID int64) error
}

type MetricHandler struct {
	service metricApplicationService
}

func NewMetricHandler(service metricApplicationService) *MetricHandler {
	return &MetricHandler{service: service}
}

type recordMetricRequest struct {
	RecordedAt   string   `json:"recorded_at"`
	WeightKG     float64  `json:"weight_kg" validate:"required,gt=0"`
	BodyFatPct   *float64 `json:"body_fat_pct" validate:"omitempty,gte=0,lte=100"`
	MuscleMassKG *float64 `json:"muscle_mass_kg" validate:"omitempty,gt=0"`
	WaistCM      *float64 `json:"waist_cm" validate:"omitempty,gt=0"`
	ChestCM      *float64 `json:"chest_cm" validate:"omitempty,gt=0"`
	HipsCM       *float64 `json:"hips_cm" validate:"omitempty,gt=0"`
	Notes        *string  `json:"notes" validate:"omitempty,max=500"`
}

func (h *MetricHandler) Record(c *fiber.Ctx) error {
	actorID, role, studentID, ok := metricTarget(c)
	if !ok {
		return nil
	}
	var req recordMetricRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	var recordedAt *time.Time
	if raw := strings.TrimSpace(req.RecordedAt); raw != "" {
		parsed, err := parseFlexibleTime(raw)
		if err != nil {
			return badRequest(c, "recorded_at must be RFC3339 or YYYY-MM-DD")
		}
		recordedAt = &parsed
	}

	metric, err := h.service.Record(c.Context(), actorID, role, studentID, services.RecordMetricInput{
		RecordedAt:   recordedAt,
		WeightKG:     req.WeightKG,
		BodyFatPct:   req.BodyFatPct,
		MuscleMassKG: req.MuscleMassKG,
		WaistCM:      req.WaistCM,
		ChestCM:      req.ChestCM,
		HipsCM:       req.HipsCM,
		Notes:        req.Notes,
	})
	if err != nil {
		return mapMetricError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"metric": metric})
}

func (h *MetricHandler) List(c *fiber.Ctx) error {
	actorID, role, studentID, ok := metricTarget(c)
	if !ok {
		return nil
	}
	window, ok := metricWindow(c)
	if !ok {
		return badRequest(c, "from and to must be RFC3339 or YYYY-MM-DD")
	}

	metrics, err := h.service.List(c.Context(), actorID, role, studentID, window)
	if err != nil {
		return mapMetricError(c, err)
	}
	return c.JSON(fiber.Map{"metrics": metrics})
}

func (h *MetricHandler) Series(c *fiber.Ctx) error {
	actorID, role, studentID, ok := metricTarget(c)
	if !ok {
		return nil
	}
	window, ok := metricWindow(c)
	if !ok {
		return badRequest(c, "from and to must be RFC3339 or YYYY-MM-DD")
	}
	metric := strings.TrimSpace(c.Query("metric", models.MetricWeightKG))

	series, err := h.service.Series(c.Context(), actorID, role, studentID, metric, window)
	if err != nil {
		return mapMetricError(c, err)
	}
	return c.JSON(fiber.Map{"series": series})
}

func (h *MetricHandler) Summary(c *fiber.Ctx) error {
	actorID, role, studentID, ok := metricTarget(c)
	if !ok {
		return nil
	}
	window, ok := metricWindow(c)
	if !ok {
		return badRequest(c, "from and to must be RFC3339 or YYYY-MM-DD")
	}

	summary, err := h.service.Summary(c.Context(), actorID, role, studentID, window)
	if err != nil {
		return mapMetricError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

func (h *MetricHandler) Latest(c *fiber.Ctx) error {
	actorID, role, studentID, ok := metricTarget(c)
	if !ok {
		return nil
	}

	metric, err := h.service.Latest(c.Context(), actorID, role, studentID)
	if err != nil {
		return mapMetricError(c, err)
	}
	return c.JSON(fiber.Map{"metric": metric})
}

func (h *MetricHandler) Delete(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	metricID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid metric id")
	}

	if err := h.service.Delete(c.Context(), actorID, role, metricID); err != nil {
		return mapMetricError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// metricTarget resolves the actor and :studentId, writing the error response
// itself when ok is false.
func metricTarget(c *fiber.Ctx) (actorID int64, role string, studentID int64, ok bool) {
	actorID, role, ok = actorFromLocals(c)
	if !ok {
		_ = unauthorized(c)
		return 0, "", 0, false
	}
	studentID, ok = parseIDParam(c, "studentId")
	if !ok {
		_ = badRequest(c, "Invalid student id")
		return 0, "", 0, false
	}
	return actorID, role, studentID, true
}

func metricWindow(c *fiber.Ctx) (repository.MetricRange, bool) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return repository.MetricRange{}, false
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return repository.MetricRange{}, false
	}
	return repository.MetricRange{From: from, To: to}, true
}

func mapMetricError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotInRoster):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Metric not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process metric request"})
	}
}
