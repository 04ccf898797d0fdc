package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type dashboardApplicationService interface {
	Overview(ctx context.Context, actorID int64, role string) (any, error)
}

type DashboardHandler struct {
	service dashboardApplicationService
}

func NewDashboardHandler(service dashboardApplicationService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}

	dashboard, err := h.service.Overview(c.Context(), actorID, role)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to load dashboard"})
	}
	return c.JSON(fiber.Map{"role": role, "dashboard": dashboard})
}
