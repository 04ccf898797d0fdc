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

type financeApplicationService interface {
	Create(ctx context.Context, actorID int64, role string, input services.CreateTransactionInput) (*models.Transaction, error)
	List(ctx context.Context, actorID int64, role string, input services.ListTransactionsInput) ([]models.Transaction, int, error)
	MarkPaid(ctx context.Context, actorID int64, role string, transactionID int64) (*models.Transaction, error)
	Summary(ctx context.Context, actorID int64, role string, months int) (*models.FinanceSummary, error)
}

type FinanceHandler struct {
	service financeApplicationService
}

func NewFinanceHandler(service financeApplicationService) *FinanceHandler {
	return &FinanceHandler{service: service}
}

type createTransactionRequest struct {
	StudentID   *int64  `json:"student_id" validate:"omitempty,gt=0"`
	Kind        string  `json:"kind" validate:"required,oneof=income expense"`
	Category    string  `json:"category" validate:"required,max=60"`
	Amount      float64 `json:"amount" validate:"required,gt=0,lt=10000000000"`
	Status      string  `json:"status" validate:"omitempty,oneof=pending paid"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	DueDate     string  `json:"due_date"`
}

func (h *FinanceHandler) Create(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	var req createTransactionRequest
	if msg := parseBody(c, &req); msg != "" {
		return badRequest(c, msg)
	}
	dueDate, ok := parseOptionalDate(req.DueDate)
	if !ok {
		return badRequest(c, "due_date must be RFC3339 or YYYY-MM-DD")
	}

	transaction, err := h.service.Create(c.Context(), actorID, role, services.CreateTransactionInput{
		StudentID:   req.StudentID,
		Kind:        req.Kind,
		Category:    req.Category,
		Amount:      req.Amount,
		Status:      req.Status,
		Description: req.Description,
		DueDate:     dueDate,
	})
	if err != nil {
		return mapFinanceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction": transaction})
}

func (h *FinanceHandler) List(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	page, limit := pageParams(c)

	var studentID int64
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		studentID = int64(parsePositiveInt(raw, 0))
		if studentID == 0 {
			return badRequest(c, "student_id must be a positive integer")
		}
	}

	transactions, total, err := h.service.List(c.Context(), actorID, role, services.ListTransactionsInput{
		Status:    strings.TrimSpace(c.Query("status")),
		Kind:      strings.TrimSpace(c.Query("kind")),
		StudentID: studentID,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		return mapFinanceError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"pagination":   buildPaginationMeta(page, limit, total),
	})
}

func (h *FinanceHandler) MarkPaid(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	transactionID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid transaction id")
	}

	transaction, err := h.service.MarkPaid(c.Context(), actorID, role, transactionID)
	if err != nil {
		return mapFinanceError(c, err)
	}
	return c.JSON(fiber.Map{"transaction": transaction})
}

func (h *FinanceHandler) Summary(c *fiber.Ctx) error {
	actorID, role, ok := actorFromLocals(c)
	if !ok {
		return unauthorized(c)
	}
	months := parsePositiveInt(c.Query("months"), 0)

	summary, err := h.service.Summary(c.Context(), actorID, role, months)
	if err != nil {
		return mapFinanceError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

func mapFinanceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotInRoster):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": "Transaction is already paid"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process finance request"})
	}
}
