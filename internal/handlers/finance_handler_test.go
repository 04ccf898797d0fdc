package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type stubFinanceService struct {
	err        error
	total      int
	lastCreate services.CreateTransactionInput
	lastList   services.ListTransactionsInput
	lastMonths int
	lastRole   string
}

func (s *stubFinanceService) Create(_ context.Context, _ int64, role string, input services.CreateTransactionInput) (*models.Transaction, error) {
	s.lastRole = role
	s.lastCreate = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Transaction{ID: 1, Kind: input.Kind, Amount: input.Amount, Status: models.TransactionPending}, nil
}

func (s *stubFinanceService) List(_ context.Context, _ int64, role string, input services.ListTransactionsInput) ([]models.Transaction, int, error) {
	s.lastRole = role
	s.lastList = input
	return []models.Transaction{}, s.total, s.err
}

func (s *stubFinanceService) MarkPaid(_ context.Context, _ int64, _ string, transactionID int64) (*models.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Transaction{ID: transactionID, Status: models.TransactionPaid}, nil
}

func (s *stubFinanceService) Summary(_ context.Context, _ int64, _ string, months int) (*models.FinanceSummary, error) {
	s.lastMonths = months
	return &models.FinanceSummary{Monthly: []models.MonthlyTotals{}}, s.err
}

func newFinanceApp(service *stubFinanceService, role string) *fiber.App {
	handler := NewFinanceHandler(service)
	app := fiber.New()
	withActor(app, "7", role)
	app.Post("/transactions", handler.Create)
	app.Get("/transactions", handler.List)
	app.Post("/transactions/:id/pay", handler.MarkPaid)
	app.Get("/finance/summary", handler.Summary)
	return app
}

func TestCreateTransaction(t *testing.T) {
	service := &stubFinanceService{}
	app := newFinanceApp(service, "trainer")

	resp := postJSON(t, app, "/transactions", `{"kind":"income","category":"Membership","amount":49.99,"student_id":42,"due_date":"2026-06-01"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	input := service.lastCreate
	if input.Kind != "income" || input.Amount != 49.99 || input.StudentID == nil || *input.StudentID != 42 || input.DueDate == nil {
		t.Fatalf("unexpected input %+v", input)
	}

	for _, body := range []string{
		`{"kind":"gift","category":"x","amount":5}`,
		`{"kind":"income","category":"x","amount":0}`,
		`{"kind":"income","category":"x","amount":1e10}`,
		`{"kind":"income","category":"x","amount":5,"status":"overdue"}`,
	} {
		resp = postJSON(t, app, "/transactions", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.StatusCode)
		}
	}
}

func TestListTransactionsPaginates(t *testing.T) {
	service := &stubFinanceService{total: 23}
	app := newFinanceApp(service, "gym")

	resp := getPath(t, app, "/transactions?page=3&limit=10&status=pending&kind=income&student_id=42")
	var payload struct {
		Pagination models.PaginationMeta `json:"pagination"`
	}
	decodeBody(t, resp, &payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastList.Offset != 20 || service.lastList.Limit != 10 || service.lastList.StudentID != 42 {
		t.Fatalf("unexpected list input %+v", service.lastList)
	}
	if service.lastList.Status != "pending" || service.lastList.Kind != "income" {
		t.Fatalf("unexpected filters %+v", service.lastList)
	}
	if payload.Pagination.TotalPages != 3 || payload.Pagination.Total != 23 {
		t.Fatalf("unexpected pagination %+v", payload.Pagination)
	}

	resp = getPath(t, app, "/transactions?limit=500")
	resp.Body.Close()
	if service.lastList.Limit != maxPageLimit || service.lastList.Offset != 0 {
		t.Fatalf("expected clamped limit, got %+v", service.lastList)
	}

	resp = getPath(t, app, "/transactions?student_id=abc")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad student_id, got %d", resp.StatusCode)
	}
}

func TestMarkPaidAlreadyPaid(t *testing.T) {
	app := newFinanceApp(&stubFinanceService{err: services.ErrInvalidStateTransition}, "trainer")

	resp := postJSON(t, app, "/transactions/5/pay", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestFinanceSummaryMonths(t *testing.T) {
	service := &stubFinanceService{}
	app := newFinanceApp(service, "trainer")

	resp := getPath(t, app, "/finance/summary?months=12")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || service.lastMonths != 12 {
		t.Fatalf("unexpected summary %d months=%d", resp.StatusCode, service.lastMonths)
	}

	app = newFinanceApp(&stubFinanceService{err: services.ErrForbidden}, "student")
	resp = getPath(t, app, "/finance/summary")
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
