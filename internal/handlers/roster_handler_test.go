package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type stubRosterService struct {
	addResult     *models.User
	addErr        error
	removeErr     error
	entries       []models.RosterEntry
	lastEmail     string
	lastStudentID int64
	lastRole      string
}

func (s *stubRosterService) Add(_ context.Context, _ int64, role string, email string) (*models.User, error) {
	s.lastRole = role
	s.lastEmail = email
	return s.addResult, s.addErr
}

func (s *stubRosterService) Remove(_ context.Context, _ int64, _ string, studentID int64) error {
	s.lastStudentID = studentID
	return s.removeErr
}

func (s *stubRosterService) List(_ context.Context, _ int64, _ string) ([]models.RosterEntry, error) {
	return s.entries, nil
}

func withActor(app *fiber.App, userID, role string) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
}

func newRosterApp(service *stubRosterService) *fiber.App {
	handler := NewRosterHandler(service)
	app := fiber.New()
	withActor(app, "7", "trainer")
	app.Post("/roster", handler.AddStudent)
	app.Delete("/roster/:studentId", handler.RemoveStudent)
	app.Get("/roster", handler.ListStudents)
	return app
}

func TestAddStudentNormalisesEmail(t *testing.T) {
	service := &stubRosterService{addResult: &models.User{ID: 42, Email: "sam@example.com", Role: models.RoleStudent}}
	app := newRosterApp(service)

	resp := postJSON(t, app, "/roster", `{"email":"Sam@Example.com"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastEmail != "sam@example.com" || service.lastRole != "trainer" {
		t.Fatalf("unexpected forwarding %q %q", service.lastEmail, service.lastRole)
	}
}

func TestAddStudentErrorMapping(t *testing.T) {
	tests := map[error]int{
		services.ErrInvalidInput:    http.StatusBadRequest,
		services.ErrAlreadyInRoster: http.StatusConflict,
		services.ErrForbidden:       http.StatusForbidden,
		pgx.ErrNoRows:               http.StatusNotFound,
	}
	for serviceErr, want := range tests {
		app := newRosterApp(&stubRosterService{addErr: serviceErr})
		resp := postJSON(t, app, "/roster", `{"email":"sam@example.com"}`)
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("%v: expected %d, got %d", serviceErr, want, resp.StatusCode)
		}
	}
}

func TestRemoveStudent(t *testing.T) {
	service := &stubRosterService{}
	app := newRosterApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/roster/42", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent || service.lastStudentID != 42 {
		t.Fatalf("unexpected result %d %d", resp.StatusCode, service.lastStudentID)
	}

	service.removeErr = services.ErrNotInRoster
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/roster/42", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/roster/abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListStudents(t *testing.T) {
	planID := int64(6)
	service := &stubRosterService{entries: []models.RosterEntry{
		{RosterMember: models.RosterMember{StudentID: 42, Email: "sam@example.com"}, ActivePlanID: &planID},
	}}
	app := newRosterApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/roster", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var payload struct {
		Students []models.RosterEntry `json:"students"`
	}
	decodeBody(t, resp, &payload)
	if len(payload.Students) != 1 || *payload.Students[0].ActivePlanID != 6 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
