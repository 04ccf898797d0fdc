package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/services"
)

type stubAIService struct {
	err           error
	lastGenerate  services.GenerateWorkoutPlanInput
	lastDescribe  services.DescribeExerciseInput
	lastStudentID int64
}

func (s *stubAIService) GenerateWorkoutPlan(
	_ context.Context,
	_ int64,
	_ string,
	input services.GenerateWorkoutPlanInput,
) (*services.GeneratedPlan, error) {
	s.lastGenerate = input
	if s.err != nil {
		return nil, s.err
	}
	return &services.GeneratedPlan{Saved: input.Save, Plan: samplePlanDetail()}, nil
}

func (s *stubAIService) DescribeExercise(_ context.Context, input services.DescribeExerciseInput) (*services.GeneratedText, error) {
	s.lastDescribe = input
	if s.err != nil {
		return nil, s.err
	}
	return &services.GeneratedText{Markdown: "**Squat**", HTML: "<p><strong>Squat</strong></p>\n"}, nil
}

func (s *stubAIService) AnalyzePerformance(_ context.Context, _ int64, _ string, studentID int64) (*services.GeneratedText, error) {
	s.lastStudentID = studentID
	if s.err != nil {
		return nil, s.err
	}
	return &services.GeneratedText{Markdown: "Good progress"}, nil
}

func newAIApp(service *stubAIService) *fiber.App {
	handler := NewAIHandler(service)
	app := fiber.New()
	withActor(app, "7", "trainer")
	app.Post("/ai/workout-plans", handler.GenerateWorkoutPlan)
	app.Post("/ai/exercises/describe", handler.DescribeExercise)
	app.Get("/ai/students/:studentId/analysis", handler.AnalyzePerformance)
	return app
}

func TestGenerateWorkoutPlanStatusFollowsSave(t *testing.T) {
	service := &stubAIService{}
	app := newAIApp(service)

	body := `{"goal":"strength","level":"beginner","days_per_week":3,"session_minutes":60,"equipment":["barbell"]}`
	resp := postJSON(t, app, "/ai/workout-plans", body)
	var preview struct {
		Saved bool              `json:"saved"`
		Plan  models.PlanDetail `json:"plan"`
	}
	decodeBody(t, resp, &preview)
	if resp.StatusCode != http.StatusOK || preview.Saved || preview.Plan.Title != "Full body" {
		t.Fatalf("unexpected preview %d %+v", resp.StatusCode, preview)
	}
	if service.lastGenerate.DaysPerWeek != 3 || len(service.lastGenerate.Equipment) != 1 {
		t.Fatalf("unexpected input %+v", service.lastGenerate)
	}

	resp = postJSON(t, app, "/ai/workout-plans", `{"goal":"strength","level":"beginner","days_per_week":3,"session_minutes":60,"save":true}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 when saved, got %d", resp.StatusCode)
	}
}

func TestGenerateWorkoutPlanValidation(t *testing.T) {
	app := newAIApp(&stubAIService{})

	for _, body := range []string{
		`{"level":"beginner","days_per_week":3,"session_minutes":60}`,
		`{"goal":"x","level":"beginner","days_per_week":9,"session_minutes":60}`,
		`{"goal":"x","level":"beginner","days_per_week":3,"session_minutes":5}`,
	} {
		resp := postJSON(t, app, "/ai/workout-plans", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.StatusCode)
		}
	}
}

func TestAIErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: bad json", services.ErrAIBadResponse), want: http.StatusBadGateway},
		{err: services.ErrAIUnavailable, want: http.StatusServiceUnavailable},
		{err: services.ErrNotInRoster, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		app := newAIApp(&stubAIService{err: tt.err})
		resp := getPath(t, app, "/ai/students/42/analysis")
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, resp.StatusCode)
		}
	}
}

func TestDescribeExerciseReturnsHTML(t *testing.T) {
	service := &stubAIService{}
	app := newAIApp(service)

	resp := postJSON(t, app, "/ai/exercises/describe", `{"exercise":"Back squat","level":"advanced"}`)
	var payload services.GeneratedText
	decodeBody(t, resp, &payload)
	if resp.StatusCode != http.StatusOK || payload.HTML == "" {
		t.Fatalf("unexpected response %d %+v", resp.StatusCode, payload)
	}
	if service.lastDescribe.Exercise != "Back squat" || service.lastDescribe.Level != "advanced" {
		t.Fatalf("unexpected describe input %+v", service.lastDescribe)
	}

	resp = postJSON(t, app, "/ai/exercises/describe", `{}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without exercise, got %d", resp.StatusCode)
	}
}
