package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/ai"
	"github.com/saeid-a/GymDashBack/internal/logger"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultGeneratedWeeks = 4
	maxGoalLength         = 200
	maxExerciseNameLength = 100
	maxEquipmentItems     = 20
)

// Completer is the subset of the LLM client the AI features need.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type promptRenderer interface {
	Render(name string, data any) (string, string, error)
}

type GenerateWorkoutPlanInput struct {
	StudentID      int64
	Goal           string
	Level          string
	DaysPerWeek    int
	SessionMinutes int
	DurationWeeks  int
	Equipment      []string
	Save           bool
}

type DescribeExerciseInput struct {
	Exercise string
	Level    string
}

type GeneratedPlan struct {
	Saved bool               `json:"saved"`
	Plan  *models.PlanDetail `json:"plan"`
}

type GeneratedText struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

type AIService struct {
	client      Completer
	prompts     promptRenderer
	plans       *PlanService
	metrics     *MetricService
	profileRepo profileReader
	userRepo    userReader
	access      studentAccess
	now         func() time.Time
}

func NewAIService(
	client Completer,
	prompts promptRenderer,
	plans *PlanService,
	metrics *MetricService,
	profileRepo profileReader,
	userRepo userReader,
	roster rosterChecker,
) *AIService {
	return &AIService{
		client:      client,
		prompts:     prompts,
		plans:       plans,
		metrics:     metrics,
		profileRepo: profileRepo,
		userRepo:    userRepo,
		access:      studentAccess{roster: roster},
		now:         time.Now,
	}
}

func (s *AIService) Enabled() bool {
	return s != nil && s.client != nil && s.prompts != nil
}

func (s *AIService) GenerateWorkoutPlan(
	ctx context.Context,
	actorID int64,
	role string,
	input GenerateWorkoutPlanInput,
) (*GeneratedPlan, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	if !s.Enabled() {
		return nil, ErrAIUnavailable
	}

	prompt, err := s.workoutPrompt(ctx, actorID, role, input)
	if err != nil {
		return nil, err
	}
	completion, err := s.complete(ctx, ai.PromptWorkoutPlan, prompt)
	if err != nil {
		return nil, err
	}

	planInput, err := parseGeneratedPlan(completion)
	if err != nil {
		return nil, err
	}
	planInput.Goal = &prompt.Goal
	planInput.Level = &prompt.Level
	if planInput.DurationWeeks < 1 || planInput.DurationWeeks > maxPlanDurationWeeks {
		planInput.DurationWeeks = weeksOrDefault(input.DurationWeeks)
	}

	normalized, err := s.plans.normalizePlanInput(planInput)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIBadResponse, err)
	}

	if input.Save {
		saved, err := s.plans.CreateTemplate(ctx, actorID, role, normalized)
		if err != nil {
			return nil, err
		}
		return &GeneratedPlan{Saved: true, Plan: saved}, nil
	}

	now := s.now().UTC()
	return &GeneratedPlan{Plan: models.NewPlanDetail(&models.WorkoutPlan{
		Kind:          models.PlanKindTemplate,
		OwnerID:       actorID,
		AuthorID:      actorID,
		Title:         normalized.Title,
		Description:   normalized.Description,
		Goal:          normalized.Goal,
		Level:         normalized.Level,
		DurationWeeks: normalized.DurationWeeks,
		Schedule:      normalized.Schedule,
		CreatedAt:     now,
		UpdatedAt:     now,
	})}, nil
}

func (s *AIService) DescribeExercise(ctx context.Context, input DescribeExerciseInput) (*GeneratedText, error) {
	if !s.Enabled() {
		return nil, ErrAIUnavailable
	}
	exercise := strings.TrimSpace(input.Exercise)
	if exercise == "" {
		return nil, fmt.Errorf("%w: exercise is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(exercise) > maxExerciseNameLength {
		return nil, fmt.Errorf("%w: exercise is too long", ErrInvalidInput)
	}
	level := strings.ToLower(strings.TrimSpace(input.Level))
	if level != "" {
		if _, ok := planLevels[level]; !ok {
			return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, input.Level)
		}
	}

	completion, err := s.complete(ctx, ai.PromptExerciseDescription, ai.ExercisePrompt{Exercise: exercise, Level: level})
	if err != nil {
		return nil, err
	}
	return renderGeneratedText(completion)
}

func (s *AIService) AnalyzePerformance(ctx context.Context, actorID int64, role string, studentID int64) (*GeneratedText, error) {
	if !s.Enabled() {
		return nil, ErrAIUnavailable
	}
	summary, err := s.metrics.Summary(ctx, actorID, role, studentID, repository.MetricRange{})
	if err != nil {
		return nil, err
	}

	prompt := ai.PerformancePrompt{
		Name:    s.displayName(ctx, studentID),
		Entries: summary.Entries,
	}
	for _, change := range summary.Changes {
		if change.First == nil || change.Latest == nil || change.Delta == nil {
			continue
		}
		prompt.Changes = append(prompt.Changes, ai.MetricFact{
			Metric: change.Metric,
			First:  change.First.Value,
			Latest: change.Latest.Value,
			Delta:  *change.Delta,
		})
	}

	active, err := s.plans.GetActivePlan(ctx, actorID, role, studentID)
	switch {
	case err == nil:
		prompt.Plan = &ai.PlanFact{
			Title:     active.Title,
			Completed: active.Progress.Completed,
			Total:     active.Progress.Total,
			Percent:   active.Progress.Percent,
		}
	case !errors.Is(err, ErrNoActivePlan):
		return nil, err
	}

	completion, err := s.complete(ctx, ai.PromptPerformanceAnalysis, prompt)
	if err != nil {
		return nil, err
	}
	return renderGeneratedText(completion)
}

func (s *AIService) workoutPrompt(
	ctx context.Context,
	actorID int64,
	role string,
	input GenerateWorkoutPlanInput,
) (ai.WorkoutPlanPrompt, error) {
	goal := strings.TrimSpace(input.Goal)
	if goal == "" {
		return ai.WorkoutPlanPrompt{}, fmt.Errorf("%w: goal is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(goal) > maxGoalLength {
		return ai.WorkoutPlanPrompt{}, fmt.Errorf("%w: goal is too long", ErrInvalidInput)
	}
	level := strings.ToLower(strings.TrimSpace(input.Level))
	if _, ok := planLevels[level]; !ok {
		return ai.WorkoutPlanPrompt{}, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, input.Level)
	}
	if input.DaysPerWeek < 1 || input.DaysPerWeek > maxDayOfWeek {
		return ai.WorkoutPlanPrompt{}, fmt.Errorf("%w: days_per_week must be between 1 and 7", ErrInvalidInput)
	}
	if input.SessionMinutes < 15 || input.SessionMinutes > 180 {
		return ai.WorkoutPlanPrompt{}, fmt.Errorf("%w: session_minutes must be between 15 and 180", ErrInvalidInput)
	}
	if input.DurationWeeks < 0 || input.DurationWeeks > maxPlanDurationWeeks {
		return ai.WorkoutPlanPrompt{}, fmt.Errorf("%w: duration_weeks out of range", ErrInvalidInput)
	}
	if len(input.Equipment) > maxEquipmentItems {
		return ai.WorkoutPlanPrompt{}, fmt.Errorf("%w: too many equipment items", ErrInvalidInput)
	}

	equipment := make([]string, 0, len(input.Equipment))
	for _, item := range input.Equipment {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			equipment = append(equipment, trimmed)
		}
	}

	prompt := ai.WorkoutPlanPrompt{
		DurationHint:   strconv.Itoa(weeksOrDefault(input.DurationWeeks)) + "-week",
		Goal:           goal,
		Level:          level,
		DaysPerWeek:    input.DaysPerWeek,
		SessionMinutes: input.SessionMinutes,
		Equipment:      equipment,
	}

	if input.StudentID != 0 {
		if err := s.access.check(ctx, actorID, role, input.StudentID); err != nil {
			return ai.WorkoutPlanPrompt{}, err
		}
		profile, err := s.profileRepo.GetByUserID(ctx, input.StudentID)
		switch {
		case err == nil:
			prompt.Profile = s.athleteFacts(profile)
		case !errors.Is(err, pgx.ErrNoRows):
			return ai.WorkoutPlanPrompt{}, err
		}
	}
	return prompt, nil
}

func (s *AIService) athleteFacts(profile *models.Profile) *ai.AthleteFacts {
	facts := &ai.AthleteFacts{}
	if profile.Gender != nil {
		facts.Gender = *profile.Gender
	}
	if profile.BirthYear != nil && *profile.BirthYear > 0 {
		facts.Age = s.now().Year() - *profile.BirthYear
	}
	if profile.HeightCM != nil {
		facts.HeightCM = *profile.HeightCM
	}
	if profile.Goals != nil {
		facts.Goals = *profile.Goals
	}
	return facts
}

func (s *AIService) displayName(ctx context.Context, studentID int64) string {
	fallback := "the athlete"
	if user, err := s.userRepo.GetByID(ctx, studentID); err == nil {
		fallback = user.Email
	}
	profile, err := s.profileRepo.GetByUserID(ctx, studentID)
	if err != nil {
		return fallback
	}
	return profile.DisplayName(fallback)
}

func (s *AIService) complete(ctx context.Context, promptName string, data any) (string, error) {
	system, user, err := s.prompts.Render(promptName, data)
	if err != nil {
		return "", err
	}
	started := time.Now()
	completion, err := s.client.Complete(ctx, system, user)
	if err != nil {
		logger.L().Error("llm completion failed",
			zap.String("prompt", promptName),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	logger.L().Info("llm completion",
		zap.String("prompt", promptName),
		zap.Duration("took", time.Since(started)),
		zap.Int("chars", len(completion)),
	)
	return completion, nil
}

// reps arrives as "8-12" or as a bare number depending on the model.
type flexibleString string

func (f *flexibleString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*f = flexibleString(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return err
	}
	*f = flexibleString(number.String())
	return nil
}

type generatedExercise struct {
	Name        string         `json:"name"`
	Sets        int            `json:"sets"`
	Reps        flexibleString `json:"reps"`
	RestSeconds int            `json:"rest_seconds"`
	Notes       string         `json:"notes"`
}

type generatedDay struct {
	Name      string              `json:"name"`
	DayOfWeek int                 `json:"day_of_week"`
	Exercises []generatedExercise `json:"exercises"`
}

type generatedPlanPayload struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	DurationWeeks int            `json:"duration_weeks"`
	Days          []generatedDay `json:"days"`
}

func parseGeneratedPlan(completion string) (PlanInput, error) {
	raw, err := ai.ExtractJSON(completion)
	if err != nil {
		return PlanInput{}, fmt.Errorf("%w: %v", ErrAIBadResponse, err)
	}
	var payload generatedPlanPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return PlanInput{}, fmt.Errorf("%w: %v", ErrAIBadResponse, err)
	}
	if len(payload.Days) == 0 {
		return PlanInput{}, fmt.Errorf("%w: plan has no days", ErrAIBadResponse)
	}

	schedule := make(models.Schedule, 0, len(payload.Days))
	for _, day := range payload.Days {
		exercises := make([]models.PlanExercise, 0, len(day.Exercises))
		for _, exercise := range day.Exercises {
			planExercise := models.PlanExercise{
				Name:        exercise.Name,
				Sets:        exercise.Sets,
				Reps:        string(exercise.Reps),
				RestSeconds: exercise.RestSeconds,
			}
			if notes := strings.TrimSpace(exercise.Notes); notes != "" {
				planExercise.Notes = &notes
			}
			exercises = append(exercises, planExercise)
		}
		schedule = append(schedule, models.WorkoutDay{
			Name:      day.Name,
			DayOfWeek: day.DayOfWeek,
			Exercises: exercises,
		})
	}

	input := PlanInput{
		Title:         payload.Title,
		DurationWeeks: payload.DurationWeeks,
		Schedule:      schedule,
	}
	if description := strings.TrimSpace(payload.Description); description != "" {
		input.Description = &description
	}
	return input, nil
}

func renderGeneratedText(markdown string) (*GeneratedText, error) {
	markdown = strings.TrimSpace(markdown)
	html, err := ai.RenderMarkdown(markdown)
	if err != nil {
		return nil, err
	}
	return &GeneratedText{Markdown: markdown, HTML: html}, nil
}

func weeksOrDefault(weeks int) int {
	if weeks <= 0 {
		return defaultGeneratedWeeks
	}
	return weeks
}
