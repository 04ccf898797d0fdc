package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/logger"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
	"go.uber.org/zap"
)

const (
	maxPlanTitleLength   = 120
	maxPlanDurationWeeks = 104
	maxExerciseSets      = 50
	maxDayOfWeek         = 7
)

var planLevels = map[string]struct{}{
	"beginner":     {},
	"intermediate": {},
	"advanced":     {},
}

type workoutPlanStore interface {
	Create(ctx context.Context, input repository.CreatePlanInput) (*models.WorkoutPlan, error)
	CreateInstance(ctx context.Context, input repository.CreatePlanInput, activate bool) (*models.WorkoutPlan, error)
	GetByID(ctx context.Context, planID int64) (*models.WorkoutPlan, error)
	ListByOwner(ctx context.Context, ownerID int64, kind models.PlanKind) ([]models.WorkoutPlan, error)
	UpdateTemplate(ctx context.Context, planID int64, input repository.UpdatePlanInput) (*models.WorkoutPlan, error)
	MutateSchedule(ctx context.Context, planID int64, mutate repository.ScheduleMutation) (*models.WorkoutPlan, error)
	Delete(ctx context.Context, planID int64) (bool, error)
	SetActive(ctx context.Context, studentID, planID int64) error
	GetActive(ctx context.Context, studentID int64) (*models.WorkoutPlan, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type profileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

// PlanEventPublisher fans plan events out to connected clients.
type PlanEventPublisher interface {
	Publish(event models.PlanEvent)
}

type PlanInput struct {
	Title         string
	Description   *string
	Goal          *string
	Level         *string
	DurationWeeks int
	Schedule      models.Schedule
}

type AssignPlanInput struct {
	StudentID int64
	Activate  bool
}

type PlanService struct {
	planRepo    workoutPlanStore
	userRepo    userReader
	profileRepo profileReader
	access      studentAccess
	notifier    PlanNotifier
	publisher   PlanEventPublisher
	newID       func() string
	now         func() time.Time
}

func NewPlanService(
	planRepo workoutPlanStore,
	userRepo userReader,
	profileRepo profileReader,
	roster rosterChecker,
	notifier PlanNotifier,
	publisher PlanEventPublisher,
) *PlanService {
	return &PlanService{
		planRepo:    planRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		access:      studentAccess{roster: roster},
		notifier:    notifier,
		publisher:   publisher,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

func (s *PlanService) CreateTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	input PlanInput,
) (*models.PlanDetail, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	normalized, err := s.normalizePlanInput(input)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.Create(ctx, repository.CreatePlanInput{
		Kind:          models.PlanKindTemplate,
		OwnerID:       actorID,
		AuthorID:      actorID,
		Title:         normalized.Title,
		Description:   normalized.Description,
		Goal:          normalized.Goal,
		Level:         normalized.Level,
		DurationWeeks: normalized.DurationWeeks,
		Schedule:      normalized.Schedule,
	})
	if err != nil {
		return nil, err
	}
	return models.NewPlanDetail(plan), nil
}

func (s *PlanService) ListTemplates(ctx context.Context, actorID int64, role string) ([]models.PlanDetail, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	plans, err := s.planRepo.ListByOwner(ctx, actorID, models.PlanKindTemplate)
	if err != nil {
		return nil, err
	}
	return planDetails(plans), nil
}

func (s *PlanService) GetPlan(ctx context.Context, actorID int64, role string, planID int64) (*models.PlanDetail, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPlanAccess(ctx, actorID, role, plan); err != nil {
		return nil, err
	}
	return models.NewPlanDetail(plan), nil
}

func (s *PlanService) UpdateTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	input PlanInput,
) (*models.PlanDetail, error) {
	if _, err := s.ownedTemplate(ctx, actorID, role, planID); err != nil {
		return nil, err
	}
	normalized, err := s.normalizePlanInput(input)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.UpdateTemplate(ctx, planID, repository.UpdatePlanInput{
		Title:         normalized.Title,
		Description:   normalized.Description,
		Goal:          normalized.Goal,
		Level:         normalized.Level,
		DurationWeeks: normalized.DurationWeeks,
		Schedule:      normalized.Schedule,
	})
	if err != nil {
		return nil, err
	}
	return models.NewPlanDetail(plan), nil
}

func (s *PlanService) DuplicateTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
) (*models.PlanDetail, error) {
	template, err := s.ownedTemplate(ctx, actorID, role, planID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planRepo.Create(ctx, repository.CreatePlanInput{
		Kind:          models.PlanKindTemplate,
		OwnerID:       actorID,
		AuthorID:      actorID,
		Title:         copyTitle(template.Title),
		Description:   template.Description,
		Goal:          template.Goal,
		Level:         template.Level,
		DurationWeeks: template.DurationWeeks,
		Schedule:      template.Schedule.Clone(s.newID),
	})
	if err != nil {
		return nil, err
	}
	return models.NewPlanDetail(plan), nil
}

func (s *PlanService) DeleteTemplate(ctx context.Context, actorID int64, role string, planID int64) error {
	if _, err := s.ownedTemplate(ctx, actorID, role, planID); err != nil {
		return err
	}
	deleted, err := s.planRepo.Delete(ctx, planID)
	if err != nil {
		return err
	}
	if !deleted {
		return pgx.ErrNoRows
	}
	return nil
}

// AssignTemplate copies a template into a new instance owned by the student.
func (s *PlanService) AssignTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	templateID int64,
	input AssignPlanInput,
) (*models.PlanDetail, error) {
	template, err := s.ownedTemplate(ctx, actorID, role, templateID)
	if err != nil {
		return nil, err
	}
	if input.StudentID <= 0 {
		return nil, ErrInvalidInput
	}

	student, err := s.userRepo.GetByID(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: plans can only be assigned to students", ErrInvalidInput)
	}
	if err := s.access.check(ctx, actorID, role, student.ID); err != nil {
		return nil, err
	}

	sourceID := template.ID
	instance, err := s.planRepo.CreateInstance(ctx, repository.CreatePlanInput{
		Kind:             models.PlanKindInstance,
		OwnerID:          student.ID,
		AuthorID:         actorID,
		SourceTemplateID: &sourceID,
		Title:            template.Title,
		Description:      template.Description,
		Goal:             template.Goal,
		Level:            template.Level,
		DurationWeeks:    template.DurationWeeks,
		Schedule:         template.Schedule.Clone(s.newID),
	}, input.Activate)
	if err != nil {
		return nil, err
	}

	detail := models.NewPlanDetail(instance)
	s.publish(models.PlanEventAssigned, detail, student.ID, actorID)
	s.notifyAssigned(ctx, actorID, student, instance)
	return detail, nil
}

func (s *PlanService) ListStudentPlans(
	ctx context.Context,
	actorID int64,
	role string,
	studentID int64,
) ([]models.PlanDetail, error) {
	if err := s.access.check(ctx, actorID, role, studentID); err != nil {
		return nil, err
	}
	plans, err := s.planRepo.ListByOwner(ctx, studentID, models.PlanKindInstance)
	if err != nil {
		return nil, err
	}
	return planDetails(plans), nil
}

func (s *PlanService) GetActivePlan(
	ctx context.Context,
	actorID int64,
	role string,
	studentID int64,
) (*models.PlanDetail, error) {
	if err := s.access.check(ctx, actorID, role, studentID); err != nil {
		return nil, err
	}
	plan, err := s.planRepo.GetActive(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	return models.NewPlanDetail(plan), nil
}

func (s *PlanService) SetActivePlan(
	ctx context.Context,
	actorID int64,
	role string,
	studentID int64,
	planID int64,
) (*models.PlanDetail, error) {
	if err := s.access.check(ctx, actorID, role, studentID); err != nil {
		return nil, err
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsInstance() || plan.OwnerID != studentID {
		return nil, fmt.Errorf("%w: plan does not belong to student", ErrInvalidInput)
	}
	if err := s.planRepo.SetActive(ctx, studentID, planID); err != nil {
		return nil, err
	}
	return models.NewPlanDetail(plan), nil
}

// SetExerciseCompletion toggles one exercise of the student's own plan.
func (s *PlanService) SetExerciseCompletion(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
	exerciseID string,
	completed bool,
) (*models.PlanDetail, error) {
	if role != models.RoleStudent {
		return nil, ErrForbidden
	}
	exerciseID = strings.TrimSpace(exerciseID)
	if exerciseID == "" {
		return nil, ErrInvalidInput
	}

	at := s.now()
	plan, err := s.planRepo.MutateSchedule(ctx, planID, func(plan *models.WorkoutPlan) (models.Schedule, error) {
		if !plan.IsInstance() {
			return nil, ErrInvalidStateTransition
		}
		if plan.OwnerID != actorID {
			return nil, ErrForbidden
		}
		next, found := plan.Schedule.SetCompletion(exerciseID, completed, at)
		if !found {
			return nil, fmt.Errorf("%w: exercise %s", ErrNotFound, exerciseID)
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	detail := models.NewPlanDetail(plan)
	s.publish(models.PlanEventProgress, detail, plan.OwnerID, plan.AuthorID)
	return detail, nil
}

// ResetPlanProgress clears every completion flag of an instance.
func (s *PlanService) ResetPlanProgress(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
) (*models.PlanDetail, error) {
	current, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !current.IsInstance() {
		return nil, ErrInvalidStateTransition
	}
	if err := s.checkPlanAccess(ctx, actorID, role, current); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.MutateSchedule(ctx, planID, func(plan *models.WorkoutPlan) (models.Schedule, error) {
		return plan.Schedule.ResetCompletion(), nil
	})
	if err != nil {
		return nil, err
	}

	detail := models.NewPlanDetail(plan)
	s.publish(models.PlanEventReset, detail, plan.OwnerID, plan.AuthorID)
	return detail, nil
}

func (s *PlanService) ownedTemplate(
	ctx context.Context,
	actorID int64,
	role string,
	planID int64,
) (*models.WorkoutPlan, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsTemplate() {
		return nil, ErrInvalidStateTransition
	}
	if plan.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return plan, nil
}

func (s *PlanService) checkPlanAccess(ctx context.Context, actorID int64, role string, plan *models.WorkoutPlan) error {
	if plan.IsTemplate() {
		if models.IsStaffRole(role) && plan.OwnerID == actorID {
			return nil
		}
		return ErrForbidden
	}
	// Authoring an instance grants nothing once the student leaves the roster.
	if err := s.access.check(ctx, actorID, role, plan.OwnerID); err != nil {
		if errors.Is(err, ErrNotInRoster) {
			return ErrForbidden
		}
		return err
	}
	return nil
}

func (s *PlanService) normalizePlanInput(input PlanInput) (PlanInput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return PlanInput{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxPlanTitleLength {
		return PlanInput{}, fmt.Errorf("%w: title is too long", ErrInvalidInput)
	}
	if input.DurationWeeks < 0 || input.DurationWeeks > maxPlanDurationWeeks {
		return PlanInput{}, fmt.Errorf("%w: duration_weeks out of range", ErrInvalidInput)
	}

	level := trimOptional(input.Level)
	if level != nil {
		lowered := strings.ToLower(*level)
		if _, ok := planLevels[lowered]; !ok {
			return PlanInput{}, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, *level)
		}
		level = &lowered
	}

	schedule := make(models.Schedule, len(input.Schedule))
	for i, day := range input.Schedule {
		day.Exercises = append([]models.PlanExercise(nil), day.Exercises...)
		schedule[i] = day
	}
	for i := range schedule {
		day := &schedule[i]
		day.Name = strings.TrimSpace(day.Name)
		if day.Name == "" {
			return PlanInput{}, fmt.Errorf("%w: day %d needs a name", ErrInvalidInput, i+1)
		}
		if day.DayOfWeek < 0 || day.DayOfWeek > maxDayOfWeek {
			return PlanInput{}, fmt.Errorf("%w: day %q has invalid day_of_week", ErrInvalidInput, day.Name)
		}
		for j := range day.Exercises {
			exercise := &day.Exercises[j]
			exercise.Name = strings.TrimSpace(exercise.Name)
			exercise.Reps = strings.TrimSpace(exercise.Reps)
			exercise.Notes = trimOptional(exercise.Notes)
			switch {
			case exercise.Name == "":
				return PlanInput{}, fmt.Errorf("%w: exercise %d of %q needs a name", ErrInvalidInput, j+1, day.Name)
			case exercise.Sets < 1 || exercise.Sets > maxExerciseSets:
				return PlanInput{}, fmt.Errorf("%w: %q sets out of range", ErrInvalidInput, exercise.Name)
			case exercise.Reps == "":
				return PlanInput{}, fmt.Errorf("%w: %q needs reps", ErrInvalidInput, exercise.Name)
			case exercise.RestSeconds < 0:
				return PlanInput{}, fmt.Errorf("%w: %q rest_seconds must not be negative", ErrInvalidInput, exercise.Name)
			case exercise.WeightKG != nil && *exercise.WeightKG < 0:
				return PlanInput{}, fmt.Errorf("%w: %q weight_kg must not be negative", ErrInvalidInput, exercise.Name)
			}
		}
	}

	return PlanInput{
		Title:         title,
		Description:   trimOptional(input.Description),
		Goal:          trimOptional(input.Goal),
		Level:         level,
		DurationWeeks: input.DurationWeeks,
		Schedule:      uniqueIDs(schedule).Normalize(s.newID),
	}, nil
}

func (s *PlanService) publish(eventType string, detail *models.PlanDetail, recipients ...int64) {
	if s.publisher == nil || detail == nil {
		return
	}
	progress := detail.Progress
	s.publisher.Publish(models.PlanEvent{
		Type:       eventType,
		PlanID:     detail.ID,
		StudentID:  detail.OwnerID,
		Progress:   &progress,
		Timestamp:  s.now().UTC(),
		Recipients: recipients,
	})
}

func (s *PlanService) notifyAssigned(ctx context.Context, actorID int64, student *models.User, plan *models.WorkoutPlan) {
	if s.notifier == nil {
		return
	}

	email := PlanAssignedEmail{
		To:          student.Email,
		StudentName: student.Email,
		StaffName:   "Your coach",
		PlanTitle:   plan.Title,
		PlanID:      plan.ID,
	}
	if s.profileRepo != nil {
		if profile, err := s.profileRepo.GetByUserID(ctx, student.ID); err == nil {
			email.StudentName = profile.DisplayName(student.Email)
		}
		if profile, err := s.profileRepo.GetByUserID(ctx, actorID); err == nil {
			email.StaffName = profile.DisplayName(email.StaffName)
		}
	}

	if err := s.notifier.PlanAssigned(ctx, email); err != nil {
		logger.L().Warn("plan assignment email failed",
			zap.Error(err),
			zap.Int64("plan_id", plan.ID),
			zap.Int64("student_id", student.ID),
		)
	}
}

// uniqueIDs blanks repeated day or exercise ids so Normalize regenerates them.
func uniqueIDs(schedule models.Schedule) models.Schedule {
	seen := make(map[string]struct{})
	out := make(models.Schedule, len(schedule))
	for i, day := range schedule {
		if _, dup := seen[day.ID]; dup {
			day.ID = ""
		} else if day.ID != "" {
			seen[day.ID] = struct{}{}
		}
		exercises := make([]models.PlanExercise, len(day.Exercises))
		for j, exercise := range day.Exercises {
			if _, dup := seen[exercise.ID]; dup {
				exercise.ID = ""
			} else if exercise.ID != "" {
				seen[exercise.ID] = struct{}{}
			}
			exercises[j] = exercise
		}
		day.Exercises = exercises
		out[i] = day
	}
	return out
}

func planDetails(plans []models.WorkoutPlan) []models.PlanDetail {
	details := make([]models.PlanDetail, 0, len(plans))
	for i := range plans {
		details = append(details, *models.NewPlanDetail(&plans[i]))
	}
	return details
}

func copyTitle(title string) string {
	copied := title + " (copy)"
	if utf8.RuneCountInString(copied) > maxPlanTitleLength {
		runes := []rune(title)
		keep := maxPlanTitleLength - utf8.RuneCountInString(" (copy)")
		copied = string(runes[:keep]) + " (copy)"
	}
	return copied
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
