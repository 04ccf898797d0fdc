package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type PlanKind string

const (
	PlanKindTemplate PlanKind = "template"
	PlanKindInstance PlanKind = "instance"
)

type WorkoutPlan struct {
	ID               int64     `json:"id"`
	Kind             PlanKind  `json:"kind"`
	OwnerID          int64     `json:"owner_id"`
	AuthorID         int64     `json:"author_id"`
	SourceTemplateID *int64    `json:"source_template_id,omitempty"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	Goal             *string   `json:"goal,omitempty"`
	Level            *string   `json:"level,omitempty"`
	DurationWeeks    int       `json:"duration_weeks"`
	Schedule         Schedule  `json:"schedule"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *WorkoutPlan) IsTemplate() bool {
	return p != nil && p.Kind == PlanKindTemplate
}

func (p *WorkoutPlan) IsInstance() bool {
	return p != nil && p.Kind == PlanKindInstance
}

type Schedule []WorkoutDay

type WorkoutDay struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	DayOfWeek int            `json:"day_of_week"`
	Exercises []PlanExercise `json:"exercises"`
}

type PlanExercise struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Sets        int        `json:"sets"`
	Reps        string     `json:"reps"`
	WeightKG    *float64   `json:"weight_kg,omitempty"`
	RestSeconds int        `json:"rest_seconds"`
	Notes       *string    `json:"notes,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type PlanProgress struct {
	PlanID    int64   `json:"plan_id"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
	Percent   int     `json:"percent"`
}

type PlanDetail struct {
	WorkoutPlan
	Progress PlanProgress `json:"progress"`
}

// Clone deep-copies the schedule, giving every day and exercise a fresh id
// from newID and clearing completion state.
func (s Schedule) Clone(newID func() string) Schedule {
	if s == nil {
		return Schedule{}
	}
	cloned := make(Schedule, 0, len(s))
	for _, day := range s {
		copiedDay := WorkoutDay{
			ID:        newID(),
			Name:      day.Name,
			DayOfWeek: day.DayOfWeek,
			Exercises: make([]PlanExercise, 0, len(day.Exercises)),
		}
		for _, exercise := range day.Exercises {
			copiedDay.Exercises = append(copiedDay.Exercises, PlanExercise{
				ID:          newID(),
				Name:        exercise.Name,
				Sets:        exercise.Sets,
				Reps:        exercise.Reps,
				WeightKG:    copyFloat(exercise.WeightKG),
				RestSeconds: exercise.RestSeconds,
				Notes:       copyString(exercise.Notes),
			})
		}
		cloned = append(cloned, copiedDay)
	}
	return cloned
}

// Normalize replaces missing or non-uuid ids and strips completion state.
// Templates are stored normalized.
func (s Schedule) Normalize(newID func() string) Schedule {
	normalized := make(Schedule, 0, len(s))
	for _, day := range s {
		if !isScheduleID(day.ID) {
			day.ID = newID()
		}
		exercises := make([]PlanExercise, 0, len(day.Exercises))
		for _, exercise := range day.Exercises {
			if !isScheduleID(exercise.ID) {
				exercise.ID = newID()
			}
			exercise.Completed = false
			exercise.CompletedAt = nil
			exercises = append(exercises, exercise)
		}
		day.Exercises = exercises
		normalized = append(normalized, day)
	}
	return normalized
}

// isScheduleID accepts only the canonical 36 character uuid form.
func isScheduleID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// ResetCompletion returns a copy with every exercise marked incomplete.
func (s Schedule) ResetCompletion() Schedule {
	reset := make(Schedule, 0, len(s))
	for _, day := range s {
		exercises := make([]PlanExercise, len(day.Exercises))
		copy(exercises, day.Exercises)
		for i := range exercises {
			exercises[i].Completed = false
			exercises[i].CompletedAt = nil
		}
		day.Exercises = exercises
		reset = append(reset, day)
	}
	return reset
}

// SetCompletion returns a copy with the matching exercise updated and whether
// it was found.
func (s Schedule) SetCompletion(exerciseID string, completed bool, at time.Time) (Schedule, bool) {
	found := false
	updated := make(Schedule, 0, len(s))
	for _, day := range s {
		exercises := make([]PlanExercise, len(day.Exercises))
		copy(exercises, day.Exercises)
		for i := range exercises {
			if exercises[i].ID != exerciseID {
				continue
			}
			found = true
			exercises[i].Completed = completed
			if completed {
				completedAt := at.UTC()
				exercises[i].CompletedAt = &completedAt
			} else {
				exercises[i].CompletedAt = nil
			}
		}
		day.Exercises = exercises
		updated = append(updated, day)
	}
	return updated, found
}

func (s Schedule) CountExercises() (completed int, total int) {
	for _, day := range s {
		for _, exercise := range day.Exercises {
			total++
			if exercise.Completed {
				completed++
			}
		}
	}
	return completed, total
}

func ComputeProgress(plan *WorkoutPlan) PlanProgress {
	if plan == nil {
		return PlanProgress{}
	}
	completed, total := plan.Schedule.CountExercises()
	progress := PlanProgress{PlanID: plan.ID, Completed: completed, Total: total}
	if total > 0 {
		progress.Ratio = float64(completed) / float64(total)
		progress.Percent = int(math.Round(progress.Ratio * 100))
	}
	return progress
}

func NewPlanDetail(plan *WorkoutPlan) *PlanDetail {
	if plan == nil {
		return nil
	}
	return &PlanDetail{WorkoutPlan: *plan, Progress: ComputeProgress(plan)}
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
