package models

import (
	"fmt"
	"testing"
	"time"
)

func sequentialIDs(prefix string) func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

func buildSchedule() Schedule {
	weight := 60.0
	notes := "slow eccentric"
	doneAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	return Schedule{
		{
			ID:        "day-a",
			Name:      "Push",
			DayOfWeek: 1,
			Exercises: []PlanExercise{
				{ID: "ex-1", Name: "Bench press", Sets: 4, Reps: "8", WeightKG: &weight, RestSeconds: 120, Notes: &notes, Completed: true, CompletedAt: &doneAt},
				{ID: "ex-2", Name: "Dips", Sets: 3, Reps: "10-12", RestSeconds: 90},
			},
		},
		{
			ID:        "day-b",
			Name:      "Pull",
			DayOfWeek: 3,
			Exercises: []PlanExercise{
				{ID: "ex-3", Name: "Rows", Sets: 4, Reps: "10", RestSeconds: 90, Completed: true, CompletedAt: &doneAt},
			},
		},
	}
}

func TestScheduleCloneAssignsFreshIDsAndResetsCompletion(t *testing.T) {
	source := buildSchedule()
	cloned := source.Clone(sequentialIDs("new"))

	if len(cloned) != 2 {
		t.Fatalf("expected 2 days, got %d", len(cloned))
	}
	seen := map[string]struct{}{}
	for _, day := range cloned {
		if day.ID == "day-a" || day.ID == "day-b" {
			t.Fatalf("expected fresh day id, got %q", day.ID)
		}
		seen[day.ID] = struct{}{}
		for _, exercise := range day.Exercises {
			if exercise.Completed || exercise.CompletedAt != nil {
				t.Fatalf("expected completion reset on %q", exercise.Name)
			}
			if _, dup := seen[exercise.ID]; dup {
				t.Fatalf("duplicate id %q", exercise.ID)
			}
			seen[exercise.ID] = struct{}{}
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 unique ids, got %d", len(seen))
	}
	if cloned[0].Exercises[0].Name != "Bench press" || cloned[0].Exercises[0].Reps != "8" {
		t.Fatalf("expected exercise fields copied, got %+v", cloned[0].Exercises[0])
	}
}

func TestScheduleCloneDoesNotShareMemory(t *testing.T) {
	source := buildSchedule()
	cloned := source.Clone(sequentialIDs("new"))

	*cloned[0].Exercises[0].WeightKG = 100
	*cloned[0].Exercises[0].Notes = "changed"
	cloned[0].Exercises[1].Name = "Changed"

	if *source[0].Exercises[0].WeightKG != 60 {
		t.Fatalf("template weight mutated through clone")
	}
	if *source[0].Exercises[0].Notes != "slow eccentric" {
		t.Fatalf("template notes mutated through clone")
	}
	if source[0].Exercises[1].Name != "Dips" {
		t.Fatalf("template exercise mutated through clone")
	}
}

func TestScheduleCloneOfNilIsEmpty(t *testing.T) {
	var source Schedule
	cloned := source.Clone(sequentialIDs("x"))
	if cloned == nil || len(cloned) != 0 {
		t.Fatalf("expected empty non-nil schedule, got %#v", cloned)
	}
}

const (
	legsDayID = "0f8fad5b-d9cb-469f-a165-70867728950e"
	curlID    = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

func TestScheduleNormalizeKeepsExistingIDs(t *testing.T) {
	source := Schedule{
		{ID: legsDayID, Name: "Legs", Exercises: []PlanExercise{{Name: "Squat", Sets: 5, Completed: true}}},
		{Name: "Arms", Exercises: []PlanExercise{{ID: curlID, Name: "Curl", Sets: 3}}},
	}
	normalized := source.Normalize(sequentialIDs("gen"))

	if normalized[0].ID != legsDayID {
		t.Fatalf("expected existing id kept, got %q", normalized[0].ID)
	}
	if normalized[0].Exercises[0].ID != "gen-1" {
		t.Fatalf("expected generated exercise id, got %q", normalized[0].Exercises[0].ID)
	}
	if normalized[0].Exercises[0].Completed {
		t.Fatalf("expected completion cleared")
	}
	if normalized[1].ID != "gen-2" || normalized[1].Exercises[0].ID != curlID {
		t.Fatalf("unexpected ids: %+v", normalized[1])
	}
	if !source[0].Exercises[0].Completed {
		t.Fatalf("expected source left untouched")
	}
}

func TestScheduleNormalizeReplacesClientIDs(t *testing.T) {
	source := Schedule{
		{ID: "monday", Name: "Legs", Exercises: []PlanExercise{
			{ID: "<script>", Name: "Squat", Sets: 5},
			{ID: "{" + curlID + "}", Name: "Curl", Sets: 3},
			{ID: "urn:uuid:" + curlID, Name: "Row", Sets: 3},
		}},
	}
	normalized := source.Normalize(sequentialIDs("gen"))

	if normalized[0].ID != "gen-1" {
		t.Fatalf("expected day id replaced, got %q", normalized[0].ID)
	}
	for i, want := range []string{"gen-2", "gen-3", "gen-4"} {
		if got := normalized[0].Exercises[i].ID; got != want {
			t.Fatalf("exercise %d: expected %s, got %q", i, want, got)
		}
	}
}

func TestScheduleSetCompletion(t *testing.T) {
	source := buildSchedule()
	at := time.Date(2031, 5, 6, 7, 8, 9, 0, time.UTC)

	updated, found := source.SetCompletion("ex-2", true, at)
	if !found {
		t.Fatalf("expected exercise found")
	}
	if !updated[0].Exercises[1].Completed || updated[0].Exercises[1].CompletedAt == nil || !updated[0].Exercises[1].CompletedAt.Equal(at) {
		t.Fatalf("expected exercise completed at %s, got %+v", at, updated[0].Exercises[1])
	}
	if source[0].Exercises[1].Completed {
		t.Fatalf("expected source schedule untouched")
	}

	cleared, found := updated.SetCompletion("ex-1", false, at)
	if !found || cleared[0].Exercises[0].Completed || cleared[0].Exercises[0].CompletedAt != nil {
		t.Fatalf("expected completion cleared, got %+v", cleared[0].Exercises[0])
	}

	if _, found := source.SetCompletion("missing", true, at); found {
		t.Fatalf("expected unknown exercise not found")
	}
}

func TestComputeProgress(t *testing.T) {
	plan := &WorkoutPlan{ID: 9, Schedule: buildSchedule()}
	progress := ComputeProgress(plan)

	if progress.PlanID != 9 || progress.Completed != 2 || progress.Total != 3 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if progress.Percent != 67 {
		t.Fatalf("expected 67 percent, got %d", progress.Percent)
	}

	empty := ComputeProgress(&WorkoutPlan{ID: 1})
	if empty.Total != 0 || empty.Ratio != 0 || empty.Percent != 0 {
		t.Fatalf("expected zero progress for empty plan, got %+v", empty)
	}

	reset := ComputeProgress(&WorkoutPlan{Schedule: buildSchedule().ResetCompletion()})
	if reset.Completed != 0 || reset.Total != 3 {
		t.Fatalf("expected reset progress 0/3, got %+v", reset)
	}
}
