package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/saeid-a/GymDashBack/internal/models"
)

type stubRosterStore struct {
	addErr    error
	removed   bool
	members   []models.RosterMember
	lastAdded [2]int64
}

func (s *stubRosterStore) Add(_ context.Context, staffID, studentID int64) error {
	s.lastAdded = [2]int64{staffID, studentID}
	return s.addErr
}

func (s *stubRosterStore) Remove(_ context.Context, _, _ int64) (bool, error) {
	return s.removed, nil
}

func (s *stubRosterStore) Contains(_ context.Context, _, _ int64) (bool, error) {
	return false, nil
}

func (s *stubRosterStore) Count(_ context.Context, _ int64) (int, error) {
	return len(s.members), nil
}

func (s *stubRosterStore) List(_ context.Context, _ int64) ([]models.RosterMember, error) {
	return s.members, nil
}

type stubEmailUsers map[string]*models.User

func (s stubEmailUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

type stubActivePlans struct {
	plans   map[int64]models.WorkoutPlan
	lastIDs []int64
}

func (s *stubActivePlans) ListActiveForStudents(_ context.Context, studentIDs []int64) (map[int64]models.WorkoutPlan, error) {
	s.lastIDs = studentIDs
	return s.plans, nil
}

func rosterUsers() stubEmailUsers {
	return stubEmailUsers{
		"sam@example.com":   {ID: 42, Email: "sam@example.com", Role: models.RoleStudent},
		"coach@example.com": {ID: 8, Email: "coach@example.com", Role: models.RoleTrainer},
	}
}

func TestRosterServiceAdd(t *testing.T) {
	store := &stubRosterStore{}
	service := NewRosterService(store, rosterUsers(), &stubActivePlans{})

	student, err := service.Add(context.Background(), 7, models.RoleTrainer, "  Sam@Example.com ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if student.ID != 42 || store.lastAdded != [2]int64{7, 42} {
		t.Fatalf("unexpected add %+v %v", student, store.lastAdded)
	}

	if _, err := service.Add(context.Background(), 7, models.RoleTrainer, "coach@example.com"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected non-student rejected, got %v", err)
	}
	if _, err := service.Add(context.Background(), 7, models.RoleTrainer, "nobody@example.com"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
	if _, err := service.Add(context.Background(), 42, models.RoleStudent, "sam@example.com"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	store.addErr = &pgconn.PgError{Code: "23505"}
	if _, err := service.Add(context.Background(), 7, models.RoleGym, "sam@example.com"); !errors.Is(err, ErrAlreadyInRoster) {
		t.Fatalf("expected ErrAlreadyInRoster, got %v", err)
	}
}

func TestRosterServiceRemove(t *testing.T) {
	store := &stubRosterStore{}
	service := NewRosterService(store, rosterUsers(), &stubActivePlans{})

	if err := service.Remove(context.Background(), 7, models.RoleTrainer, 42); !errors.Is(err, ErrNotInRoster) {
		t.Fatalf("expected ErrNotInRoster, got %v", err)
	}
	store.removed = true
	if err := service.Remove(context.Background(), 7, models.RoleTrainer, 42); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestRosterServiceListAttachesProgress(t *testing.T) {
	store := &stubRosterStore{members: []models.RosterMember{
		{StaffID: 7, StudentID: 42, Email: "sam@example.com"},
		{StaffID: 7, StudentID: 43, Email: "kai@example.com"},
	}}
	plans := &stubActivePlans{plans: map[int64]models.WorkoutPlan{
		42: {ID: 6, Schedule: models.Schedule{{Exercises: []models.PlanExercise{{Completed: true}, {}, {}, {}}}}},
	}}
	service := NewRosterService(store, rosterUsers(), plans)

	entries, err := service.List(context.Background(), 7, models.RoleTrainer)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plans.lastIDs) != 2 {
		t.Fatalf("expected batched plan lookup, got %v", plans.lastIDs)
	}
	if entries[0].ActivePlanID == nil || *entries[0].ActivePlanID != 6 || entries[0].Progress.Percent != 25 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].ActivePlanID != nil || entries[1].Progress != nil {
		t.Fatalf("expected no plan for second entry, got %+v", entries[1])
	}
	if AverageProgress(entries) != 25 {
		t.Fatalf("expected average 25, got %d", AverageProgress(entries))
	}
}
