package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
)

type stubDashboardPlans struct {
	active    *models.WorkoutPlan
	activeErr error
	templates int
}

func (s *stubDashboardPlans) GetActive(_ context.Context, _ int64) (*models.WorkoutPlan, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	if s.active == nil {
		return nil, pgx.ErrNoRows
	}
	return s.active, nil
}

func (s *stubDashboardPlans) CountByOwner(_ context.Context, _ int64, _ models.PlanKind) (int, error) {
	return s.templates, nil
}

type stubOpenTasks int

func (s stubOpenTasks) CountOpen(_ context.Context, _ int64) (int, error) {
	return int(s), nil
}

type stubRosterLister struct {
	entries []models.RosterEntry
}

func (s *stubRosterLister) List(_ context.Context, _ int64, _ string) ([]models.RosterEntry, error) {
	return s.entries, nil
}

type stubFinance struct {
	months  int
	pending float64
	overdue float64
}

func (s *stubFinance) Summary(_ context.Context, _ int64, _ string, months int) (*models.FinanceSummary, error) {
	s.months = months
	return &models.FinanceSummary{Net: 10}, nil
}

func (s *stubFinance) StudentBalance(_ context.Context, _ int64) (float64, float64, error) {
	return s.pending, s.overdue, nil
}

func TestDashboardServiceStudentOverview(t *testing.T) {
	plans := &stubDashboardPlans{active: &models.WorkoutPlan{
		ID: 6, Kind: models.PlanKindInstance, OwnerID: 42,
		Schedule: models.Schedule{{ID: "d", Exercises: []models.PlanExercise{{ID: "e", Completed: true}, {ID: "f"}}}},
	}}
	service := NewDashboardService(plans, &stubMetricRepo{entries: sampleMetrics()}, stubOpenTasks(2), &stubRosterLister{}, &stubFinance{pending: 40, overdue: 20})

	result, err := service.Overview(context.Background(), 42, models.RoleStudent)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	dashboard, ok := result.(*models.StudentDashboard)
	if !ok {
		t.Fatalf("expected student dashboard, got %T", result)
	}
	if dashboard.ActivePlan == nil || dashboard.ActivePlan.Progress.Percent != 50 {
		t.Fatalf("unexpected active plan %+v", dashboard.ActivePlan)
	}
	if dashboard.LatestMetric == nil || dashboard.LatestMetric.ID != 3 {
		t.Fatalf("unexpected latest metric %+v", dashboard.LatestMetric)
	}
	if dashboard.OpenTasks != 2 || dashboard.AmountDue != 40 || dashboard.OverdueAmount != 20 {
		t.Fatalf("unexpected counters %+v", dashboard)
	}
}

func TestDashboardServiceStudentWithoutData(t *testing.T) {
	service := NewDashboardService(&stubDashboardPlans{}, &stubMetricRepo{}, stubOpenTasks(0), &stubRosterLister{}, &stubFinance{})

	dashboard, err := service.Student(context.Background(), 42)
	if err != nil {
		t.Fatalf("Student: %v", err)
	}
	if dashboard.ActivePlan != nil || dashboard.LatestMetric != nil {
		t.Fatalf("expected empty dashboard, got %+v", dashboard)
	}

	failing := NewDashboardService(&stubDashboardPlans{activeErr: errors.New("boom")}, &stubMetricRepo{}, stubOpenTasks(0), &stubRosterLister{}, &stubFinance{})
	if _, err := failing.Student(context.Background(), 42); err == nil {
		t.Fatalf("expected plan lookup error surfaced")
	}
}

func TestDashboardServiceStaffOverview(t *testing.T) {
	finance := &stubFinance{}
	roster := &stubRosterLister{entries: []models.RosterEntry{
		{Progress: &models.PlanProgress{Percent: 40}},
		{Progress: &models.PlanProgress{Percent: 81}},
		{},
	}}
	service := NewDashboardService(&stubDashboardPlans{templates: 4}, &stubMetricRepo{}, stubOpenTasks(3), roster, finance)

	result, err := service.Overview(context.Background(), 7, models.RoleGym)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	dashboard := result.(*models.StaffDashboard)
	if dashboard.RosterSize != 3 || dashboard.TemplateCount != 4 || dashboard.OpenTasks != 3 {
		t.Fatalf("unexpected counters %+v", dashboard)
	}
	if dashboard.AverageProgress != 61 {
		t.Fatalf("expected average 61, got %d", dashboard.AverageProgress)
	}
	if finance.months != 1 || dashboard.Finance == nil {
		t.Fatalf("expected current month finance, got %d", finance.months)
	}

	if _, err := service.Overview(context.Background(), 7, "admin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDashboardServiceStaffFinanceCoversCurrentMonth(t *testing.T) {
	lastYear := time.Date(2029, 3, 20, 9, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)
	repo := &stubTransactionRepo{rows: []models.Transaction{
		{Kind: models.TransactionIncome, Status: models.TransactionPaid, Amount: 5000, PaidAt: &lastYear, CreatedAt: lastYear},
		{Kind: models.TransactionExpense, Status: models.TransactionPaid, Amount: 900, PaidAt: &lastYear, CreatedAt: lastYear},
		{Kind: models.TransactionIncome, Status: models.TransactionOverdue, Amount: 70, DueDate: &lastYear, CreatedAt: lastYear},
		{Kind: models.TransactionIncome, Status: models.TransactionPaid, Amount: 300, PaidAt: &thisMonth, CreatedAt: lastYear},
		{Kind: models.TransactionExpense, Status: models.TransactionPaid, Amount: 120, PaidAt: &thisMonth, CreatedAt: thisMonth},
		{Kind: models.TransactionIncome, Status: models.TransactionPending, Amount: 45, DueDate: &thisMonth, CreatedAt: thisMonth},
	}}
	service := NewDashboardService(&stubDashboardPlans{}, &stubMetricRepo{}, stubOpenTasks(0), &stubRosterLister{}, newFinanceService(repo))

	result, err := service.Overview(context.Background(), 7, models.RoleTrainer)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	finance := result.(*models.StaffDashboard).Finance
	if !repo.totalsSince.Equal(time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected totals window %s", repo.totalsSince)
	}
	if finance.PaidIncome != 300 || finance.PaidExpenses != 120 || finance.Net != 180 {
		t.Fatalf("expected current month paid totals only, got %+v", finance)
	}
	if finance.PendingIncome != 45 || finance.OverdueIncome != 0 {
		t.Fatalf("expected current month open income only, got %+v", finance)
	}
}
