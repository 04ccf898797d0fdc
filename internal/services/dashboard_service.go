package services

import (
	"context"

	"github.com/saeid-a/GymDashBack/internal/models"
)

type dashboardPlanReader interface {
	GetActive(ctx context.Context, studentID int64) (*models.WorkoutPlan, error)
	CountByOwner(ctx context.Context, ownerID int64, kind models.PlanKind) (int, error)
}

type latestMetricReader interface {
	GetLatest(ctx context.Context, studentID int64) (*models.BodyMetric, error)
}

type openTaskCounter interface {
	CountOpen(ctx context.Context, ownerID int64) (int, error)
}

type rosterLister interface {
	List(ctx context.Context, staffID int64, role string) ([]models.RosterEntry, error)
}

type financeReader interface {
	Summary(ctx context.Context, actorID int64, role string, months int) (*models.FinanceSummary, error)
	StudentBalance(ctx context.Context, studentID int64) (float64, float64, error)
}

type DashboardService struct {
	planRepo   dashboardPlanReader
	metricRepo latestMetricReader
	taskRepo   openTaskCounter
	roster     rosterLister
	finance    financeReader
}

func NewDashboardService(
	planRepo dashboardPlanReader,
	metricRepo latestMetricReader,
	taskRepo openTaskCounter,
	roster rosterLister,
	finance financeReader,
) *DashboardService {
	return &DashboardService{
		planRepo:   planRepo,
		metricRepo: metricRepo,
		taskRepo:   taskRepo,
		roster:     roster,
		finance:    finance,
	}
}

// Overview returns a StudentDashboard or StaffDashboard depending on role.
func (s *DashboardService) Overview(ctx context.Context, actorID int64, role string) (any, error) {
	switch {
	case role == models.RoleStudent:
		return s.Student(ctx, actorID)
	case models.IsStaffRole(role):
		return s.Staff(ctx, actorID, role)
	default:
		return nil, ErrForbidden
	}
}

func (s *DashboardService) Student(ctx context.Context, studentID int64) (*models.StudentDashboard, error) {
	dashboard := &models.StudentDashboard{}

	plan, err := s.planRepo.GetActive(ctx, studentID)
	switch {
	case err == nil:
		dashboard.ActivePlan = models.NewPlanDetail(plan)
	case !isNoRows(err):
		return nil, err
	}

	metric, err := s.metricRepo.GetLatest(ctx, studentID)
	switch {
	case err == nil:
		dashboard.LatestMetric = metric
	case !isNoRows(err):
		return nil, err
	}

	if dashboard.OpenTasks, err = s.taskRepo.CountOpen(ctx, studentID); err != nil {
		return nil, err
	}
	if dashboard.AmountDue, dashboard.OverdueAmount, err = s.finance.StudentBalance(ctx, studentID); err != nil {
		return nil, err
	}
	return dashboard, nil
}

func (s *DashboardService) Staff(ctx context.Context, staffID int64, role string) (*models.StaffDashboard, error) {
	entries, err := s.roster.List(ctx, staffID, role)
	if err != nil {
		return nil, err
	}
	dashboard := &models.StaffDashboard{
		RosterSize:      len(entries),
		AverageProgress: AverageProgress(entries),
	}

	if dashboard.TemplateCount, err = s.planRepo.CountByOwner(ctx, staffID, models.PlanKindTemplate); err != nil {
		return nil, err
	}
	if dashboard.OpenTasks, err = s.taskRepo.CountOpen(ctx, staffID); err != nil {
		return nil, err
	}
	if dashboard.Finance, err = s.finance.Summary(ctx, staffID, role, 1); err != nil {
		return nil, err
	}
	return dashboard, nil
}
