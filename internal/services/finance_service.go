package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/logger"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSummaryMonths = 6
	maxSummaryMonths     = 24
	maxCategoryLength    = 60
	// amount is NUMERIC(12,2)
	maxTransactionAmount = 1e10
)

type transactionStore interface {
	Create(ctx context.Context, input repository.CreateTransactionInput) (*models.Transaction, error)
	GetByID(ctx context.Context, transactionID int64) (*models.Transaction, error)
	List(ctx context.Context, filter repository.TransactionFilter) ([]models.Transaction, int, error)
	MarkPaidIfOpen(ctx context.Context, transactionID int64) (*models.Transaction, error)
	FlagOverdue(ctx context.Context, now time.Time) (int64, error)
	Totals(ctx context.Context, ownerID int64, since time.Time) (*repository.FinanceTotals, error)
	MonthlyPaidTotals(ctx context.Context, ownerID int64, since time.Time) (map[string]models.MonthlyTotals, error)
	StudentBalance(ctx context.Context, studentID int64) (float64, float64, error)
}

type CreateTransactionInput struct {
	StudentID   *int64
	Kind        string
	Category    string
	Amount      float64
	Status      string
	Description *string
	DueDate     *time.Time
}

type ListTransactionsInput struct {
	Status    string
	Kind      string
	StudentID int64
	Limit     int
	Offset    int
}

type FinanceService struct {
	transactionRepo transactionStore
	access          studentAccess
	now             func() time.Time
}

func NewFinanceService(transactionRepo transactionStore, roster rosterChecker) *FinanceService {
	return &FinanceService{
		transactionRepo: transactionRepo,
		access:          studentAccess{roster: roster},
		now:             time.Now,
	}
}

func (s *FinanceService) Create(
	ctx context.Context,
	actorID int64,
	role string,
	input CreateTransactionInput,
) (*models.Transaction, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}

	switch input.Kind {
	case models.TransactionIncome, models.TransactionExpense:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, input.Kind)
	}

	status := defaultString(input.Status, models.TransactionPending)
	if status != models.TransactionPending && status != models.TransactionPaid {
		return nil, fmt.Errorf("%w: new transactions are pending or paid", ErrInvalidInput)
	}

	category := strings.TrimSpace(input.Category)
	if category == "" || utf8.RuneCountInString(category) > maxCategoryLength {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	amount := roundTo(input.Amount, 2)
	if math.IsNaN(input.Amount) || amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
	}
	if amount >= maxTransactionAmount {
		return nil, fmt.Errorf("%w: amount must be less than %.0f", ErrInvalidInput, maxTransactionAmount)
	}

	if input.StudentID != nil {
		if err := s.access.check(ctx, actorID, role, *input.StudentID); err != nil {
			return nil, err
		}
	}

	dueDate := input.DueDate
	if dueDate != nil {
		utc := dueDate.UTC()
		dueDate = &utc
	}

	return s.transactionRepo.Create(ctx, repository.CreateTransactionInput{
		OwnerID:     actorID,
		StudentID:   input.StudentID,
		Kind:        input.Kind,
		Category:    category,
		Amount:      amount,
		Status:      status,
		Description: trimOptional(input.Description),
		DueDate:     dueDate,
	})
}

// List returns the staff member's ledger, or for students the rows billed to them.
func (s *FinanceService) List(
	ctx context.Context,
	actorID int64,
	role string,
	input ListTransactionsInput,
) ([]models.Transaction, int, error) {
	if input.Status != "" && !isTransactionStatus(input.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	if input.Kind != "" && input.Kind != models.TransactionIncome && input.Kind != models.TransactionExpense {
		return nil, 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, input.Kind)
	}

	filter := repository.TransactionFilter{
		Status: input.Status,
		Kind:   input.Kind,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	switch {
	case models.IsStaffRole(role):
		filter.OwnerID = actorID
		if input.StudentID > 0 {
			if err := s.access.check(ctx, actorID, role, input.StudentID); err != nil {
				return nil, 0, err
			}
			filter.StudentID = input.StudentID
		}
	case role == models.RoleStudent:
		if input.StudentID > 0 && input.StudentID != actorID {
			return nil, 0, ErrForbidden
		}
		filter.StudentID = actorID
	default:
		return nil, 0, ErrForbidden
	}

	s.flagOverdue(ctx)
	return s.transactionRepo.List(ctx, filter)
}

func (s *FinanceService) MarkPaid(ctx context.Context, actorID int64, role string, transactionID int64) (*models.Transaction, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	transaction, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.OwnerID != actorID {
		return nil, ErrForbidden
	}
	if transaction.Status == models.TransactionPaid {
		return nil, ErrInvalidStateTransition
	}

	paid, err := s.transactionRepo.MarkPaidIfOpen(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return paid, nil
}

func (s *FinanceService) Summary(ctx context.Context, actorID int64, role string, months int) (*models.FinanceSummary, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	if months <= 0 {
		months = defaultSummaryMonths
	}
	if months > maxSummaryMonths {
		return nil, fmt.Errorf("%w: months must be at most %d", ErrInvalidInput, maxSummaryMonths)
	}

	s.flagOverdue(ctx)

	keys, since := monthWindow(s.now(), months)
	totals, err := s.transactionRepo.Totals(ctx, actorID, since)
	if err != nil {
		return nil, err
	}
	monthly, err := s.transactionRepo.MonthlyPaidTotals(ctx, actorID, since)
	if err != nil {
		return nil, err
	}

	summary := &models.FinanceSummary{
		PaidIncome:    roundTo(totals.PaidIncome, 2),
		PaidExpenses:  roundTo(totals.PaidExpenses, 2),
		Net:           roundTo(totals.PaidIncome-totals.PaidExpenses, 2),
		PendingIncome: roundTo(totals.PendingIncome, 2),
		OverdueIncome: roundTo(totals.OverdueIncome, 2),
		Monthly:       make([]models.MonthlyTotals, 0, len(keys)),
	}
	for _, key := range keys {
		month, ok := monthly[key]
		if !ok {
			month = models.MonthlyTotals{Month: key}
		}
		summary.Monthly = append(summary.Monthly, month)
	}
	return summary, nil
}

// StudentBalance returns the pending and overdue income billed to studentID.
func (s *FinanceService) StudentBalance(ctx context.Context, studentID int64) (float64, float64, error) {
	s.flagOverdue(ctx)
	pending, overdue, err := s.transactionRepo.StudentBalance(ctx, studentID)
	if err != nil {
		return 0, 0, err
	}
	return roundTo(pending, 2), roundTo(overdue, 2), nil
}

func (s *FinanceService) flagOverdue(ctx context.Context) {
	flagged, err := s.transactionRepo.FlagOverdue(ctx, s.now())
	if err != nil {
		logger.L().Warn("flag overdue transactions failed", zap.Error(err))
		return
	}
	if flagged > 0 {
		logger.L().Info("transactions flagged overdue", zap.Int64("count", flagged))
	}
}

// monthWindow returns the "YYYY-MM" keys of the last months calendar months
// ending with the current one, and the first instant of the oldest.
func monthWindow(now time.Time, months int) ([]string, time.Time) {
	current := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	since := current.AddDate(0, -(months - 1), 0)
	keys := make([]string, 0, months)
	for month := since; !month.After(current); month = month.AddDate(0, 1, 0) {
		keys = append(keys, month.Format("2006-01"))
	}
	return keys, since
}

func isTransactionStatus(status string) bool {
	switch status {
	case models.TransactionPending, models.TransactionPaid, models.TransactionOverdue:
		return true
	default:
		return false
	}
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
