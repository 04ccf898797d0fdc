package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saeid-a/GymDashBack/internal/models"
)

const transactionColumns = `id, owner_id, student_id, kind, category, amount::float8, status, description, due_date,
		paid_at, created_at`

type CreateTransactionInput struct {
	OwnerID     int64
	StudentID   *int64
	Kind        string
	Category    string
	Amount      float64
	Status      string
	Description *string
	DueDate     *time.Time
}

// TransactionFilter selects by owner, or by billed student when OwnerID is 0.
type TransactionFilter struct {
	OwnerID   int64
	StudentID int64
	Status    string
	Kind      string
	Limit     int
	Offset    int
}

type FinanceTotals struct {
	PaidIncome    float64
	PaidExpenses  float64
	PendingIncome float64
	OverdueIncome float64
}

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, input CreateTransactionInput) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (owner_id, student_id, kind, category, amount, status, description, due_date, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CASE WHEN $6 = 'paid' THEN NOW() ELSE NULL END)
		RETURNING ` + transactionColumns

	return scanTransaction(r.db.QueryRow(
		ctx,
		query,
		input.OwnerID,
		input.StudentID,
		input.Kind,
		input.Category,
		input.Amount,
		input.Status,
		input.Description,
		input.DueDate,
	))
}

func (r *TransactionRepository) GetByID(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, transactionID))
}

func (r *TransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, int, error) {
	args := []any{}
	whereParts := []string{}
	if filter.OwnerID > 0 {
		args = append(args, filter.OwnerID)
		whereParts = append(whereParts, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.StudentID > 0 {
		args = append(args, filter.StudentID)
		whereParts = append(whereParts, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		args = append(args, kind)
		whereParts = append(whereParts, fmt.Sprintf("kind = $%d", len(args)))
	}
	if len(whereParts) == 0 {
		return nil, 0, fmt.Errorf("list transactions: owner or student filter required")
	}
	where := strings.Join(whereParts, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, transactionColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, *transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// MarkPaidIfOpen flips a pending or overdue row to paid. pgx.ErrNoRows means
// the row was already paid or does not exist.
func (r *TransactionRepository) MarkPaidIfOpen(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = 'paid', paid_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'overdue')
		RETURNING ` + transactionColumns
	return scanTransaction(r.db.QueryRow(ctx, query, transactionID))
}

func (r *TransactionRepository) FlagOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE transactions SET status = 'overdue' WHERE status = 'pending' AND due_date IS NOT NULL AND due_date < $1`,
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Totals sums the owner's ledger inside the window starting at since. Paid
// rows count by payment date, open income by due date.
func (r *TransactionRepository) Totals(ctx context.Context, ownerID int64, since time.Time) (*FinanceTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income' AND status = 'paid'
				AND COALESCE(paid_at, created_at) >= $2), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'expense' AND status = 'paid'
				AND COALESCE(paid_at, created_at) >= $2), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income' AND status = 'pending'
				AND COALESCE(due_date, created_at) >= $2), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income' AND status = 'overdue'
				AND COALESCE(due_date, created_at) >= $2), 0)::float8
		FROM transactions
		WHERE owner_id = $1
	`
	var totals FinanceTotals
	if err := r.db.QueryRow(ctx, query, ownerID, since.UTC()).Scan(
		&totals.PaidIncome,
		&totals.PaidExpenses,
		&totals.PendingIncome,
		&totals.OverdueIncome,
	); err != nil {
		return nil, err
	}
	return &totals, nil
}

// MonthlyPaidTotals returns paid income and expenses per calendar month
// (UTC, "YYYY-MM") since the given instant. Months without rows are absent.
func (r *TransactionRepository) MonthlyPaidTotals(
	ctx context.Context,
	ownerID int64,
	since time.Time,
) (map[string]models.MonthlyTotals, error) {
	query := `
		SELECT
			to_char(date_trunc('month', COALESCE(paid_at, created_at) AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0)::float8
		FROM transactions
		WHERE owner_id = $1 AND status = 'paid' AND COALESCE(paid_at, created_at) >= $2
		GROUP BY month
	`
	rows, err := r.db.Query(ctx, query, ownerID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]models.MonthlyTotals)
	for rows.Next() {
		var month models.MonthlyTotals
		if err := rows.Scan(&month.Month, &month.Income, &month.Expense); err != nil {
			return nil, err
		}
		totals[month.Month] = month
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}

// StudentBalance returns the open income billed to a student.
func (r *TransactionRepository) StudentBalance(ctx context.Context, studentID int64) (pending float64, overdue float64, err error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE status = 'overdue'), 0)::float8
		FROM transactions
		WHERE student_id = $1 AND kind = 'income'
	`
	err = r.db.QueryRow(ctx, query, studentID).Scan(&pending, &overdue)
	return pending, overdue, err
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var transaction models.Transaction
	err := row.Scan(
		&transaction.ID,
		&transaction.OwnerID,
		&transaction.StudentID,
		&transaction.Kind,
		&transaction.Category,
		&transaction.Amount,
		&transaction.Status,
		&transaction.Description,
		&transaction.DueDate,
		&transaction.PaidAt,
		&transaction.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
