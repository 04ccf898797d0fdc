package models

import "time"

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

const (
	TransactionPending = "pending"
	TransactionPaid    = "paid"
	TransactionOverdue = "overdue"
)

type Transaction struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	StudentID   *int64     `json:"student_id,omitempty"`
	Kind        string     `json:"kind"`
	Category    string     `json:"category"`
	Amount      float64    `json:"amount"`
	Status      string     `json:"status"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type MonthlyTotals struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type FinanceSummary struct {
	PaidIncome    float64         `json:"paid_income"`
	PaidExpenses  float64         `json:"paid_expenses"`
	Net           float64         `json:"net"`
	PendingIncome float64         `json:"pending_income"`
	OverdueIncome float64         `json:"overdue_income"`
	Monthly       []MonthlyTotals `json:"monthly"`
}
