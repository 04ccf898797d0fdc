package models

type StudentDashboard struct {
	ActivePlan    *PlanDetail `json:"active_plan"`
	LatestMetric  *BodyMetric `json:"latest_metric"`
	OpenTasks     int         `json:"open_tasks"`
	AmountDue     float64     `json:"amount_due"`
	OverdueAmount float64     `json:"overdue_amount"`
}

type StaffDashboard struct {
	RosterSize      int             `json:"roster_size"`
	TemplateCount   int             `json:"template_count"`
	AverageProgress int             `json:"average_progress"`
	OpenTasks       int             `json:"open_tasks"`
	Finance         *FinanceSummary `json:"finance"`
}
