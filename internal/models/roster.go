package models

import "time"

type RosterMember struct {
	StaffID   int64     `json:"staff_id"`
	StudentID int64     `json:"student_id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

type RosterEntry struct {
	RosterMember
	ActivePlanID *int64        `json:"active_plan_id"`
	Progress     *PlanProgress `json:"progress,omitempty"`
}
