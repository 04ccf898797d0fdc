package models

import "time"

const (
	PlanEventAssigned = "plan.assigned"
	PlanEventProgress = "plan.progress"
	PlanEventReset    = "plan.reset"
)

// PlanEvent is pushed to the live feed of every recipient.
type PlanEvent struct {
	Type       string        `json:"type"`
	PlanID     int64         `json:"plan_id"`
	StudentID  int64         `json:"student_id"`
	Progress   *PlanProgress `json:"progress,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Recipients []int64       `json:"-"`
}
