package services

import (
	"context"

	"github.com/saeid-a/GymDashBack/internal/models"
)

type rosterChecker interface {
	Contains(ctx context.Context, staffID, studentID int64) (bool, error)
}

// studentAccess decides whether an actor may see or change a student's data:
// students only themselves, staff only students on their roster.
type studentAccess struct {
	roster rosterChecker
}

func (a studentAccess) check(ctx context.Context, actorID int64, role string, studentID int64) error {
	if actorID <= 0 || studentID <= 0 {
		return ErrInvalidInput
	}
	switch {
	case role == models.RoleStudent:
		if actorID != studentID {
			return ErrForbidden
		}
		return nil
	case models.IsStaffRole(role):
		if a.roster == nil {
			return ErrForbidden
		}
		ok, err := a.roster.Contains(ctx, actorID, studentID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotInRoster
		}
		return nil
	default:
		return ErrForbidden
	}
}
