package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
)

type rosterStore interface {
	Add(ctx context.Context, staffID, studentID int64) error
	Remove(ctx context.Context, staffID, studentID int64) (bool, error)
	Contains(ctx context.Context, staffID, studentID int64) (bool, error)
	Count(ctx context.Context, staffID int64) (int, error)
	List(ctx context.Context, staffID int64) ([]models.RosterMember, error)
}

type userByEmailReader interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type activePlanLister interface {
	ListActiveForStudents(ctx context.Context, studentIDs []int64) (map[int64]models.WorkoutPlan, error)
}

type RosterService struct {
	rosterRepo rosterStore
	userRepo   userByEmailReader
	planRepo   activePlanLister
}

func NewRosterService(rosterRepo rosterStore, userRepo userByEmailReader, planRepo activePlanLister) *RosterService {
	return &RosterService{
		rosterRepo: rosterRepo,
		userRepo:   userRepo,
		planRepo:   planRepo,
	}
}

func (s *RosterService) Add(ctx context.Context, staffID int64, role string, email string) (*models.User, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidInput
	}

	student, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: only students can join a roster", ErrInvalidInput)
	}

	if err := s.rosterRepo.Add(ctx, staffID, student.ID); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrAlreadyInRoster
		}
		return nil, err
	}
	return student, nil
}

func (s *RosterService) Remove(ctx context.Context, staffID int64, role string, studentID int64) error {
	if !models.IsStaffRole(role) {
		return ErrForbidden
	}
	removed, err := s.rosterRepo.Remove(ctx, staffID, studentID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotInRoster
	}
	return nil
}

// List returns every roster student with their active plan progress.
func (s *RosterService) List(ctx context.Context, staffID int64, role string) ([]models.RosterEntry, error) {
	if !models.IsStaffRole(role) {
		return nil, ErrForbidden
	}
	members, err := s.rosterRepo.List(ctx, staffID)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]int64, 0, len(members))
	for _, member := range members {
		studentIDs = append(studentIDs, member.StudentID)
	}
	plans, err := s.planRepo.ListActiveForStudents(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RosterEntry, 0, len(members))
	for _, member := range members {
		entry := models.RosterEntry{RosterMember: member}
		if plan, ok := plans[member.StudentID]; ok {
			planID := plan.ID
			progress := models.ComputeProgress(&plan)
			entry.ActivePlanID = &planID
			entry.Progress = &progress
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RosterService) Count(ctx context.Context, staffID int64) (int, error) {
	return s.rosterRepo.Count(ctx, staffID)
}

// AverageProgress is the mean active-plan percent over roster students that
// have an active plan, 0 when none do.
func AverageProgress(entries []models.RosterEntry) int {
	sum, count := 0, 0
	for _, entry := range entries {
		if entry.Progress == nil {
			continue
		}
		sum += entry.Progress.Percent
		count++
	}
	if count == 0 {
		return 0
	}
	return int(roundTo(float64(sum)/float64(count), 0))
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
