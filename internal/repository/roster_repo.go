package repository

import (
	"context"

	"github.com/saeid-a/GymDashBack/internal/models"
)

type RosterRepository struct {
	db DBTX
}

func NewRosterRepository(db DBTX) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) Add(ctx context.Context, staffID, studentID int64) error {
	query := `INSERT INTO roster_members (staff_id, student_id) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, staffID, studentID)
	return err
}

// Remove reports whether a row was deleted.
func (r *RosterRepository) Remove(ctx context.Context, staffID, studentID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM roster_members WHERE staff_id = $1 AND student_id = $2`, staffID, studentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RosterRepository) Contains(ctx context.Context, staffID, studentID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM roster_members WHERE staff_id = $1 AND student_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, staffID, studentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *RosterRepository) Count(ctx context.Context, staffID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM roster_members WHERE staff_id = $1`, staffID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RosterRepository) List(ctx context.Context, staffID int64) ([]models.RosterMember, error) {
	query := `
		SELECT rm.staff_id, rm.student_id, u.email, p.full_name, rm.created_at
		FROM roster_members rm
		JOIN users u ON u.id = rm.student_id
		LEFT JOIN profiles p ON p.user_id = rm.student_id
		WHERE rm.staff_id = $1
		ORDER BY rm.created_at ASC, rm.student_id ASC
	`
	rows, err := r.db.Query(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.RosterMember, 0)
	for rows.Next() {
		var member models.RosterMember
		if err := rows.Scan(
			&member.StaffID,
			&member.StudentID,
			&member.Email,
			&member.FullName,
			&member.CreatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}
