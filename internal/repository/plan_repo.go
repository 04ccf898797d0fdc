package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
)

const planColumns = `id, kind, owner_id, author_id, source_template_id, title, description, goal, level,
		duration_weeks, schedule, created_at, updated_at`

type CreatePlanInput struct {
	Kind             models.PlanKind
	OwnerID          int64
	AuthorID         int64
	SourceTemplateID *int64
	Title            string
	Description      *string
	Goal             *string
	Level            *string
	DurationWeeks    int
	Schedule         models.Schedule
}

type UpdatePlanInput struct {
	Title         string
	Description   *string
	Goal          *string
	Level         *string
	DurationWeeks int
	Schedule      models.Schedule
}

// ScheduleMutation receives the locked plan and returns its new schedule.
type ScheduleMutation func(plan *models.WorkoutPlan) (models.Schedule, error)

type WorkoutPlanRepository struct {
	db DBTX
}

func NewWorkoutPlanRepository(db DBTX) *WorkoutPlanRepository {
	return &WorkoutPlanRepository{db: db}
}

func (r *WorkoutPlanRepository) Create(ctx context.Context, input CreatePlanInput) (*models.WorkoutPlan, error) {
	schedule, err := encodeSchedule(input.Schedule)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO workout_plans (kind, owner_id, author_id, source_template_id, title, description, goal, level,
			duration_weeks, schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		RETURNING ` + planColumns

	return scanPlan(r.db.QueryRow(
		ctx,
		query,
		string(input.Kind),
		input.OwnerID,
		input.AuthorID,
		input.SourceTemplateID,
		input.Title,
		input.Description,
		input.Goal,
		input.Level,
		input.DurationWeeks,
		schedule,
	))
}

// CreateInstance inserts a student's plan and, when activate is set, makes it
// the student's active plan in the same transaction.
func (r *WorkoutPlanRepository) CreateInstance(
	ctx context.Context,
	input CreatePlanInput,
	activate bool,
) (*models.WorkoutPlan, error) {
	if input.Kind != models.PlanKindInstance {
		return nil, fmt.Errorf("create instance: unexpected kind %q", input.Kind)
	}

	var plan *models.WorkoutPlan
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := NewWorkoutPlanRepository(tx)
		created, err := txRepo.Create(ctx, input)
		if err != nil {
			return err
		}
		if activate {
			if err := txRepo.SetActive(ctx, input.OwnerID, created.ID); err != nil {
				return err
			}
		}
		plan = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *WorkoutPlanRepository) GetByID(ctx context.Context, planID int64) (*models.WorkoutPlan, error) {
	query := `SELECT ` + planColumns + ` FROM workout_plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, planID))
}

func (r *WorkoutPlanRepository) getByIDForUpdate(ctx context.Context, planID int64) (*models.WorkoutPlan, error) {
	query := `SELECT ` + planColumns + ` FROM workout_plans WHERE id = $1 FOR UPDATE`
	return scanPlan(r.db.QueryRow(ctx, query, planID))
}

func (r *WorkoutPlanRepository) ListByOwner(
	ctx context.Context,
	ownerID int64,
	kind models.PlanKind,
) ([]models.WorkoutPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM workout_plans
		WHERE owner_id = $1 AND kind = $2
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, ownerID, string(kind))
}

func (r *WorkoutPlanRepository) CountByOwner(ctx context.Context, ownerID int64, kind models.PlanKind) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workout_plans WHERE owner_id = $1 AND kind = $2`, ownerID, string(kind)).
		Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *WorkoutPlanRepository) UpdateTemplate(
	ctx context.Context,
	planID int64,
	input UpdatePlanInput,
) (*models.WorkoutPlan, error) {
	schedule, err := encodeSchedule(input.Schedule)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE workout_plans
		SET title = $2, description = $3, goal = $4, level = $5, duration_weeks = $6, schedule = $7::jsonb,
			updated_at = NOW()
		WHERE id = $1 AND kind = 'template'
		RETURNING ` + planColumns

	return scanPlan(r.db.QueryRow(
		ctx,
		query,
		planID,
		input.Title,
		input.Description,
		input.Goal,
		input.Level,
		input.DurationWeeks,
		schedule,
	))
}

// MutateSchedule locks the plan row, applies mutate and stores the result.
func (r *WorkoutPlanRepository) MutateSchedule(
	ctx context.Context,
	planID int64,
	mutate ScheduleMutation,
) (*models.WorkoutPlan, error) {
	var updated *models.WorkoutPlan
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := NewWorkoutPlanRepository(tx)
		plan, err := txRepo.getByIDForUpdate(ctx, planID)
		if err != nil {
			return err
		}
		next, err := mutate(plan)
		if err != nil {
			return err
		}
		updated, err = txRepo.updateSchedule(ctx, planID, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *WorkoutPlanRepository) updateSchedule(
	ctx context.Context,
	planID int64,
	schedule models.Schedule,
) (*models.WorkoutPlan, error) {
	encoded, err := encodeSchedule(schedule)
	if err != nil {
		return nil, err
	}
	query := `
		UPDATE workout_plans
		SET schedule = $2::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + planColumns
	return scanPlan(r.db.QueryRow(ctx, query, planID, encoded))
}

func (r *WorkoutPlanRepository) Delete(ctx context.Context, planID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM workout_plans WHERE id = $1`, planID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WorkoutPlanRepository) SetActive(ctx context.Context, studentID, planID int64) error {
	query := `
		INSERT INTO student_active_plans (student_id, plan_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id) DO UPDATE SET plan_id = EXCLUDED.plan_id, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, studentID, planID)
	return err
}

func (r *WorkoutPlanRepository) GetActive(ctx context.Context, studentID int64) (*models.WorkoutPlan, error) {
	query := `
		SELECT ` + prefixedPlanColumns("wp") + `
		FROM student_active_plans sap
		JOIN workout_plans wp ON wp.id = sap.plan_id
		WHERE sap.student_id = $1
	`
	return scanPlan(r.db.QueryRow(ctx, query, studentID))
}

// ListActiveForStudents returns active plans keyed by student id. Students
// without an active plan are absent from the map.
func (r *WorkoutPlanRepository) ListActiveForStudents(
	ctx context.Context,
	studentIDs []int64,
) (map[int64]models.WorkoutPlan, error) {
	plans := make(map[int64]models.WorkoutPlan, len(studentIDs))
	if len(studentIDs) == 0 {
		return plans, nil
	}

	query := `
		SELECT sap.student_id, ` + prefixedPlanColumns("wp") + `
		FROM student_active_plans sap
		JOIN workout_plans wp ON wp.id = sap.plan_id
		WHERE sap.student_id = ANY($1)
	`
	rows, err := r.db.Query(ctx, query, studentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var studentID int64
		var plan models.WorkoutPlan
		var schedule []byte
		var kind string
		if err := rows.Scan(
			&studentID,
			&plan.ID,
			&kind,
			&plan.OwnerID,
			&plan.AuthorID,
			&plan.SourceTemplateID,
			&plan.Title,
			&plan.Description,
			&plan.Goal,
			&plan.Level,
			&plan.DurationWeeks,
			&schedule,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		); err != nil {
			return nil, err
		}
		plan.Kind = models.PlanKind(kind)
		if plan.Schedule, err = decodeSchedule(schedule); err != nil {
			return nil, err
		}
		plans[studentID] = plan
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *WorkoutPlanRepository) list(ctx context.Context, query string, args ...any) ([]models.WorkoutPlan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.WorkoutPlan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.WorkoutPlan, error) {
	var plan models.WorkoutPlan
	var kind string
	var schedule []byte
	err := row.Scan(
		&plan.ID,
		&kind,
		&plan.OwnerID,
		&plan.AuthorID,
		&plan.SourceTemplateID,
		&plan.Title,
		&plan.Description,
		&plan.Goal,
		&plan.Level,
		&plan.DurationWeeks,
		&schedule,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	plan.Kind = models.PlanKind(kind)
	if plan.Schedule, err = decodeSchedule(schedule); err != nil {
		return nil, err
	}
	return &plan, nil
}

func prefixedPlanColumns(alias string) string {
	return alias + ".id, " + alias + ".kind, " + alias + ".owner_id, " + alias + ".author_id, " +
		alias + ".source_template_id, " + alias + ".title, " + alias + ".description, " + alias + ".goal, " +
		alias + ".level, " + alias + ".duration_weeks, " + alias + ".schedule, " + alias + ".created_at, " +
		alias + ".updated_at"
}

func encodeSchedule(schedule models.Schedule) (string, error) {
	if schedule == nil {
		schedule = models.Schedule{}
	}
	encoded, err := json.Marshal(schedule)
	if err != nil {
		return "", fmt.Errorf("encode schedule: %w", err)
	}
	return string(encoded), nil
}

func decodeSchedule(raw []byte) (models.Schedule, error) {
	schedule := models.Schedule{}
	if len(raw) == 0 {
		return schedule, nil
	}
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return schedule, nil
}
