package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/GymDashBack/internal/models"
)

const taskColumns = `id, owner_id, title, description, status, priority, due_date, position, created_at, updated_at`

type CreateTaskInput struct {
	OwnerID     int64
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	ClearDue    bool
}

// TaskReorder receives the owner's locked tasks and returns the tasks whose
// status or position changed.
type TaskReorder func(tasks []models.Task) ([]models.Task, error)

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create appends the task to the end of its column.
func (r *TaskRepository) Create(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	query := `
		INSERT INTO tasks (owner_id, title, description, status, priority, due_date, position)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE owner_id = $1 AND status = $4))
		RETURNING ` + taskColumns

	return scanTask(r.db.QueryRow(
		ctx,
		query,
		input.OwnerID,
		input.Title,
		input.Description,
		input.Status,
		input.Priority,
		input.DueDate,
	))
}

func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*models.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID))
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		ORDER BY status ASC, position ASC, id ASC
	`
	return r.list(ctx, query, ownerID)
}

func (r *TaskRepository) CountOpen(ctx context.Context, ownerID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE owner_id = $1 AND status <> 'done'`, ownerID).
		Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TaskRepository) Update(ctx context.Context, taskID int64, input UpdateTaskInput) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			priority = COALESCE($4, priority),
			due_date = CASE WHEN $6 THEN NULL ELSE COALESCE($5, due_date) END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + taskColumns

	return scanTask(r.db.QueryRow(
		ctx,
		query,
		taskID,
		input.Title,
		input.Description,
		input.Priority,
		input.DueDate,
		input.ClearDue,
	))
}

// Reorder locks every task of the owner, applies reorder and persists the
// changed rows.
func (r *TaskRepository) Reorder(ctx context.Context, ownerID int64, reorder TaskReorder) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := NewTaskRepository(tx)
		tasks, err := txRepo.lockOwned(ctx, ownerID)
		if err != nil {
			return err
		}
		changed, err := reorder(tasks)
		if err != nil {
			return err
		}
		return txRepo.savePositions(ctx, changed)
	})
}

// Delete removes the task and passes the owner's remaining locked tasks to
// reorder, so the column is renumbered in the same transaction.
func (r *TaskRepository) Delete(ctx context.Context, ownerID int64, taskID int64, reorder TaskReorder) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := NewTaskRepository(tx)
		tasks, err := txRepo.lockOwned(ctx, ownerID)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, taskID, ownerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		remaining := make([]models.Task, 0, len(tasks))
		for _, task := range tasks {
			if task.ID != taskID {
				remaining = append(remaining, task)
			}
		}
		changed, err := reorder(remaining)
		if err != nil {
			return err
		}
		return txRepo.savePositions(ctx, changed)
	})
}

func (r *TaskRepository) lockOwned(ctx context.Context, ownerID int64) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		ORDER BY status ASC, position ASC, id ASC
		FOR UPDATE
	`
	return r.list(ctx, query, ownerID)
}

func (r *TaskRepository) savePositions(ctx context.Context, changed []models.Task) error {
	for _, task := range changed {
		if _, err := r.db.Exec(
			ctx,
			`UPDATE tasks SET status = $2, position = $3, updated_at = NOW() WHERE id = $1`,
			task.ID,
			task.Status,
			task.Position,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.Position,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
