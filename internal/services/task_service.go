package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
)

const maxTaskTitleLength = 200

type taskStore interface {
	Create(ctx context.Context, input repository.CreateTaskInput) (*models.Task, error)
	GetByID(ctx context.Context, taskID int64) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Task, error)
	CountOpen(ctx context.Context, ownerID int64) (int, error)
	Update(ctx context.Context, taskID int64, input repository.UpdateTaskInput) (*models.Task, error)
	Reorder(ctx context.Context, ownerID int64, reorder repository.TaskReorder) error
	Delete(ctx context.Context, ownerID int64, taskID int64, reorder repository.TaskReorder) error
}

type CreateTaskInput struct {
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

type MoveTaskInput struct {
	Status   string
	Position int
}

type TaskService struct {
	taskRepo taskStore
}

func NewTaskService(taskRepo taskStore) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, input CreateTaskInput) (*models.Task, error) {
	title, err := normalizeTaskTitle(input.Title)
	if err != nil {
		return nil, err
	}
	status := defaultString(input.Status, models.TaskStatusTodo)
	if !models.IsTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	priority := defaultString(input.Priority, models.TaskPriorityMedium)
	if !models.IsTaskPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}

	return s.taskRepo.Create(ctx, repository.CreateTaskInput{
		OwnerID:     ownerID,
		Title:       title,
		Description: trimOptional(input.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
	})
}

// Board groups the owner's tasks by column; every column is present.
func (s *TaskService) Board(ctx context.Context, ownerID int64) (models.TaskBoard, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return BuildBoard(tasks), nil
}

func (s *TaskService) CountOpen(ctx context.Context, ownerID int64) (int, error) {
	return s.taskRepo.CountOpen(ctx, ownerID)
}

func (s *TaskService) Update(ctx context.Context, ownerID int64, taskID int64, input UpdateTaskInput) (*models.Task, error) {
	if _, err := s.ownedTask(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	update := repository.UpdateTaskInput{
		Description: trimOptional(input.Description),
		DueDate:     input.DueDate,
		ClearDue:    input.ClearDue,
	}
	if input.Title != nil {
		title, err := normalizeTaskTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		update.Title = &title
	}
	if input.Priority != nil {
		priority := strings.TrimSpace(*input.Priority)
		if !models.IsTaskPriority(priority) {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
		}
		update.Priority = &priority
	}

	return s.taskRepo.Update(ctx, taskID, update)
}

func (s *TaskService) Move(ctx context.Context, ownerID int64, taskID int64, input MoveTaskInput) (models.TaskBoard, error) {
	if !models.IsTaskStatus(input.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	if input.Position < 0 {
		return nil, fmt.Errorf("%w: position must not be negative", ErrInvalidInput)
	}
	if _, err := s.ownedTask(ctx, ownerID, taskID); err != nil {
		return nil, err
	}

	err := s.taskRepo.Reorder(ctx, ownerID, func(tasks []models.Task) ([]models.Task, error) {
		return MoveTask(tasks, taskID, input.Status, input.Position)
	})
	if err != nil {
		return nil, err
	}
	return s.Board(ctx, ownerID)
}

func (s *TaskService) Delete(ctx context.Context, ownerID int64, taskID int64) error {
	if _, err := s.ownedTask(ctx, ownerID, taskID); err != nil {
		return err
	}
	return s.taskRepo.Delete(ctx, ownerID, taskID, CompactColumns)
}

func (s *TaskService) ownedTask(ctx context.Context, ownerID int64, taskID int64) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return task, nil
}

func BuildBoard(tasks []models.Task) models.TaskBoard {
	board := make(models.TaskBoard, len(models.TaskStatuses))
	for _, status := range models.TaskStatuses {
		board[status] = make([]models.Task, 0)
	}
	for _, task := range tasks {
		board[task.Status] = append(board[task.Status], task)
	}
	for status := range board {
		sortColumn(board[status])
	}
	return board
}

// MoveTask places the task at position inside status and renumbers the
// affected columns densely from 0. It returns only tasks whose column or
// position changed.
func MoveTask(tasks []models.Task, taskID int64, status string, position int) ([]models.Task, error) {
	var moving *models.Task
	columns := make(map[string][]models.Task)
	for _, task := range tasks {
		if task.ID == taskID {
			copied := task
			moving = &copied
			continue
		}
		columns[task.Status] = append(columns[task.Status], task)
	}
	if moving == nil {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}

	sourceStatus := moving.Status
	for key := range columns {
		sortColumn(columns[key])
	}

	target := columns[status]
	if position > len(target) {
		position = len(target)
	}
	moving.Status = status
	target = append(target[:position], append([]models.Task{*moving}, target[position:]...)...)
	columns[status] = target

	original := make(map[int64]models.Task, len(tasks))
	for _, task := range tasks {
		original[task.ID] = task
	}

	changed := make([]models.Task, 0)
	for _, key := range []string{sourceStatus, status} {
		column := columns[key]
		for i := range column {
			column[i].Position = i
			before := original[column[i].ID]
			if before.Position != i || before.Status != column[i].Status {
				changed = append(changed, column[i])
			}
		}
		if sourceStatus == status {
			break
		}
	}
	return changed, nil
}

// CompactColumns renumbers every column densely from 0 in board order and
// returns the tasks whose position changed.
func CompactColumns(tasks []models.Task) ([]models.Task, error) {
	changed := make([]models.Task, 0)
	for _, column := range BuildBoard(tasks) {
		for i := range column {
			if column[i].Position != i {
				column[i].Position = i
				changed = append(changed, column[i])
			}
		}
	}
	return changed, nil
}

func sortColumn(column []models.Task) {
	sort.SliceStable(column, func(i, j int) bool {
		if column[i].Position != column[j].Position {
			return column[i].Position < column[j].Position
		}
		return column[i].ID < column[j].ID
	})
}

func normalizeTaskTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(trimmed) > maxTaskTitleLength {
		return "", fmt.Errorf("%w: title is too long", ErrInvalidInput)
	}
	return trimmed, nil
}

func defaultString(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
