package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
)

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (
			id, stage_id, title, description, status, priority,
			planned_start, planned_end, actual_start, actual_end,
			assignee_id, progress_percent, sort_order, notes,
			created_at, updated_at
		) VALUES (
			:id, :stage_id, :title, :description, :status, :priority,
			:planned_start, :planned_end, :actual_start, :actual_end,
			:assignee_id, :progress_percent, :sort_order, :notes,
			:created_at, :updated_at
		)
	`
	task.ID = uuid.New()
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.GetContext(ctx, &task, `SELECT * FROM tasks WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET title = :title, description = :description, status = :status,
			priority = :priority, planned_start = :planned_start,
			planned_end = :planned_end, actual_start = :actual_start,
			actual_end = :actual_end, assignee_id = :assignee_id,
			progress_percent = :progress_percent, sort_order = :sort_order,
			notes = :notes, updated_at = :updated_at
		WHERE id = :id
	`
	task.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found")
	}
	return nil
}

func (r *taskRepository) ListByStage(ctx context.Context, stageID uuid.UUID) ([]*model.Task, error) {
	query := `SELECT * FROM tasks WHERE stage_id = $1 ORDER BY sort_order, created_at`

	var tasks []*model.Task
	if err := r.db.SelectContext(ctx, &tasks, query, stageID); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListDueOn(ctx context.Context, date time.Time) ([]*model.Task, error) {
	query := `
		SELECT * FROM tasks
		WHERE planned_end::date = $1::date
		  AND status NOT IN ($2, $3)
		ORDER BY priority, sort_order
	`
	var tasks []*model.Task
	if err := r.db.SelectContext(ctx, &tasks, query, date, model.TaskCompleted, model.TaskBlocked); err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	return tasks, nil
}
