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

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) repository.ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	query := `
		INSERT INTO projects (
			id, code, name, anchor_company_id, description, start_date,
			planned_end_date, actual_end_date, status, director_id, budget,
			cost_per_supplier, planned_supplier_count, duration_months,
			hours_per_supplier, objectives, scope, notes, created_at, updated_at
		) VALUES (
			:id, :code, :name, :anchor_company_id, :description, :start_date,
			:planned_end_date, :actual_end_date, :status, :director_id, :budget,
			:cost_per_supplier, :planned_supplier_count, :duration_months,
			:hours_per_supplier, :objectives, :scope, :notes, :created_at, :updated_at
		)
	`
	project.ID = uuid.New()
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.GetContext(ctx, &project, `SELECT * FROM projects WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	query := `
		UPDATE projects
		SET code = :code, name = :name, anchor_company_id = :anchor_company_id,
			description = :description, start_date = :start_date,
			planned_end_date = :planned_end_date, actual_end_date = :actual_end_date,
			status = :status, director_id = :director_id, budget = :budget,
			cost_per_supplier = :cost_per_supplier,
			planned_supplier_count = :planned_supplier_count,
			duration_months = :duration_months,
			hours_per_supplier = :hours_per_supplier,
			objectives = :objectives, scope = :scope, notes = :notes,
			updated_at = :updated_at
		WHERE id = :id
	`
	project.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, project)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project not found")
	}
	return nil
}

func (r *projectRepository) List(ctx context.Context, filters map[string]interface{}) ([]*model.Project, error) {
	query := `SELECT * FROM projects WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if status, ok := filters["status"]; ok {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, status)
		argCount++
	}
	if anchorID, ok := filters["anchor_company_id"]; ok {
		query += fmt.Sprintf(" AND anchor_company_id = $%d", argCount)
		args = append(args, anchorID)
		argCount++
	}
	if directorID, ok := filters["director_id"]; ok {
		query += fmt.Sprintf(" AND director_id = $%d", argCount)
		args = append(args, directorID)
		argCount++
	}
	query += " ORDER BY start_date DESC"

	var projects []*model.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (r *projectRepository) CountCreatedInYear(ctx context.Context, year int) (int, error) {
	query := `SELECT COUNT(*) FROM projects WHERE EXTRACT(YEAR FROM created_at) = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, year); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}
