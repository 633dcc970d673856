package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
)

type participationRepository struct {
	db *sqlx.DB
}

func NewParticipationRepository(db *sqlx.DB) repository.ParticipationRepository {
	return &participationRepository{db: db}
}

func (r *participationRepository) Create(ctx context.Context, p *model.Participation) error {
	query := `
		INSERT INTO participations (
			id, supplier_id, project_id, consultant_id, current_stage,
			status, start_date, planned_end_date, actual_end_date,
			progress_percent, hours_consumed, hours_planned, notes,
			suspension_reason, created_at, updated_at
		) VALUES (
			:id, :supplier_id, :project_id, :consultant_id, :current_stage,
			:status, :start_date, :planned_end_date, :actual_end_date,
			:progress_percent, :hours_consumed, :hours_planned, :notes,
			:suspension_reason, :created_at, :updated_at
		)
	`
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

func (r *participationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Participation, error) {
	var p model.Participation
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM participations WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return &p, nil
}

func (r *participationRepository) GetBySupplierAndProject(ctx context.Context, supplierID, projectID uuid.UUID) (*model.Participation, error) {
	query := `SELECT * FROM participations WHERE supplier_id = $1 AND project_id = $2`

	var p model.Participation
	err := r.db.GetContext(ctx, &p, query, supplierID, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return &p, nil
}

func (r *participationRepository) Update(ctx context.Context, p *model.Participation) error {
	query := `
		UPDATE participations
		SET consultant_id = :consultant_id, current_stage = :current_stage,
			status = :status, start_date = :start_date,
			planned_end_date = :planned_end_date, actual_end_date = :actual_end_date,
			progress_percent = :progress_percent, hours_consumed = :hours_consumed,
			hours_planned = :hours_planned, notes = :notes,
			suspension_reason = :suspension_reason, updated_at = :updated_at
		WHERE id = :id
	`
	p.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("failed to update participation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("participation not found")
	}
	return nil
}

func (r *participationRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*model.Participation, error) {
	query := `SELECT * FROM participations WHERE project_id = $1 ORDER BY created_at`

	var participations []*model.Participation
	if err := r.db.SelectContext(ctx, &participations, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list participations by project: %w", err)
	}
	return participations, nil
}

func (r *participationRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*model.Participation, error) {
	query := `SELECT * FROM participations WHERE supplier_id = $1 ORDER BY created_at`

	var participations []*model.Participation
	if err := r.db.SelectContext(ctx, &participations, query, supplierID); err != nil {
		return nil, fmt.Errorf("failed to list participations by supplier: %w", err)
	}
	return participations, nil
}
