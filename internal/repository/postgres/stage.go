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

type stageRepository struct {
	db *sqlx.DB
}

func NewStageRepository(db *sqlx.DB) repository.StageRepository {
	return &stageRepository{db: db}
}

func (r *stageRepository) GetDiagnosis(ctx context.Context, participationID uuid.UUID) (*model.DiagnosisStage, error) {
	var stage model.DiagnosisStage
	err := r.db.GetContext(ctx, &stage, `SELECT * FROM diagnosis_stages WHERE participation_id = $1`, participationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnosis stage: %w", err)
	}
	return &stage, nil
}

func (r *stageRepository) GetOrCreateDiagnosis(ctx context.Context, participationID uuid.UUID) (*model.DiagnosisStage, error) {
	stage, err := r.GetDiagnosis(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage != nil {
		return stage, nil
	}

	stage = &model.DiagnosisStage{
		ID:              uuid.New(),
		ParticipationID: participationID,
		Status:          model.StagePending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	query := `
		INSERT INTO diagnosis_stages (
			id, participation_id, status, started_at, finished_at,
			completed_by, observations, created_at, updated_at
		) VALUES (
			:id, :participation_id, :status, :started_at, :finished_at,
			:completed_by, :observations, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, stage); err != nil {
		return nil, fmt.Errorf("failed to create diagnosis stage: %w", err)
	}
	return stage, nil
}

func (r *stageRepository) UpdateDiagnosis(ctx context.Context, stage *model.DiagnosisStage) error {
	query := `
		UPDATE diagnosis_stages
		SET status = :status, started_at = :started_at,
			finished_at = :finished_at, completed_by = :completed_by,
			observations = :observations, updated_at = :updated_at
		WHERE id = :id
	`
	stage.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, stage)
	if err != nil {
		return fmt.Errorf("failed to update diagnosis stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("diagnosis stage not found")
	}
	return nil
}

func (r *stageRepository) GetPlan(ctx context.Context, participationID uuid.UUID) (*model.PlanStage, error) {
	var stage model.PlanStage
	err := r.db.GetContext(ctx, &stage, `SELECT * FROM plan_stages WHERE participation_id = $1`, participationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan stage: %w", err)
	}
	return &stage, nil
}

func (r *stageRepository) GetOrCreatePlan(ctx context.Context, participationID uuid.UUID) (*model.PlanStage, error) {
	stage, err := r.GetPlan(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage != nil {
		return stage, nil
	}

	stage = &model.PlanStage{
		ID:              uuid.New(),
		ParticipationID: participationID,
		Status:          model.PlanPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	query := `
		INSERT INTO plan_stages (
			id, participation_id, status, started_at, finished_at,
			approved_by, approved_at, approval_notes, created_at, updated_at
		) VALUES (
			:id, :participation_id, :status, :started_at, :finished_at,
			:approved_by, :approved_at, :approval_notes, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, stage); err != nil {
		return nil, fmt.Errorf("failed to create plan stage: %w", err)
	}
	return stage, nil
}

func (r *stageRepository) UpdatePlan(ctx context.Context, stage *model.PlanStage) error {
	query := `
		UPDATE plan_stages
		SET status = :status, started_at = :started_at,
			finished_at = :finished_at, approved_by = :approved_by,
			approved_at = :approved_at, approval_notes = :approval_notes,
			updated_at = :updated_at
		WHERE id = :id
	`
	stage.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, stage)
	if err != nil {
		return fmt.Errorf("failed to update plan stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("plan stage not found")
	}
	return nil
}

func (r *stageRepository) GetImplementation(ctx context.Context, participationID uuid.UUID) (*model.ImplementationStage, error) {
	var stage model.ImplementationStage
	err := r.db.GetContext(ctx, &stage, `SELECT * FROM implementation_stages WHERE participation_id = $1`, participationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get implementation stage: %w", err)
	}
	return &stage, nil
}

func (r *stageRepository) GetOrCreateImplementation(ctx context.Context, participationID uuid.UUID) (*model.ImplementationStage, error) {
	stage, err := r.GetImplementation(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage != nil {
		return stage, nil
	}

	stage = &model.ImplementationStage{
		ID:              uuid.New(),
		ParticipationID: participationID,
		Status:          model.StagePending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	query := `
		INSERT INTO implementation_stages (
			id, participation_id, status, started_at, finished_at,
			progress_percent, accompaniment_hours, created_at, updated_at
		) VALUES (
			:id, :participation_id, :status, :started_at, :finished_at,
			:progress_percent, :accompaniment_hours, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, stage); err != nil {
		return nil, fmt.Errorf("failed to create implementation stage: %w", err)
	}
	return stage, nil
}

func (r *stageRepository) UpdateImplementation(ctx context.Context, stage *model.ImplementationStage) error {
	query := `
		UPDATE implementation_stages
		SET status = :status, started_at = :started_at,
			finished_at = :finished_at, progress_percent = :progress_percent,
			accompaniment_hours = :accompaniment_hours, updated_at = :updated_at
		WHERE id = :id
	`
	stage.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, stage)
	if err != nil {
		return fmt.Errorf("failed to update implementation stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("implementation stage not found")
	}
	return nil
}

func (r *stageRepository) GetMonitoring(ctx context.Context, participationID uuid.UUID) (*model.MonitoringStage, error) {
	var stage model.MonitoringStage
	err := r.db.GetContext(ctx, &stage, `SELECT * FROM monitoring_stages WHERE participation_id = $1`, participationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get monitoring stage: %w", err)
	}
	return &stage, nil
}

func (r *stageRepository) GetOrCreateMonitoring(ctx context.Context, participationID uuid.UUID) (*model.MonitoringStage, error) {
	stage, err := r.GetMonitoring(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage != nil {
		return stage, nil
	}

	stage = &model.MonitoringStage{
		ID:              uuid.New(),
		ParticipationID: participationID,
		Status:          model.StagePending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	query := `
		INSERT INTO monitoring_stages (
			id, participation_id, status, started_at, finished_at,
			final_report_generated, created_at, updated_at
		) VALUES (
			:id, :participation_id, :status, :started_at, :finished_at,
			:final_report_generated, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, stage); err != nil {
		return nil, fmt.Errorf("failed to create monitoring stage: %w", err)
	}
	return stage, nil
}

func (r *stageRepository) UpdateMonitoring(ctx context.Context, stage *model.MonitoringStage) error {
	query := `
		UPDATE monitoring_stages
		SET status = :status, started_at = :started_at,
			finished_at = :finished_at,
			final_report_generated = :final_report_generated,
			updated_at = :updated_at
		WHERE id = :id
	`
	stage.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, stage)
	if err != nil {
		return fmt.Errorf("failed to update monitoring stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("monitoring stage not found")
	}
	return nil
}
