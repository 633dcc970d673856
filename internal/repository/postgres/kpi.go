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

type kpiRepository struct {
	db *sqlx.DB
}

func NewKPIRepository(db *sqlx.DB) repository.KPIRepository {
	return &kpiRepository{db: db}
}

func (r *kpiRepository) Create(ctx context.Context, kpi *model.KPI) error {
	query := `
		INSERT INTO kpis (
			id, stage_id, name, description, initial_value, current_value,
			target_value, unit, frequency, trend, created_at, updated_at
		) VALUES (
			:id, :stage_id, :name, :description, :initial_value, :current_value,
			:target_value, :unit, :frequency, :trend, :created_at, :updated_at
		)
	`
	kpi.ID = uuid.New()
	kpi.CreatedAt = time.Now()
	kpi.UpdatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, kpi); err != nil {
		return fmt.Errorf("failed to create kpi: %w", err)
	}
	return nil
}

func (r *kpiRepository) Get(ctx context.Context, id uuid.UUID) (*model.KPI, error) {
	var kpi model.KPI
	if err := r.db.GetContext(ctx, &kpi, `SELECT * FROM kpis WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get kpi: %w", err)
	}
	return &kpi, nil
}

func (r *kpiRepository) Update(ctx context.Context, kpi *model.KPI) error {
	query := `
		UPDATE kpis
		SET name = :name, description = :description,
			initial_value = :initial_value, current_value = :current_value,
			target_value = :target_value, unit = :unit,
			frequency = :frequency, trend = :trend, updated_at = :updated_at
		WHERE id = :id
	`
	kpi.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, kpi)
	if err != nil {
		return fmt.Errorf("failed to update kpi: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("kpi not found")
	}
	return nil
}

func (r *kpiRepository) ListByStage(ctx context.Context, stageID uuid.UUID) ([]*model.KPI, error) {
	query := `SELECT * FROM kpis WHERE stage_id = $1 ORDER BY name`

	var kpis []*model.KPI
	if err := r.db.SelectContext(ctx, &kpis, query, stageID); err != nil {
		return nil, fmt.Errorf("failed to list kpis: %w", err)
	}
	return kpis, nil
}

func (r *kpiRepository) CreateMeasurement(ctx context.Context, m *model.KPIMeasurement) error {
	query := `
		INSERT INTO kpi_measurements (
			id, kpi_id, measured_on, value, observations, recorded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	m.ID = uuid.New()
	m.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.KPIID,
		m.MeasuredOn,
		m.Value,
		m.Observations,
		m.RecordedBy,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create kpi measurement: %w", err)
	}
	return nil
}

func (r *kpiRepository) ListMeasurements(ctx context.Context, kpiID uuid.UUID, limit int) ([]*model.KPIMeasurement, error) {
	query := `
		SELECT * FROM kpi_measurements
		WHERE kpi_id = $1
		ORDER BY measured_on DESC, created_at DESC
		LIMIT $2
	`
	var measurements []*model.KPIMeasurement
	if err := r.db.SelectContext(ctx, &measurements, query, kpiID, limit); err != nil {
		return nil, fmt.Errorf("failed to list kpi measurements: %w", err)
	}
	return measurements, nil
}

func (r *kpiRepository) CreateWeeklyReport(ctx context.Context, report *model.WeeklyReport) error {
	query := `
		INSERT INTO weekly_reports (
			id, stage_id, week_number, week_start, week_end, summary,
			achievements, difficulties, next_actions, sent, sent_at, created_at
		) VALUES (
			:id, :stage_id, :week_number, :week_start, :week_end, :summary,
			:achievements, :difficulties, :next_actions, :sent, :sent_at, :created_at
		)
	`
	report.ID = uuid.New()
	report.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("failed to create weekly report: %w", err)
	}
	return nil
}

func (r *kpiRepository) CreateClosureReport(ctx context.Context, report *model.ClosureReport) error {
	query := `
		INSERT INTO closure_reports (
			id, stage_id, executive_summary, achieved_objectives,
			implemented_improvements, kpi_results, lessons_learned,
			recommendations, pdf_path, signed_by, signed_at, generated_at
		) VALUES (
			:id, :stage_id, :executive_summary, :achieved_objectives,
			:implemented_improvements, :kpi_results, :lessons_learned,
			:recommendations, :pdf_path, :signed_by, :signed_at, :generated_at
		)
	`
	report.ID = uuid.New()
	report.GeneratedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("failed to create closure report: %w", err)
	}
	return nil
}

func (r *kpiRepository) GetClosureReport(ctx context.Context, stageID uuid.UUID) (*model.ClosureReport, error) {
	var report model.ClosureReport
	err := r.db.GetContext(ctx, &report, `SELECT * FROM closure_reports WHERE stage_id = $1`, stageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get closure report: %w", err)
	}
	return &report, nil
}
