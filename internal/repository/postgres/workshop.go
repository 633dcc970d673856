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

type workshopRepository struct {
	db *sqlx.DB
}

func NewWorkshopRepository(db *sqlx.DB) repository.WorkshopRepository {
	return &workshopRepository{db: db}
}

func (r *workshopRepository) Create(ctx context.Context, workshop *model.Workshop) error {
	query := `
		INSERT INTO workshops (
			id, anchor_company_id, name, description, modality,
			facilitator_id, capacity, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	workshop.ID = uuid.New()
	workshop.CreatedAt = time.Now()
	workshop.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		workshop.ID,
		workshop.AnchorCompanyID,
		workshop.Name,
		workshop.Description,
		workshop.Modality,
		workshop.FacilitatorID,
		workshop.Capacity,
		workshop.CreatedAt,
		workshop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workshop: %w", err)
	}
	return nil
}

func (r *workshopRepository) Get(ctx context.Context, id uuid.UUID) (*model.Workshop, error) {
	var workshop model.Workshop
	if err := r.db.GetContext(ctx, &workshop, `SELECT * FROM workshops WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get workshop: %w", err)
	}
	return &workshop, nil
}

func (r *workshopRepository) List(ctx context.Context) ([]*model.Workshop, error) {
	var workshops []*model.Workshop
	if err := r.db.SelectContext(ctx, &workshops, `SELECT * FROM workshops ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list workshops: %w", err)
	}
	return workshops, nil
}

func (r *workshopRepository) CreateSession(ctx context.Context, session *model.WorkshopSession) error {
	query := `
		INSERT INTO workshop_sessions (
			id, workshop_id, date, start_time, location, virtual_link,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.WorkshopID,
		session.Date,
		session.StartTime,
		session.Location,
		session.VirtualLink,
		session.Status,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workshop session: %w", err)
	}
	return nil
}

func (r *workshopRepository) ListSessionsOn(ctx context.Context, date time.Time) ([]*model.WorkshopSession, error) {
	query := `
		SELECT * FROM workshop_sessions
		WHERE date::date = $1::date AND status = $2
		ORDER BY start_time
	`
	var sessions []*model.WorkshopSession
	if err := r.db.SelectContext(ctx, &sessions, query, date, model.WorkshopSessionScheduled); err != nil {
		return nil, fmt.Errorf("failed to list workshop sessions: %w", err)
	}
	return sessions, nil
}

func (r *workshopRepository) CreateEnrollment(ctx context.Context, enrollment *model.WorkshopEnrollment) error {
	query := `
		INSERT INTO workshop_enrollments (
			id, workshop_id, user_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	enrollment.ID = uuid.New()
	enrollment.CreatedAt = time.Now()
	enrollment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		enrollment.ID,
		enrollment.WorkshopID,
		enrollment.UserID,
		enrollment.Status,
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workshop enrollment: %w", err)
	}
	return nil
}

func (r *workshopRepository) UpdateEnrollment(ctx context.Context, enrollment *model.WorkshopEnrollment) error {
	query := `UPDATE workshop_enrollments SET status = $1, updated_at = $2 WHERE id = $3`
	enrollment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, enrollment.Status, enrollment.UpdatedAt, enrollment.ID)
	if err != nil {
		return fmt.Errorf("failed to update workshop enrollment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workshop enrollment not found")
	}
	return nil
}

func (r *workshopRepository) ListEnrollments(ctx context.Context, workshopID uuid.UUID, status model.EnrollmentStatus) ([]*model.WorkshopEnrollment, error) {
	query := `SELECT * FROM workshop_enrollments WHERE workshop_id = $1`
	args := []interface{}{workshopID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at"

	var enrollments []*model.WorkshopEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list workshop enrollments: %w", err)
	}
	return enrollments, nil
}
