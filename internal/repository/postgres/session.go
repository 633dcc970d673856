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

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.AccompanimentSession) error {
	query := `
		INSERT INTO accompaniment_sessions (
			id, stage_id, date, duration_hours, modality, topics,
			commitments, attendees, consultant_id, minutes_path, created_at
		) VALUES (
			:id, :stage_id, :date, :duration_hours, :modality, :topics,
			:commitments, :attendees, :consultant_id, :minutes_path, :created_at
		)
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) ListByStage(ctx context.Context, stageID uuid.UUID) ([]*model.AccompanimentSession, error) {
	query := `SELECT * FROM accompaniment_sessions WHERE stage_id = $1 ORDER BY date DESC`

	var sessions []*model.AccompanimentSession
	if err := r.db.SelectContext(ctx, &sessions, query, stageID); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) SumHoursByStage(ctx context.Context, stageID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(duration_hours), 0) FROM accompaniment_sessions WHERE stage_id = $1`

	var hours float64
	if err := r.db.GetContext(ctx, &hours, query, stageID); err != nil {
		return 0, fmt.Errorf("failed to sum session hours: %w", err)
	}
	return hours, nil
}
