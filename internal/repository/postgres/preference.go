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

type preferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.Preference, error) {
	var pref model.Preference
	err := r.db.GetContext(ctx, &pref, `SELECT * FROM notification_preferences WHERE user_id = $1`, userID)
	if err == nil {
		return &pref, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	p := model.DefaultPreference(userID)
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	query := `
		INSERT INTO notification_preferences (
			id, user_id, email_enabled, whatsapp_enabled, system_enabled,
			notify_tasks, notify_sessions, notify_workshops, notify_reports,
			notify_alerts, quiet_hours_start, quiet_hours_end,
			created_at, updated_at
		) VALUES (
			:id, :user_id, :email_enabled, :whatsapp_enabled, :system_enabled,
			:notify_tasks, :notify_sessions, :notify_workshops, :notify_reports,
			:notify_alerts, :quiet_hours_start, :quiet_hours_end,
			:created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}
	return p, nil
}

func (r *preferenceRepository) Update(ctx context.Context, p *model.Preference) error {
	query := `
		UPDATE notification_preferences
		SET email_enabled = :email_enabled, whatsapp_enabled = :whatsapp_enabled,
			system_enabled = :system_enabled, notify_tasks = :notify_tasks,
			notify_sessions = :notify_sessions, notify_workshops = :notify_workshops,
			notify_reports = :notify_reports, notify_alerts = :notify_alerts,
			quiet_hours_start = :quiet_hours_start, quiet_hours_end = :quiet_hours_end,
			updated_at = :updated_at
		WHERE id = :id
	`
	p.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("failed to update preference: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("preference not found")
	}
	return nil
}
