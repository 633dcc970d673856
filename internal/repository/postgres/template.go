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

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, t *model.Template) error {
	query := `
		INSERT INTO notification_templates (
			id, name, event, channel, subject, body, html_body,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Name,
		t.Event,
		t.Channel,
		t.Subject,
		t.Body,
		t.HTMLBody,
		t.IsActive,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) Update(ctx context.Context, t *model.Template) error {
	query := `
		UPDATE notification_templates
		SET name = $1, event = $2, channel = $3, subject = $4, body = $5,
			html_body = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`
	t.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		t.Name,
		t.Event,
		t.Channel,
		t.Subject,
		t.Body,
		t.HTMLBody,
		t.IsActive,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("template not found")
	}
	return nil
}

func (r *templateRepository) GetActive(ctx context.Context, event model.EventKind, channel model.Channel) (*model.Template, error) {
	query := `
		SELECT * FROM notification_templates
		WHERE event = $1 AND channel = $2 AND is_active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var t model.Template
	err := r.db.GetContext(ctx, &t, query, event, channel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active template: %w", err)
	}
	return &t, nil
}

func (r *templateRepository) List(ctx context.Context) ([]*model.Template, error) {
	query := `SELECT * FROM notification_templates ORDER BY event, channel`

	var templates []*model.Template
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}
