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

type anchorRepository struct {
	db *sqlx.DB
}

func NewAnchorRepository(db *sqlx.DB) repository.AnchorRepository {
	return &anchorRepository{db: db}
}

func (r *anchorRepository) Create(ctx context.Context, company *model.AnchorCompany) error {
	query := `
		INSERT INTO anchor_companies (
			id, name, tax_id, legal_name, address, city, region, country,
			phone, email, website, sector, description, employee_count,
			founded_year, contact_name, contact_position, contact_email,
			contact_phone, logo_path, notes, is_active, created_at, updated_at
		) VALUES (
			:id, :name, :tax_id, :legal_name, :address, :city, :region, :country,
			:phone, :email, :website, :sector, :description, :employee_count,
			:founded_year, :contact_name, :contact_position, :contact_email,
			:contact_phone, :logo_path, :notes, :is_active, :created_at, :updated_at
		)
	`
	company.ID = uuid.New()
	company.CreatedAt = time.Now()
	company.UpdatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("failed to create anchor company: %w", err)
	}
	return nil
}

func (r *anchorRepository) Get(ctx context.Context, id uuid.UUID) (*model.AnchorCompany, error) {
	query := `SELECT * FROM anchor_companies WHERE id = $1`

	var company model.AnchorCompany
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, fmt.Errorf("failed to get anchor company: %w", err)
	}
	return &company, nil
}

func (r *anchorRepository) Update(ctx context.Context, company *model.AnchorCompany) error {
	query := `
		UPDATE anchor_companies
		SET name = :name, tax_id = :tax_id, legal_name = :legal_name,
			address = :address, city = :city, region = :region,
			country = :country, phone = :phone, email = :email,
			website = :website, sector = :sector, description = :description,
			employee_count = :employee_count, founded_year = :founded_year,
			contact_name = :contact_name, contact_position = :contact_position,
			contact_email = :contact_email, contact_phone = :contact_phone,
			logo_path = :logo_path, notes = :notes, is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id
	`
	company.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, company)
	if err != nil {
		return fmt.Errorf("failed to update anchor company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("anchor company not found")
	}
	return nil
}

func (r *anchorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE anchor_companies SET is_active = false, updated_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete anchor company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("anchor company not found")
	}
	return nil
}

func (r *anchorRepository) List(ctx context.Context) ([]*model.AnchorCompany, error) {
	query := `SELECT * FROM anchor_companies WHERE is_active = true ORDER BY name`

	var companies []*model.AnchorCompany
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("failed to list anchor companies: %w", err)
	}
	return companies, nil
}
