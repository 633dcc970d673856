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

type supplierRepository struct {
	db *sqlx.DB
}

func NewSupplierRepository(db *sqlx.DB) repository.SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	query := `
		INSERT INTO suppliers (
			id, legal_name, tax_id, trade_name, legal_rep, email, phone,
			address, city, region, sector, size, employee_count, founded_year,
			website, annual_revenue, contact_name, contact_position,
			contact_email, contact_phone, logo_path, description,
			products_services, user_id, notes, created_at, updated_at
		) VALUES (
			:id, :legal_name, :tax_id, :trade_name, :legal_rep, :email, :phone,
			:address, :city, :region, :sector, :size, :employee_count, :founded_year,
			:website, :annual_revenue, :contact_name, :contact_position,
			:contact_email, :contact_phone, :logo_path, :description,
			:products_services, :user_id, :notes, :created_at, :updated_at
		)
	`
	supplier.ID = uuid.New()
	supplier.CreatedAt = time.Now()
	supplier.UpdatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, supplier); err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

func (r *supplierRepository) Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.GetContext(ctx, &supplier, `SELECT * FROM suppliers WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &supplier, nil
}

func (r *supplierRepository) GetByTaxID(ctx context.Context, taxID string) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.GetContext(ctx, &supplier, `SELECT * FROM suppliers WHERE tax_id = $1`, taxID); err != nil {
		return nil, fmt.Errorf("failed to get supplier by tax id: %w", err)
	}
	return &supplier, nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	query := `
		UPDATE suppliers
		SET legal_name = :legal_name, tax_id = :tax_id, trade_name = :trade_name,
			legal_rep = :legal_rep, email = :email, phone = :phone,
			address = :address, city = :city, region = :region,
			sector = :sector, size = :size, employee_count = :employee_count,
			founded_year = :founded_year, website = :website,
			annual_revenue = :annual_revenue, contact_name = :contact_name,
			contact_position = :contact_position, contact_email = :contact_email,
			contact_phone = :contact_phone, logo_path = :logo_path,
			description = :description, products_services = :products_services,
			user_id = :user_id, notes = :notes, updated_at = :updated_at
		WHERE id = :id
	`
	supplier.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, supplier)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("supplier not found")
	}
	return nil
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("supplier not found")
	}
	return nil
}

func (r *supplierRepository) List(ctx context.Context, filters map[string]interface{}) ([]*model.Supplier, error) {
	query := `SELECT * FROM suppliers WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if sector, ok := filters["sector"]; ok {
		query += fmt.Sprintf(" AND sector = $%d", argCount)
		args = append(args, sector)
		argCount++
	}
	if size, ok := filters["size"]; ok {
		query += fmt.Sprintf(" AND size = $%d", argCount)
		args = append(args, size)
		argCount++
	}
	if city, ok := filters["city"]; ok {
		query += fmt.Sprintf(" AND city = $%d", argCount)
		args = append(args, city)
		argCount++
	}
	if search, ok := filters["search"]; ok {
		query += fmt.Sprintf(" AND (legal_name ILIKE $%d OR trade_name ILIKE $%d OR tax_id ILIKE $%d)", argCount, argCount, argCount)
		args = append(args, fmt.Sprintf("%%%v%%", search))
		argCount++
	}
	query += " ORDER BY legal_name"

	var suppliers []*model.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *supplierRepository) CreateAnchorLink(ctx context.Context, link *model.SupplierAnchorLink) error {
	query := `
		INSERT INTO supplier_anchor_links (
			id, supplier_id, anchor_company_id, status, category,
			vendor_code, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	link.ID = uuid.New()
	link.CreatedAt = time.Now()
	link.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.SupplierID,
		link.AnchorCompanyID,
		link.Status,
		link.Category,
		link.VendorCode,
		link.Notes,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create supplier anchor link: %w", err)
	}
	return nil
}

func (r *supplierRepository) ListByAnchor(ctx context.Context, anchorCompanyID uuid.UUID) ([]*model.Supplier, error) {
	query := `
		SELECT s.*
		FROM suppliers s
		JOIN supplier_anchor_links l ON l.supplier_id = s.id
		WHERE l.anchor_company_id = $1 AND l.status = $2
		ORDER BY s.legal_name
	`
	var suppliers []*model.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, anchorCompanyID, model.LinkActive); err != nil {
		return nil, fmt.Errorf("failed to list suppliers by anchor: %w", err)
	}
	return suppliers, nil
}
