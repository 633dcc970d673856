package model

import (
	"time"

	"github.com/google/uuid"
)

type CompanySize string

const (
	SizeMicro  CompanySize = "micro"
	SizeSmall  CompanySize = "small"
	SizeMedium CompanySize = "medium"
	SizeLarge  CompanySize = "large"
)

// Supplier is a beneficiary company enrolled in strengthening projects.
type Supplier struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	LegalName        string         `json:"legal_name" db:"legal_name"`
	TaxID            string         `json:"tax_id" db:"tax_id" binding:"omitempty,taxid"`
	TradeName        string         `json:"trade_name" db:"trade_name"`
	LegalRep         string         `json:"legal_rep" db:"legal_rep"`
	Email            string         `json:"email" db:"email"`
	Phone            string         `json:"phone" db:"phone"`
	Address          string         `json:"address" db:"address"`
	City             string         `json:"city" db:"city"`
	Region           string         `json:"region" db:"region"`
	Sector           EconomicSector `json:"sector" db:"sector"`
	Size             CompanySize    `json:"size" db:"size"`
	EmployeeCount    int            `json:"employee_count" db:"employee_count"`
	FoundedYear      *int           `json:"founded_year,omitempty" db:"founded_year"`
	Website          string         `json:"website" db:"website"`
	AnnualRevenue    *float64       `json:"annual_revenue,omitempty" db:"annual_revenue"`
	ContactName      string         `json:"contact_name" db:"contact_name"`
	ContactPosition  string         `json:"contact_position" db:"contact_position"`
	ContactEmail     string         `json:"contact_email" db:"contact_email"`
	ContactPhone     string         `json:"contact_phone" db:"contact_phone"`
	LogoPath         string         `json:"logo_path" db:"logo_path"`
	Description      string         `json:"description" db:"description"`
	ProductsServices string         `json:"products_services" db:"products_services"`

	// Portal user for the supplier's main contact; notifications for
	// participation events are addressed to this user.
	UserID *uuid.UUID `json:"user_id,omitempty" db:"user_id"`

	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Supplier) DisplayName() string {
	if s.TradeName != "" {
		return s.TradeName
	}
	return s.LegalName
}

type LinkStatus string

const (
	LinkActive    LinkStatus = "active"
	LinkInactive  LinkStatus = "inactive"
	LinkSuspended LinkStatus = "suspended"
)

// SupplierAnchorLink ties a supplier to an anchor company's vendor base.
type SupplierAnchorLink struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	SupplierID      uuid.UUID  `json:"supplier_id" db:"supplier_id"`
	AnchorCompanyID uuid.UUID  `json:"anchor_company_id" db:"anchor_company_id"`
	Status          LinkStatus `json:"status" db:"status"`
	Category        string     `json:"category" db:"category"`
	VendorCode      string     `json:"vendor_code" db:"vendor_code"`
	Notes           string     `json:"notes" db:"notes"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
