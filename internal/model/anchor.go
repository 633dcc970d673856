package model

import (
	"time"

	"github.com/google/uuid"
)

type EconomicSector string

const (
	SectorManufacturing EconomicSector = "manufacturing"
	SectorConstruction  EconomicSector = "construction"
	SectorRetail        EconomicSector = "retail"
	SectorServices      EconomicSector = "services"
	SectorTechnology    EconomicSector = "technology"
	SectorAgribusiness  EconomicSector = "agribusiness"
	SectorEnergy        EconomicSector = "energy"
	SectorFinancial     EconomicSector = "financial"
	SectorHealth        EconomicSector = "health"
	SectorEducation     EconomicSector = "education"
	SectorLogistics     EconomicSector = "logistics"
	SectorOther         EconomicSector = "other"
)

// AnchorCompany is a sponsor company whose supply chain the
// strengthening program targets.
type AnchorCompany struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	TaxID           string         `json:"tax_id" db:"tax_id" binding:"omitempty,taxid"`
	LegalName       string         `json:"legal_name" db:"legal_name"`
	Address         string         `json:"address" db:"address"`
	City            string         `json:"city" db:"city"`
	Region          string         `json:"region" db:"region"`
	Country         string         `json:"country" db:"country"`
	Phone           string         `json:"phone" db:"phone"`
	Email           string         `json:"email" db:"email"`
	Website         string         `json:"website" db:"website"`
	Sector          EconomicSector `json:"sector" db:"sector"`
	Description     string         `json:"description" db:"description"`
	EmployeeCount   *int           `json:"employee_count,omitempty" db:"employee_count"`
	FoundedYear     *int           `json:"founded_year,omitempty" db:"founded_year"`
	ContactName     string         `json:"contact_name" db:"contact_name"`
	ContactPosition string         `json:"contact_position" db:"contact_position"`
	ContactEmail    string         `json:"contact_email" db:"contact_email"`
	ContactPhone    string         `json:"contact_phone" db:"contact_phone"`
	LogoPath        string         `json:"logo_path" db:"logo_path"`
	Notes           string         `json:"notes" db:"notes"`
	IsActive        bool           `json:"is_active" db:"is_active"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

type AnchorUserRole string

const (
	AnchorUserAdmin   AnchorUserRole = "admin"
	AnchorUserManager AnchorUserRole = "manager"
	AnchorUserViewer  AnchorUserRole = "viewer"
)

// AnchorCompanyUser links platform users to an anchor company.
type AnchorCompanyUser struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	UserID          uuid.UUID      `json:"user_id" db:"user_id"`
	AnchorCompanyID uuid.UUID      `json:"anchor_company_id" db:"anchor_company_id"`
	Role            AnchorUserRole `json:"role" db:"role"`
	IsActive        bool           `json:"is_active" db:"is_active"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}
