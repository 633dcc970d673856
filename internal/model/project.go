package model

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectFinished  ProjectStatus = "finished"
	ProjectCancelled ProjectStatus = "cancelled"
	ProjectSuspended ProjectStatus = "suspended"
)

// Project is one strengthening cycle sponsored by an anchor company.
type Project struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	Code            string        `json:"code" db:"code"`
	Name            string        `json:"name" db:"name"`
	AnchorCompanyID uuid.UUID     `json:"anchor_company_id" db:"anchor_company_id"`
	Description     string        `json:"description" db:"description"`
	StartDate       time.Time     `json:"start_date" db:"start_date"`
	PlannedEndDate  time.Time     `json:"planned_end_date" db:"planned_end_date"`
	ActualEndDate   *time.Time    `json:"actual_end_date,omitempty" db:"actual_end_date"`
	Status          ProjectStatus `json:"status" db:"status"`
	DirectorID      *uuid.UUID    `json:"director_id,omitempty" db:"director_id"`

	Budget          *float64 `json:"budget,omitempty" db:"budget"`
	CostPerSupplier *float64 `json:"cost_per_supplier,omitempty" db:"cost_per_supplier"`

	PlannedSupplierCount int `json:"planned_supplier_count" db:"planned_supplier_count"`
	DurationMonths       int `json:"duration_months" db:"duration_months"`
	HoursPerSupplier     int `json:"hours_per_supplier" db:"hours_per_supplier"`

	Objectives string    `json:"objectives" db:"objectives"`
	Scope      string    `json:"scope" db:"scope"`
	Notes      string    `json:"notes" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// DaysRemaining returns the days until the planned end date, negative
// when the project is past due.
func (p *Project) DaysRemaining(now time.Time) int {
	return int(p.PlannedEndDate.Sub(now).Hours() / 24)
}

func (p *Project) IsOverdue(now time.Time) bool {
	return p.Status == ProjectActive && p.DaysRemaining(now) < 0
}
