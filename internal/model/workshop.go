package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkshopModality string

const (
	WorkshopOnSite  WorkshopModality = "on_site"
	WorkshopVirtual WorkshopModality = "virtual"
	WorkshopHybrid  WorkshopModality = "hybrid"
)

// Workshop is a group training activity offered inside the program.
type Workshop struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	AnchorCompanyID *uuid.UUID       `json:"anchor_company_id,omitempty" db:"anchor_company_id"`
	Name            string           `json:"name" db:"name"`
	Description     string           `json:"description" db:"description"`
	Modality        WorkshopModality `json:"modality" db:"modality"`
	FacilitatorID   *uuid.UUID       `json:"facilitator_id,omitempty" db:"facilitator_id"`
	Capacity        int              `json:"capacity" db:"capacity"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

type WorkshopSessionStatus string

const (
	WorkshopSessionScheduled WorkshopSessionStatus = "scheduled"
	WorkshopSessionHeld      WorkshopSessionStatus = "held"
	WorkshopSessionCancelled WorkshopSessionStatus = "cancelled"
)

// WorkshopSession is a scheduled occurrence of a workshop.
type WorkshopSession struct {
	ID          uuid.UUID             `json:"id" db:"id"`
	WorkshopID  uuid.UUID             `json:"workshop_id" db:"workshop_id"`
	Date        time.Time             `json:"date" db:"date"`
	StartTime   string                `json:"start_time" db:"start_time"`
	Location    string                `json:"location" db:"location"`
	VirtualLink string                `json:"virtual_link" db:"virtual_link"`
	Status      WorkshopSessionStatus `json:"status" db:"status"`
	CreatedAt   time.Time             `json:"created_at" db:"created_at"`
}

type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentConfirmed EnrollmentStatus = "confirmed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentAttended  EnrollmentStatus = "attended"
)

// WorkshopEnrollment registers a user in a workshop.
type WorkshopEnrollment struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	WorkshopID uuid.UUID        `json:"workshop_id" db:"workshop_id"`
	UserID     uuid.UUID        `json:"user_id" db:"user_id"`
	Status     EnrollmentStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}
