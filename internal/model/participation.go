package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxStage is the terminal process stage.
const MaxStage = 4

// StageLabels maps stage numbers to display names.
var StageLabels = map[int]string{
	1: "Diagnosis",
	2: "Planning",
	3: "Implementation",
	4: "Monitoring",
}

type ParticipationStatus string

const (
	ParticipationPending    ParticipationStatus = "pending"
	ParticipationInProgress ParticipationStatus = "in_progress"
	ParticipationCompleted  ParticipationStatus = "completed"
	ParticipationSuspended  ParticipationStatus = "suspended"
	ParticipationWithdrawn  ParticipationStatus = "withdrawn"
)

// Participation is a supplier's enrollment in a project, tracked through
// the four process stages. At most one exists per (supplier, project).
type Participation struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	SupplierID   uuid.UUID  `json:"supplier_id" db:"supplier_id"`
	ProjectID    uuid.UUID  `json:"project_id" db:"project_id"`
	ConsultantID *uuid.UUID `json:"consultant_id,omitempty" db:"consultant_id"`

	CurrentStage int                 `json:"current_stage" db:"current_stage"`
	Status       ParticipationStatus `json:"status" db:"status"`

	StartDate      *time.Time `json:"start_date,omitempty" db:"start_date"`
	PlannedEndDate *time.Time `json:"planned_end_date,omitempty" db:"planned_end_date"`
	ActualEndDate  *time.Time `json:"actual_end_date,omitempty" db:"actual_end_date"`

	// ProgressPercent is derived from stage states and never accepted
	// as input; see the stage service's RecalculateProgress.
	ProgressPercent float64 `json:"progress_percent" db:"progress_percent"`
	HoursConsumed   float64 `json:"hours_consumed" db:"hours_consumed"`
	HoursPlanned    float64 `json:"hours_planned" db:"hours_planned"`

	Notes            string    `json:"notes" db:"notes"`
	SuspensionReason string    `json:"suspension_reason" db:"suspension_reason"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// StageLabel returns the display name of the current stage.
func (p *Participation) StageLabel() string {
	if name, ok := StageLabels[p.CurrentStage]; ok {
		return name
	}
	return "Unknown"
}

// Frozen reports whether stage progression is administratively frozen.
func (p *Participation) Frozen() bool {
	return p.Status == ParticipationSuspended || p.Status == ParticipationWithdrawn
}
