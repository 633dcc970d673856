package model

import (
	"time"

	"github.com/google/uuid"
)

// StageStatus is shared by the diagnosis, implementation and monitoring
// stages. The planning stage carries its own approval-centric statuses.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
)

type PlanStatus string

const (
	PlanPending  PlanStatus = "pending"
	PlanDrafting PlanStatus = "in_progress"
	PlanInReview PlanStatus = "in_review"
	PlanApproved PlanStatus = "approved"
	PlanRejected PlanStatus = "rejected"
)

// Stage is the uniform view the stage engine dispatches on: each stage
// record reports whether its gate condition holds.
type Stage interface {
	Done() bool
}

// DiagnosisStage is stage 1: the competitiveness diagnosis.
type DiagnosisStage struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	ParticipationID uuid.UUID   `json:"participation_id" db:"participation_id"`
	Status          StageStatus `json:"status" db:"status"`
	StartedAt       *time.Time  `json:"started_at,omitempty" db:"started_at"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty" db:"finished_at"`
	CompletedBy     *uuid.UUID  `json:"completed_by,omitempty" db:"completed_by"`
	Observations    string      `json:"observations" db:"observations"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

func (s *DiagnosisStage) Done() bool { return s.Status == StageCompleted }

// PlanStage is stage 2: the improvement plan, gated on approval.
type PlanStage struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ParticipationID uuid.UUID  `json:"participation_id" db:"participation_id"`
	Status          PlanStatus `json:"status" db:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	ApprovalNotes   string     `json:"approval_notes" db:"approval_notes"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

func (s *PlanStage) Done() bool { return s.Status == PlanApproved }

// ImplementationStage is stage 3: executing the plan. Its progress is
// the completed fraction of its tasks, recomputed in full on every task
// change.
type ImplementationStage struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	ParticipationID    uuid.UUID   `json:"participation_id" db:"participation_id"`
	Status             StageStatus `json:"status" db:"status"`
	StartedAt          *time.Time  `json:"started_at,omitempty" db:"started_at"`
	FinishedAt         *time.Time  `json:"finished_at,omitempty" db:"finished_at"`
	ProgressPercent    float64     `json:"progress_percent" db:"progress_percent"`
	AccompanimentHours float64     `json:"accompaniment_hours" db:"accompaniment_hours"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

func (s *ImplementationStage) Done() bool { return s.Status == StageCompleted }

// MonitoringStage is stage 4: KPI monitoring and closure.
type MonitoringStage struct {
	ID                   uuid.UUID   `json:"id" db:"id"`
	ParticipationID      uuid.UUID   `json:"participation_id" db:"participation_id"`
	Status               StageStatus `json:"status" db:"status"`
	StartedAt            *time.Time  `json:"started_at,omitempty" db:"started_at"`
	FinishedAt           *time.Time  `json:"finished_at,omitempty" db:"finished_at"`
	FinalReportGenerated bool        `json:"final_report_generated" db:"final_report_generated"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" db:"updated_at"`
}

func (s *MonitoringStage) Done() bool { return s.Status == StageCompleted }
