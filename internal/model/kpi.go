package model

import (
	"time"

	"github.com/google/uuid"
)

type KPITrend string

const (
	TrendImproving KPITrend = "improving"
	TrendStable    KPITrend = "stable"
	TrendWorsening KPITrend = "worsening"
)

type MeasurementFrequency string

const (
	FrequencyWeekly   MeasurementFrequency = "weekly"
	FrequencyBiweekly MeasurementFrequency = "biweekly"
	FrequencyMonthly  MeasurementFrequency = "monthly"
)

// KPI is a performance indicator tracked during the monitoring stage.
type KPI struct {
	ID      uuid.UUID `json:"id" db:"id"`
	StageID uuid.UUID `json:"stage_id" db:"stage_id"`

	Name         string               `json:"name" db:"name"`
	Description  string               `json:"description" db:"description"`
	InitialValue float64              `json:"initial_value" db:"initial_value"`
	CurrentValue float64              `json:"current_value" db:"current_value"`
	TargetValue  float64              `json:"target_value" db:"target_value"`
	Unit         string               `json:"unit" db:"unit"`
	Frequency    MeasurementFrequency `json:"frequency" db:"frequency"`
	Trend        KPITrend             `json:"trend" db:"trend"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CompliancePercent is the target attainment capped at 100, 0 when no
// target is set.
func (k *KPI) CompliancePercent() float64 {
	if k.TargetValue == 0 {
		return 0
	}
	pct := k.CurrentValue / k.TargetValue * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// KPIMeasurement is one recorded reading of a KPI.
type KPIMeasurement struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	KPIID        uuid.UUID  `json:"kpi_id" db:"kpi_id"`
	MeasuredOn   time.Time  `json:"measured_on" db:"measured_on"`
	Value        float64    `json:"value" db:"value"`
	Observations string     `json:"observations" db:"observations"`
	RecordedBy   *uuid.UUID `json:"recorded_by,omitempty" db:"recorded_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// WeeklyReport summarizes one week of the monitoring stage.
type WeeklyReport struct {
	ID      uuid.UUID `json:"id" db:"id"`
	StageID uuid.UUID `json:"stage_id" db:"stage_id"`

	WeekNumber   int        `json:"week_number" db:"week_number"`
	WeekStart    time.Time  `json:"week_start" db:"week_start"`
	WeekEnd      time.Time  `json:"week_end" db:"week_end"`
	Summary      string     `json:"summary" db:"summary"`
	Achievements string     `json:"achievements" db:"achievements"`
	Difficulties string     `json:"difficulties" db:"difficulties"`
	NextActions  string     `json:"next_actions" db:"next_actions"`
	Sent         bool       `json:"sent" db:"sent"`
	SentAt       *time.Time `json:"sent_at,omitempty" db:"sent_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ClosureReport is the final strengthening report; generating one
// unlocks completion of the monitoring stage.
type ClosureReport struct {
	ID      uuid.UUID `json:"id" db:"id"`
	StageID uuid.UUID `json:"stage_id" db:"stage_id"`

	ExecutiveSummary        string     `json:"executive_summary" db:"executive_summary"`
	AchievedObjectives      string     `json:"achieved_objectives" db:"achieved_objectives"`
	ImplementedImprovements string     `json:"implemented_improvements" db:"implemented_improvements"`
	KPIResults              JSONMap    `json:"kpi_results" db:"kpi_results"`
	LessonsLearned          string     `json:"lessons_learned" db:"lessons_learned"`
	Recommendations         string     `json:"recommendations" db:"recommendations"`
	PDFPath                 string     `json:"pdf_path" db:"pdf_path"`
	SignedBy                *uuid.UUID `json:"signed_by,omitempty" db:"signed_by"`
	SignedAt                *time.Time `json:"signed_at,omitempty" db:"signed_at"`
	GeneratedAt             time.Time  `json:"generated_at" db:"generated_at"`
}
