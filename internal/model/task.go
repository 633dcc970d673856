package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task is a unit of implementation work on the stage-3 board.
type Task struct {
	ID      uuid.UUID `json:"id" db:"id"`
	StageID uuid.UUID `json:"stage_id" db:"stage_id"`

	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`

	PlannedStart *time.Time `json:"planned_start,omitempty" db:"planned_start"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty" db:"planned_end"`
	ActualStart  *time.Time `json:"actual_start,omitempty" db:"actual_start"`
	ActualEnd    *time.Time `json:"actual_end,omitempty" db:"actual_end"`

	AssigneeID      *uuid.UUID `json:"assignee_id,omitempty" db:"assignee_id"`
	ProgressPercent int        `json:"progress_percent" db:"progress_percent"`
	SortOrder       int        `json:"sort_order" db:"sort_order"`
	Notes           string     `json:"notes" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SessionModality string

const (
	ModalityOnSite  SessionModality = "on_site"
	ModalityVirtual SessionModality = "virtual"
)

// AccompanimentSession is a consulting session held during
// implementation. Writing one recomputes the stage's accompaniment
// hours and the participation's consumed hours.
type AccompanimentSession struct {
	ID      uuid.UUID `json:"id" db:"id"`
	StageID uuid.UUID `json:"stage_id" db:"stage_id"`

	Date          time.Time       `json:"date" db:"date"`
	DurationHours float64         `json:"duration_hours" db:"duration_hours"`
	Modality      SessionModality `json:"modality" db:"modality"`
	Topics        string          `json:"topics" db:"topics"`
	Commitments   string          `json:"commitments" db:"commitments"`
	Attendees     string          `json:"attendees" db:"attendees"`
	ConsultantID  *uuid.UUID      `json:"consultant_id,omitempty" db:"consultant_id"`
	MinutesPath   string          `json:"minutes_path" db:"minutes_path"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
