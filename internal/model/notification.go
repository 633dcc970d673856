package model

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSystem   Channel = "system"
)

// AllChannels lists every delivery channel the pipeline knows.
var AllChannels = []Channel{ChannelEmail, ChannelWhatsApp, ChannelSystem}

type EventKind string

const (
	EventWelcome          EventKind = "WELCOME"
	EventProjectAssigned  EventKind = "PROJECT_ASSIGNED"
	EventStageChanged     EventKind = "STAGE_CHANGED"
	EventTaskAssigned     EventKind = "TASK_ASSIGNED"
	EventTaskDue          EventKind = "TASK_DUE"
	EventSessionScheduled EventKind = "SESSION_SCHEDULED"
	EventWorkshopEnrolled EventKind = "WORKSHOP_ENROLLED"
	EventWorkshopReminder EventKind = "WORKSHOP_REMINDER"
	EventCertificateReady EventKind = "CERTIFICATE_READY"
	EventReportReady      EventKind = "REPORT_READY"
	EventKPIAlert         EventKind = "KPI_ALERT"
	EventProjectCompleted EventKind = "PROJECT_COMPLETED"
)

type EventCategory string

const (
	CategoryTasks     EventCategory = "tasks"
	CategorySessions  EventCategory = "sessions"
	CategoryWorkshops EventCategory = "workshops"
	CategoryReports   EventCategory = "reports"
	CategoryAlerts    EventCategory = "alerts"
	CategoryGeneral   EventCategory = "general"
)

// Category groups events for per-user opt-outs. General events cannot
// be muted by category, only by disabling the channel.
func (e EventKind) Category() EventCategory {
	switch e {
	case EventTaskAssigned, EventTaskDue:
		return CategoryTasks
	case EventSessionScheduled:
		return CategorySessions
	case EventWorkshopEnrolled, EventWorkshopReminder, EventCertificateReady:
		return CategoryWorkshops
	case EventReportReady:
		return CategoryReports
	case EventKPIAlert:
		return CategoryAlerts
	default:
		return CategoryGeneral
	}
}

// Template is the per-(event, channel) message blueprint. At most one
// exists per pair; retired templates stay for history but are skipped
// during fan-out.
type Template struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Event    EventKind `json:"event" db:"event"`
	Channel  Channel   `json:"channel" db:"channel"`
	Subject  string    `json:"subject" db:"subject"`
	Body     string    `json:"body" db:"body"`
	HTMLBody string    `json:"html_body" db:"html_body"`
	IsActive bool      `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationRead    NotificationStatus = "read"
	NotificationFailed  NotificationStatus = "failed"
)

// MaxDeliveryAttempts bounds retries; a notification that fails this
// many times is terminally failed and only an out-of-band resend can
// revive it.
const MaxDeliveryAttempts = 3

// Notification is one message addressed to one user on one channel.
type Notification struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	TemplateID *uuid.UUID `json:"template_id,omitempty" db:"template_id"`

	Channel  Channel `json:"channel" db:"channel"`
	Subject  string  `json:"subject" db:"subject"`
	Body     string  `json:"body" db:"body"`
	HTMLBody string  `json:"html_body,omitempty" db:"html_body"`
	Link     string  `json:"link" db:"link"`

	Status      NotificationStatus `json:"status" db:"status"`
	ScheduledAt *time.Time         `json:"scheduled_at,omitempty" db:"scheduled_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty" db:"sent_at"`
	ReadAt      *time.Time         `json:"read_at,omitempty" db:"read_at"`
	Attempts    int                `json:"attempts" db:"attempts"`
	LastError   string             `json:"last_error" db:"last_error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Priority int

const (
	PriorityQueueLow    Priority = 1
	PriorityQueueNormal Priority = 2
	PriorityQueueHigh   Priority = 3
	PriorityQueueUrgent Priority = 4
)

// QueueEntry schedules exactly one delivery attempt for a notification.
// A retriable failure gets a fresh entry; a processed entry is never
// reused.
type QueueEntry struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	NotificationID uuid.UUID  `json:"notification_id" db:"notification_id"`
	Priority       Priority   `json:"priority" db:"priority"`
	Processed      bool       `json:"processed" db:"processed"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Preference holds a user's channel and category toggles. Consulted at
// fan-out time only, never mutated by the pipeline.
type Preference struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	EmailEnabled    bool `json:"email_enabled" db:"email_enabled"`
	WhatsAppEnabled bool `json:"whatsapp_enabled" db:"whatsapp_enabled"`
	SystemEnabled   bool `json:"system_enabled" db:"system_enabled"`

	NotifyTasks     bool `json:"notify_tasks" db:"notify_tasks"`
	NotifySessions  bool `json:"notify_sessions" db:"notify_sessions"`
	NotifyWorkshops bool `json:"notify_workshops" db:"notify_workshops"`
	NotifyReports   bool `json:"notify_reports" db:"notify_reports"`
	NotifyAlerts    bool `json:"notify_alerts" db:"notify_alerts"`

	QuietHoursStart *string `json:"quiet_hours_start,omitempty" db:"quiet_hours_start"`
	QuietHoursEnd   *string `json:"quiet_hours_end,omitempty" db:"quiet_hours_end"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPreference mirrors the defaults applied on first lookup.
func DefaultPreference(userID uuid.UUID) *Preference {
	return &Preference{
		UserID:          userID,
		EmailEnabled:    true,
		WhatsAppEnabled: false,
		SystemEnabled:   true,
		NotifyTasks:     true,
		NotifySessions:  true,
		NotifyWorkshops: true,
		NotifyReports:   true,
		NotifyAlerts:    true,
	}
}

// EnabledChannels returns the channels this preference allows.
func (p *Preference) EnabledChannels() []Channel {
	var out []Channel
	if p.EmailEnabled {
		out = append(out, ChannelEmail)
	}
	if p.WhatsAppEnabled {
		out = append(out, ChannelWhatsApp)
	}
	if p.SystemEnabled {
		out = append(out, ChannelSystem)
	}
	return out
}

// AllowsEvent applies the per-category toggle for the event.
func (p *Preference) AllowsEvent(e EventKind) bool {
	switch e.Category() {
	case CategoryTasks:
		return p.NotifyTasks
	case CategorySessions:
		return p.NotifySessions
	case CategoryWorkshops:
		return p.NotifyWorkshops
	case CategoryReports:
		return p.NotifyReports
	case CategoryAlerts:
		return p.NotifyAlerts
	default:
		return true
	}
}

// DeliveryHistory is the append-only audit of delivery attempts.
type DeliveryHistory struct {
	ID             uuid.UUID `json:"id" db:"id"`
	NotificationID uuid.UUID `json:"notification_id" db:"notification_id"`
	Channel        Channel   `json:"channel" db:"channel"`
	Recipient      string    `json:"recipient" db:"recipient"`
	Success        bool      `json:"success" db:"success"`
	Response       string    `json:"response" db:"response"`
	ExternalID     string    `json:"external_id" db:"external_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// InboxEvent is the payload published to the in-app channel when a
// system notification is delivered.
type InboxEvent struct {
	ID             uuid.UUID `json:"id"`
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}
