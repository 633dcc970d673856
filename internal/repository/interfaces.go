package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		List(ctx context.Context, role model.UserRole) ([]*model.User, error)
	}

	AnchorRepository interface {
		Create(ctx context.Context, company *model.AnchorCompany) error
		Get(ctx context.Context, id uuid.UUID) (*model.AnchorCompany, error)
		Update(ctx context.Context, company *model.AnchorCompany) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.AnchorCompany, error)
	}

	SupplierRepository interface {
		Create(ctx context.Context, supplier *model.Supplier) error
		Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
		GetByTaxID(ctx context.Context, taxID string) (*model.Supplier, error)
		Update(ctx context.Context, supplier *model.Supplier) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters map[string]interface{}) ([]*model.Supplier, error)
		CreateAnchorLink(ctx context.Context, link *model.SupplierAnchorLink) error
		ListByAnchor(ctx context.Context, anchorCompanyID uuid.UUID) ([]*model.Supplier, error)
	}

	ProjectRepository interface {
		Create(ctx context.Context, project *model.Project) error
		Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
		Update(ctx context.Context, project *model.Project) error
		List(ctx context.Context, filters map[string]interface{}) ([]*model.Project, error)
		CountCreatedInYear(ctx context.Context, year int) (int, error)
	}

	ParticipationRepository interface {
		Create(ctx context.Context, p *model.Participation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Participation, error)
		GetBySupplierAndProject(ctx context.Context, supplierID, projectID uuid.UUID) (*model.Participation, error)
		Update(ctx context.Context, p *model.Participation) error
		ListByProject(ctx context.Context, projectID uuid.UUID) ([]*model.Participation, error)
		ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*model.Participation, error)
	}

	// StageRepository persists the four per-participation stage records.
	// Get methods return (nil, nil) when the stage has not been touched
	// yet; GetOrCreate methods insert a pending record on first touch.
	StageRepository interface {
		GetDiagnosis(ctx context.Context, participationID uuid.UUID) (*model.DiagnosisStage, error)
		GetOrCreateDiagnosis(ctx context.Context, participationID uuid.UUID) (*model.DiagnosisStage, error)
		UpdateDiagnosis(ctx context.Context, stage *model.DiagnosisStage) error

		GetPlan(ctx context.Context, participationID uuid.UUID) (*model.PlanStage, error)
		GetOrCreatePlan(ctx context.Context, participationID uuid.UUID) (*model.PlanStage, error)
		UpdatePlan(ctx context.Context, stage *model.PlanStage) error

		GetImplementation(ctx context.Context, participationID uuid.UUID) (*model.ImplementationStage, error)
		GetOrCreateImplementation(ctx context.Context, participationID uuid.UUID) (*model.ImplementationStage, error)
		UpdateImplementation(ctx context.Context, stage *model.ImplementationStage) error

		GetMonitoring(ctx context.Context, participationID uuid.UUID) (*model.MonitoringStage, error)
		GetOrCreateMonitoring(ctx context.Context, participationID uuid.UUID) (*model.MonitoringStage, error)
		UpdateMonitoring(ctx context.Context, stage *model.MonitoringStage) error
	}

	TaskRepository interface {
		Create(ctx context.Context, task *model.Task) error
		Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
		Update(ctx context.Context, task *model.Task) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByStage(ctx context.Context, stageID uuid.UUID) ([]*model.Task, error)
		ListDueOn(ctx context.Context, date time.Time) ([]*model.Task, error)
	}

	SessionRepository interface {
		Create(ctx context.Context, session *model.AccompanimentSession) error
		ListByStage(ctx context.Context, stageID uuid.UUID) ([]*model.AccompanimentSession, error)
		SumHoursByStage(ctx context.Context, stageID uuid.UUID) (float64, error)
	}

	KPIRepository interface {
		Create(ctx context.Context, kpi *model.KPI) error
		Get(ctx context.Context, id uuid.UUID) (*model.KPI, error)
		Update(ctx context.Context, kpi *model.KPI) error
		ListByStage(ctx context.Context, stageID uuid.UUID) ([]*model.KPI, error)
		CreateMeasurement(ctx context.Context, m *model.KPIMeasurement) error
		ListMeasurements(ctx context.Context, kpiID uuid.UUID, limit int) ([]*model.KPIMeasurement, error)
		CreateWeeklyReport(ctx context.Context, r *model.WeeklyReport) error
		CreateClosureReport(ctx context.Context, r *model.ClosureReport) error
		GetClosureReport(ctx context.Context, stageID uuid.UUID) (*model.ClosureReport, error)
	}

	WorkshopRepository interface {
		Create(ctx context.Context, workshop *model.Workshop) error
		Get(ctx context.Context, id uuid.UUID) (*model.Workshop, error)
		List(ctx context.Context) ([]*model.Workshop, error)
		CreateSession(ctx context.Context, session *model.WorkshopSession) error
		ListSessionsOn(ctx context.Context, date time.Time) ([]*model.WorkshopSession, error)
		CreateEnrollment(ctx context.Context, enrollment *model.WorkshopEnrollment) error
		UpdateEnrollment(ctx context.Context, enrollment *model.WorkshopEnrollment) error
		ListEnrollments(ctx context.Context, workshopID uuid.UUID, status model.EnrollmentStatus) ([]*model.WorkshopEnrollment, error)
	}

	NotificationRepository interface {
		// CreateWithQueueEntry inserts a notification and its queue
		// entry in one transaction; neither row exists if either
		// insert fails.
		CreateWithQueueEntry(ctx context.Context, n *model.Notification, entry *model.QueueEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		Update(ctx context.Context, n *model.Notification) error
		ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
		// DeleteReadCreatedBefore removes read notifications whose
		// creation date is past the retention window. Age, not read
		// time, drives the sweep.
		DeleteReadCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

		Enqueue(ctx context.Context, entry *model.QueueEntry) error
		ListUnprocessed(ctx context.Context, limit int) ([]*model.QueueEntry, error)
		MarkProcessed(ctx context.Context, entryID uuid.UUID) error
		CountUnprocessed(ctx context.Context) (int, error)

		CreateHistory(ctx context.Context, h *model.DeliveryHistory) error
		ListHistory(ctx context.Context, notificationID uuid.UUID) ([]*model.DeliveryHistory, error)
	}

	TemplateRepository interface {
		Create(ctx context.Context, t *model.Template) error
		Update(ctx context.Context, t *model.Template) error
		// GetActive returns (nil, nil) when no active template exists
		// for the pair.
		GetActive(ctx context.Context, event model.EventKind, channel model.Channel) (*model.Template, error)
		List(ctx context.Context) ([]*model.Template, error)
	}

	PreferenceRepository interface {
		// GetOrCreate returns the user's preference, inserting the
		// defaults on first lookup.
		GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.Preference, error)
		Update(ctx context.Context, p *model.Preference) error
	}
)
