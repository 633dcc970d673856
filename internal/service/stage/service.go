package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/pkg/errors"
	"github.com/mcastellanos/procadena/pkg/logger"
)

// Notifier decouples the stage engine from notification delivery.
// Implementations must not block stage transitions on delivery failures.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event model.EventKind, vars map[string]string, priority model.Priority)
}

// StageTransitionError reports an action attempted from a status that
// does not permit it.
type StageTransitionError struct {
	FromStatus string
	Action     string
}

func (e *StageTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from status %q", e.Action, e.FromStatus)
}

type Service struct {
	participations repository.ParticipationRepository
	stages         repository.StageRepository
	tasks          repository.TaskRepository
	sessions       repository.SessionRepository
	suppliers      repository.SupplierRepository
	notifier       Notifier
	logger         *logger.Logger
}

func NewService(
	participations repository.ParticipationRepository,
	stages repository.StageRepository,
	tasks repository.TaskRepository,
	sessions repository.SessionRepository,
	suppliers repository.SupplierRepository,
	notifier Notifier,
	logger *logger.Logger,
) *Service {
	return &Service{
		participations: participations,
		stages:         stages,
		tasks:          tasks,
		sessions:       sessions,
		suppliers:      suppliers,
		notifier:       notifier,
		logger:         logger,
	}
}

// currentStageRecord loads the stage record for the participation's
// current stage, nil when the stage has never been touched.
func (s *Service) currentStageRecord(ctx context.Context, p *model.Participation) (model.Stage, error) {
	switch p.CurrentStage {
	case 1:
		st, err := s.stages.GetDiagnosis(ctx, p.ID)
		if err != nil || st == nil {
			return nil, err
		}
		return st, nil
	case 2:
		st, err := s.stages.GetPlan(ctx, p.ID)
		if err != nil || st == nil {
			return nil, err
		}
		return st, nil
	case 3:
		st, err := s.stages.GetImplementation(ctx, p.ID)
		if err != nil || st == nil {
			return nil, err
		}
		return st, nil
	case 4:
		st, err := s.stages.GetMonitoring(ctx, p.ID)
		if err != nil || st == nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("invalid stage %d", p.CurrentStage)
	}
}

// CanAdvance reports whether the participation's current stage gate
// holds. Always false at the final stage and for frozen participations.
func (s *Service) CanAdvance(ctx context.Context, participationID uuid.UUID) (bool, error) {
	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return false, err
	}
	if p.CurrentStage >= model.MaxStage || p.Frozen() {
		return false, nil
	}

	record, err := s.currentStageRecord(ctx, p)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	return record.Done(), nil
}

// Advance moves the participation to the next stage when its gate
// holds. It returns false, without side effects, when it does not.
func (s *Service) Advance(ctx context.Context, participationID uuid.UUID) (bool, error) {
	ok, err := s.CanAdvance(ctx, participationID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return false, err
	}

	p.CurrentStage++
	if err := s.participations.Update(ctx, p); err != nil {
		return false, fmt.Errorf("failed to advance participation: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"participation_id": p.ID,
		"stage":            p.CurrentStage,
	}).Info("participation advanced")

	s.notifyStageChange(ctx, p)
	return true, nil
}

// StartDiagnosis opens stage 1 for an enrolled participation.
func (s *Service) StartDiagnosis(ctx context.Context, participationID uuid.UUID) (*model.DiagnosisStage, error) {
	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.Frozen() {
		return nil, errors.NewConflict("participation is suspended", nil)
	}

	stage, err := s.stages.GetOrCreateDiagnosis(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if stage.Status != model.StagePending {
		return nil, &StageTransitionError{FromStatus: string(stage.Status), Action: "start diagnosis"}
	}

	now := time.Now()
	stage.Status = model.StageInProgress
	stage.StartedAt = &now
	if err := s.stages.UpdateDiagnosis(ctx, stage); err != nil {
		return nil, err
	}

	if p.Status == model.ParticipationPending {
		p.Status = model.ParticipationInProgress
		p.StartDate = &now
		if err := s.participations.Update(ctx, p); err != nil {
			return nil, err
		}
	}
	return stage, nil
}

// CompleteDiagnosis closes stage 1 and opens the planning record. The
// participation stays on stage 1 until advanced explicitly.
func (s *Service) CompleteDiagnosis(ctx context.Context, participationID, actorID uuid.UUID, observations string) (*model.DiagnosisStage, error) {
	stage, err := s.stages.GetDiagnosis(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, errors.NewNotFound("diagnosis stage", nil)
	}
	if stage.Status != model.StageInProgress {
		return nil, &StageTransitionError{FromStatus: string(stage.Status), Action: "complete diagnosis"}
	}

	now := time.Now()
	stage.Status = model.StageCompleted
	stage.FinishedAt = &now
	stage.CompletedBy = &actorID
	if observations != "" {
		stage.Observations = observations
	}
	if err := s.stages.UpdateDiagnosis(ctx, stage); err != nil {
		return nil, err
	}

	if _, err := s.stages.GetOrCreatePlan(ctx, participationID); err != nil {
		return nil, err
	}

	if err := s.RecalculateProgress(ctx, participationID); err != nil {
		return nil, err
	}
	return stage, nil
}

// SubmitPlan moves the improvement plan into review.
func (s *Service) SubmitPlan(ctx context.Context, participationID uuid.UUID) (*model.PlanStage, error) {
	stage, err := s.stages.GetPlan(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, errors.NewNotFound("plan stage", nil)
	}
	if stage.Status == model.PlanApproved {
		return nil, &StageTransitionError{FromStatus: string(stage.Status), Action: "submit plan"}
	}

	if stage.Status == model.PlanPending {
		now := time.Now()
		stage.StartedAt = &now
	}
	stage.Status = model.PlanInReview
	if err := s.stages.UpdatePlan(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

// ApprovePlan approves the improvement plan and moves the participation
// onto the implementation stage.
func (s *Service) ApprovePlan(ctx context.Context, participationID, approverID uuid.UUID, notes string) (*model.PlanStage, error) {
	stage, err := s.stages.GetPlan(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, errors.NewNotFound("plan stage", nil)
	}
	if stage.Status == model.PlanApproved {
		return nil, &StageTransitionError{FromStatus: string(stage.Status), Action: "approve plan"}
	}

	now := time.Now()
	stage.Status = model.PlanApproved
	stage.ApprovedBy = &approverID
	stage.ApprovedAt = &now
	stage.FinishedAt = &now
	stage.ApprovalNotes = notes
	if err := s.stages.UpdatePlan(ctx, stage); err != nil {
		return nil, err
	}

	if _, err := s.stages.GetOrCreateImplementation(ctx, participationID); err != nil {
		return nil, err
	}

	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.CurrentStage < 3 {
		p.CurrentStage = 3
		if err := s.participations.Update(ctx, p); err != nil {
			return nil, err
		}
		s.notifyStageChange(ctx, p)
	}

	if err := s.RecalculateProgress(ctx, participationID); err != nil {
		return nil, err
	}
	return stage, nil
}

// RejectPlan sends the plan back to drafting.
func (s *Service) RejectPlan(ctx context.Context, participationID, reviewerID uuid.UUID, notes string) (*model.PlanStage, error) {
	stage, err := s.stages.GetPlan(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, errors.NewNotFound("plan stage", nil)
	}
	if stage.Status != model.PlanInReview {
		return nil, &StageTransitionError{FromStatus: string(stage.Status), Action: "reject plan"}
	}

	stage.Status = model.PlanRejected
	stage.ApprovalNotes = notes
	if err := s.stages.UpdatePlan(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

// CompleteImplementation closes stage 3. All tasks must be done first;
// a stage with no tasks at all cannot be closed.
func (s *Service) CompleteImplementation(ctx context.Context, participationID uuid.UUID) (*model.ImplementationStage, error) {
	stage, err := s.stages.GetImplementation(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, errors.NewNotFound("implementation stage", nil)
	}

	progress, err := s.implementationProgress(ctx, stage.ID)
	if err != nil {
		return nil, err
	}
	if progress < 100 {
		return nil, errors.NewConflict(fmt.Sprintf("implementation is at %.0f%%, all tasks must be completed", progress), nil)
	}

	now := time.Now()
	stage.Status = model.StageCompleted
	stage.FinishedAt = &now
	stage.ProgressPercent = 100
	if err := s.stages.UpdateImplementation(ctx, stage); err != nil {
		return nil, err
	}

	if _, err := s.stages.GetOrCreateMonitoring(ctx, participationID); err != nil {
		return nil, err
	}

	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.CurrentStage < 4 {
		p.CurrentStage = 4
		if err := s.participations.Update(ctx, p); err != nil {
			return nil, err
		}
		s.notifyStageChange(ctx, p)
	}

	if err := s.RecalculateProgress(ctx, participationID); err != nil {
		return nil, err
	}
	return stage, nil
}

// CompleteMonitoring closes stage 4 and the whole participation. The
// closure report must have been generated first.
func (s *Service) CompleteMonitoring(ctx context.Context, participationID uuid.UUID) (*model.MonitoringStage, error) {
	stage, err := s.stages.GetMonitoring(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, errors.NewNotFound("monitoring stage", nil)
	}
	if !stage.FinalReportGenerated {
		return nil, errors.NewConflict("closure report has not been generated", nil)
	}

	now := time.Now()
	stage.Status = model.StageCompleted
	stage.FinishedAt = &now
	if err := s.stages.UpdateMonitoring(ctx, stage); err != nil {
		return nil, err
	}

	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return nil, err
	}
	p.Status = model.ParticipationCompleted
	p.ProgressPercent = 100
	p.ActualEndDate = &now
	if err := s.participations.Update(ctx, p); err != nil {
		return nil, err
	}

	s.notifyCompletion(ctx, p)
	return stage, nil
}

func (s *Service) implementationProgress(ctx context.Context, stageID uuid.UUID) (float64, error) {
	tasks, err := s.tasks.ListByStage(ctx, stageID)
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	completed := 0
	for _, t := range tasks {
		if t.Status == model.TaskCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(tasks)) * 100, nil
}

// RecalculateImplementationProgress recomputes stage-3 progress from
// its task board and propagates it to the participation.
func (s *Service) RecalculateImplementationProgress(ctx context.Context, participationID uuid.UUID) (float64, error) {
	stage, err := s.stages.GetImplementation(ctx, participationID)
	if err != nil {
		return 0, err
	}
	if stage == nil {
		return 0, errors.NewNotFound("implementation stage", nil)
	}

	progress, err := s.implementationProgress(ctx, stage.ID)
	if err != nil {
		return 0, err
	}

	stage.ProgressPercent = progress
	if stage.Status == model.StagePending && progress > 0 {
		now := time.Now()
		stage.Status = model.StageInProgress
		stage.StartedAt = &now
	}
	if err := s.stages.UpdateImplementation(ctx, stage); err != nil {
		return 0, err
	}

	if err := s.RecalculateProgress(ctx, participationID); err != nil {
		return 0, err
	}
	return progress, nil
}

// RecalculateProgress recomputes the participation's weighted progress:
// each stage contributes 25 points, stage 3 proportionally to its task
// completion. Untouched stages contribute nothing.
func (s *Service) RecalculateProgress(ctx context.Context, participationID uuid.UUID) error {
	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return err
	}

	var progress float64

	diagnosis, err := s.stages.GetDiagnosis(ctx, participationID)
	if err != nil {
		return err
	}
	if diagnosis != nil && diagnosis.Done() {
		progress += 25
	}

	plan, err := s.stages.GetPlan(ctx, participationID)
	if err != nil {
		return err
	}
	if plan != nil && plan.Done() {
		progress += 25
	}

	impl, err := s.stages.GetImplementation(ctx, participationID)
	if err != nil {
		return err
	}
	if impl != nil {
		progress += 0.25 * impl.ProgressPercent
	}

	monitoring, err := s.stages.GetMonitoring(ctx, participationID)
	if err != nil {
		return err
	}
	if monitoring != nil && monitoring.Done() {
		progress += 25
	}

	p.ProgressPercent = progress
	return s.participations.Update(ctx, p)
}

// CreateTask adds a task to the implementation board and recomputes
// progress. Assignees are notified.
func (s *Service) CreateTask(ctx context.Context, participationID uuid.UUID, task *model.Task) error {
	stage, err := s.stages.GetOrCreateImplementation(ctx, participationID)
	if err != nil {
		return err
	}
	task.StageID = stage.ID
	if task.Status == "" {
		task.Status = model.TaskPending
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return err
	}

	if _, err := s.RecalculateImplementationProgress(ctx, participationID); err != nil {
		return err
	}

	if task.AssigneeID != nil && s.notifier != nil {
		s.notifier.Notify(ctx, *task.AssigneeID, model.EventTaskAssigned, map[string]string{
			"task_title": task.Title,
			"priority":   string(task.Priority),
		}, model.PriorityQueueNormal)
	}
	return nil
}

// UpdateTask saves task changes and recomputes progress.
func (s *Service) UpdateTask(ctx context.Context, participationID uuid.UUID, task *model.Task) error {
	if task.Status == model.TaskCompleted && task.ActualEnd == nil {
		now := time.Now()
		task.ActualEnd = &now
		task.ProgressPercent = 100
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return err
	}
	_, err := s.RecalculateImplementationProgress(ctx, participationID)
	return err
}

// DeleteTask removes a task and recomputes progress.
func (s *Service) DeleteTask(ctx context.Context, participationID, taskID uuid.UUID) error {
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	_, err := s.RecalculateImplementationProgress(ctx, participationID)
	return err
}

// RecordSession logs an accompaniment session and recomputes the hour
// counters on the stage and the participation.
func (s *Service) RecordSession(ctx context.Context, participationID uuid.UUID, session *model.AccompanimentSession) error {
	stage, err := s.stages.GetOrCreateImplementation(ctx, participationID)
	if err != nil {
		return err
	}
	session.StageID = stage.ID

	if err := s.sessions.Create(ctx, session); err != nil {
		return err
	}

	hours, err := s.sessions.SumHoursByStage(ctx, stage.ID)
	if err != nil {
		return err
	}
	stage.AccompanimentHours = hours
	if err := s.stages.UpdateImplementation(ctx, stage); err != nil {
		return err
	}

	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return err
	}
	p.HoursConsumed = hours
	if err := s.participations.Update(ctx, p); err != nil {
		return err
	}

	s.notifySupplier(ctx, p, model.EventSessionScheduled, map[string]string{
		"session_date": session.Date.Format("2006-01-02"),
		"modality":     string(session.Modality),
	}, model.PriorityQueueNormal)
	return nil
}

func (s *Service) notifyStageChange(ctx context.Context, p *model.Participation) {
	s.notifySupplier(ctx, p, model.EventStageChanged, map[string]string{
		"stage_number": fmt.Sprintf("%d", p.CurrentStage),
		"stage_name":   p.StageLabel(),
	}, model.PriorityQueueHigh)
}

func (s *Service) notifyCompletion(ctx context.Context, p *model.Participation) {
	s.notifySupplier(ctx, p, model.EventProjectCompleted, map[string]string{
		"stage_name": p.StageLabel(),
	}, model.PriorityQueueHigh)
}

func (s *Service) notifySupplier(ctx context.Context, p *model.Participation, event model.EventKind, vars map[string]string, priority model.Priority) {
	if s.notifier == nil {
		return
	}
	supplier, err := s.suppliers.Get(ctx, p.SupplierID)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"supplier_id": p.SupplierID,
		}).Warn("failed to load supplier for notification")
		return
	}
	if supplier.UserID == nil {
		return
	}
	if vars == nil {
		vars = map[string]string{}
	}
	vars["supplier_name"] = supplier.DisplayName()
	s.notifier.Notify(ctx, *supplier.UserID, event, vars, priority)
}
