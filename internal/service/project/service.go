package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/internal/service/stage"
	"github.com/mcastellanos/procadena/pkg/errors"
	"github.com/mcastellanos/procadena/pkg/logger"
)

type Service struct {
	projects       repository.ProjectRepository
	participations repository.ParticipationRepository
	suppliers      repository.SupplierRepository
	anchors        repository.AnchorRepository
	notifier       stage.Notifier
	logger         *logger.Logger
}

func NewService(
	projects repository.ProjectRepository,
	participations repository.ParticipationRepository,
	suppliers repository.SupplierRepository,
	anchors repository.AnchorRepository,
	notifier stage.Notifier,
	logger *logger.Logger,
) *Service {
	return &Service{
		projects:       projects,
		participations: participations,
		suppliers:      suppliers,
		anchors:        anchors,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *Service) validateProject(p *model.Project) error {
	if p.Name == "" {
		return errors.NewBadRequest("project name is required", nil)
	}
	if p.PlannedEndDate.Before(p.StartDate) {
		return errors.NewBadRequest("planned end date must follow start date", nil)
	}
	if p.PlannedSupplierCount < 0 {
		return errors.NewBadRequest("planned supplier count cannot be negative", nil)
	}
	return nil
}

// Create registers a project under an anchor company with a generated
// sequential code like PRY-2026-0001.
func (s *Service) Create(ctx context.Context, p *model.Project) error {
	if err := s.validateProject(p); err != nil {
		return err
	}
	if _, err := s.anchors.Get(ctx, p.AnchorCompanyID); err != nil {
		return errors.NewNotFound("anchor company", err)
	}

	code, err := s.nextCode(ctx)
	if err != nil {
		return err
	}
	p.Code = code
	if p.Status == "" {
		p.Status = model.ProjectPlanning
	}

	if err := s.projects.Create(ctx, p); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"project_id": p.ID,
		"code":       p.Code,
	}).Info("project created")
	return nil
}

func (s *Service) nextCode(ctx context.Context) (string, error) {
	year := time.Now().Year()
	count, err := s.projects.CountCreatedInYear(ctx, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PRY-%d-%04d", year, count+1), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *model.Project) error {
	if err := s.validateProject(p); err != nil {
		return err
	}
	return s.projects.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, filters map[string]interface{}) ([]*model.Project, error) {
	return s.projects.List(ctx, filters)
}

// Activate moves a planned project into execution.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.ProjectPlanning {
		return nil, errors.NewConflict(fmt.Sprintf("cannot activate project in status %q", p.Status), nil)
	}
	p.Status = model.ProjectActive
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Finish closes an active project.
func (s *Service) Finish(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.ProjectActive {
		return nil, errors.NewConflict(fmt.Sprintf("cannot finish project in status %q", p.Status), nil)
	}
	now := time.Now()
	p.Status = model.ProjectFinished
	p.ActualEndDate = &now
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AssignSupplier enrolls a supplier in the project, creating the
// participation at stage 1. A supplier participates at most once per
// project.
func (s *Service) AssignSupplier(ctx context.Context, projectID, supplierID uuid.UUID, consultantID *uuid.UUID) (*model.Participation, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, errors.NewNotFound("project", err)
	}
	if p.Status == model.ProjectFinished || p.Status == model.ProjectCancelled {
		return nil, errors.NewConflict("project is closed to enrollment", nil)
	}

	supplier, err := s.suppliers.Get(ctx, supplierID)
	if err != nil {
		return nil, errors.NewNotFound("supplier", err)
	}

	existing, err := s.participations.GetBySupplierAndProject(ctx, supplierID, projectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewConflict("supplier already participates in this project", nil)
	}

	participation := &model.Participation{
		SupplierID:   supplierID,
		ProjectID:    projectID,
		ConsultantID: consultantID,
		CurrentStage: 1,
		Status:       model.ParticipationPending,
		HoursPlanned: float64(p.HoursPerSupplier),
	}
	if err := s.participations.Create(ctx, participation); err != nil {
		return nil, err
	}

	if supplier.UserID != nil && s.notifier != nil {
		s.notifier.Notify(ctx, *supplier.UserID, model.EventProjectAssigned, map[string]string{
			"project_name":  p.Name,
			"project_code":  p.Code,
			"supplier_name": supplier.DisplayName(),
		}, model.PriorityQueueHigh)
	}
	return participation, nil
}

// SuspendParticipation freezes stage progression for a supplier.
func (s *Service) SuspendParticipation(ctx context.Context, participationID uuid.UUID, reason string) (*model.Participation, error) {
	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.ParticipationCompleted || p.Status == model.ParticipationWithdrawn {
		return nil, errors.NewConflict(fmt.Sprintf("cannot suspend participation in status %q", p.Status), nil)
	}
	p.Status = model.ParticipationSuspended
	p.SuspensionReason = reason
	if err := s.participations.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ResumeParticipation lifts a suspension.
func (s *Service) ResumeParticipation(ctx context.Context, participationID uuid.UUID) (*model.Participation, error) {
	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.ParticipationSuspended {
		return nil, errors.NewConflict(fmt.Sprintf("participation is not suspended, status %q", p.Status), nil)
	}
	p.Status = model.ParticipationInProgress
	p.SuspensionReason = ""
	if err := s.participations.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// WithdrawParticipation permanently removes a supplier from a project.
func (s *Service) WithdrawParticipation(ctx context.Context, participationID uuid.UUID, reason string) (*model.Participation, error) {
	p, err := s.participations.Get(ctx, participationID)
	if err != nil {
		return nil, err
	}
	if p.Status == model.ParticipationCompleted {
		return nil, errors.NewConflict("completed participations cannot be withdrawn", nil)
	}
	now := time.Now()
	p.Status = model.ParticipationWithdrawn
	p.SuspensionReason = reason
	p.ActualEndDate = &now
	if err := s.participations.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListParticipations(ctx context.Context, projectID uuid.UUID) ([]*model.Participation, error) {
	return s.participations.ListByProject(ctx, projectID)
}
