package workshop

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/internal/service/stage"
	"github.com/mcastellanos/procadena/pkg/errors"
)

type Service struct {
	workshops repository.WorkshopRepository
	notifier  stage.Notifier
}

func NewService(workshops repository.WorkshopRepository, notifier stage.Notifier) *Service {
	return &Service{workshops: workshops, notifier: notifier}
}

func (s *Service) Create(ctx context.Context, w *model.Workshop) error {
	if w.Name == "" {
		return errors.NewBadRequest("workshop name is required", nil)
	}
	if w.Capacity < 0 {
		return errors.NewBadRequest("capacity cannot be negative", nil)
	}
	return s.workshops.Create(ctx, w)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Workshop, error) {
	return s.workshops.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Workshop, error) {
	return s.workshops.List(ctx)
}

func (s *Service) ScheduleSession(ctx context.Context, session *model.WorkshopSession) error {
	if _, err := s.workshops.Get(ctx, session.WorkshopID); err != nil {
		return errors.NewNotFound("workshop", err)
	}
	if session.Status == "" {
		session.Status = model.WorkshopSessionScheduled
	}
	return s.workshops.CreateSession(ctx, session)
}

// Enroll registers a user in a workshop, subject to capacity.
func (s *Service) Enroll(ctx context.Context, workshopID, userID uuid.UUID) (*model.WorkshopEnrollment, error) {
	w, err := s.workshops.Get(ctx, workshopID)
	if err != nil {
		return nil, errors.NewNotFound("workshop", err)
	}

	enrollments, err := s.workshops.ListEnrollments(ctx, workshopID, "")
	if err != nil {
		return nil, err
	}

	active := 0
	for _, e := range enrollments {
		if e.UserID == userID && e.Status != model.EnrollmentCancelled {
			return nil, errors.NewConflict("user is already enrolled", nil)
		}
		if e.Status == model.EnrollmentPending || e.Status == model.EnrollmentConfirmed {
			active++
		}
	}
	if w.Capacity > 0 && active >= w.Capacity {
		return nil, errors.NewConflict("workshop is at capacity", nil)
	}

	enrollment := &model.WorkshopEnrollment{
		WorkshopID: workshopID,
		UserID:     userID,
		Status:     model.EnrollmentConfirmed,
	}
	if err := s.workshops.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, model.EventWorkshopEnrolled, map[string]string{
			"workshop_name": w.Name,
		}, model.PriorityQueueNormal)
	}
	return enrollment, nil
}

func (s *Service) findActiveEnrollment(ctx context.Context, workshopID, userID uuid.UUID) (*model.WorkshopEnrollment, error) {
	enrollments, err := s.workshops.ListEnrollments(ctx, workshopID, "")
	if err != nil {
		return nil, err
	}
	for _, e := range enrollments {
		if e.UserID == userID && e.Status != model.EnrollmentCancelled {
			return e, nil
		}
	}
	return nil, errors.NewNotFound("enrollment", nil)
}

// CancelEnrollment frees the seat.
func (s *Service) CancelEnrollment(ctx context.Context, workshopID, userID uuid.UUID) (*model.WorkshopEnrollment, error) {
	enrollment, err := s.findActiveEnrollment(ctx, workshopID, userID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == model.EnrollmentAttended {
		return nil, errors.NewConflict("attended enrollments cannot be cancelled", nil)
	}
	enrollment.Status = model.EnrollmentCancelled
	if err := s.workshops.UpdateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// MarkAttended records attendance after a held session.
func (s *Service) MarkAttended(ctx context.Context, workshopID, userID uuid.UUID) (*model.WorkshopEnrollment, error) {
	enrollment, err := s.findActiveEnrollment(ctx, workshopID, userID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != model.EnrollmentConfirmed {
		return nil, errors.NewConflict("only confirmed enrollments can be marked attended", nil)
	}
	enrollment.Status = model.EnrollmentAttended
	if err := s.workshops.UpdateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}
