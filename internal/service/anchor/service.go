package anchor

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/pkg/errors"
)

type Service struct {
	anchors repository.AnchorRepository
}

func NewService(anchors repository.AnchorRepository) *Service {
	return &Service{anchors: anchors}
}

func (s *Service) Create(ctx context.Context, company *model.AnchorCompany) error {
	if company.Name == "" {
		return errors.NewBadRequest("company name is required", nil)
	}
	if company.TaxID == "" {
		return errors.NewBadRequest("tax id is required", nil)
	}
	company.IsActive = true
	return s.anchors.Create(ctx, company)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.AnchorCompany, error) {
	return s.anchors.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, company *model.AnchorCompany) error {
	if company.Name == "" {
		return errors.NewBadRequest("company name is required", nil)
	}
	return s.anchors.Update(ctx, company)
}

// Deactivate soft-deletes the company; its projects and history stay.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.anchors.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.AnchorCompany, error) {
	return s.anchors.List(ctx)
}
