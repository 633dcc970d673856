package supplier

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/pkg/errors"
)

type Service struct {
	suppliers repository.SupplierRepository
	anchors   repository.AnchorRepository
}

func NewService(suppliers repository.SupplierRepository, anchors repository.AnchorRepository) *Service {
	return &Service{suppliers: suppliers, anchors: anchors}
}

func (s *Service) validateSupplier(supplier *model.Supplier) error {
	if supplier.LegalName == "" {
		return errors.NewBadRequest("legal name is required", nil)
	}
	if supplier.TaxID == "" {
		return errors.NewBadRequest("tax id is required", nil)
	}
	return nil
}

// Create registers a supplier. Tax IDs are unique across the platform.
func (s *Service) Create(ctx context.Context, supplier *model.Supplier) error {
	if err := s.validateSupplier(supplier); err != nil {
		return err
	}
	if existing, err := s.suppliers.GetByTaxID(ctx, supplier.TaxID); err == nil && existing != nil {
		return errors.NewConflict("a supplier with this tax id already exists", nil)
	}
	return s.suppliers.Create(ctx, supplier)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	return s.suppliers.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, supplier *model.Supplier) error {
	if err := s.validateSupplier(supplier); err != nil {
		return err
	}
	return s.suppliers.Update(ctx, supplier)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.suppliers.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, filters map[string]interface{}) ([]*model.Supplier, error) {
	return s.suppliers.List(ctx, filters)
}

// LinkToAnchor registers a supplier in an anchor company's vendor base.
func (s *Service) LinkToAnchor(ctx context.Context, supplierID, anchorCompanyID uuid.UUID, category, vendorCode string) (*model.SupplierAnchorLink, error) {
	if _, err := s.suppliers.Get(ctx, supplierID); err != nil {
		return nil, errors.NewNotFound("supplier", err)
	}
	if _, err := s.anchors.Get(ctx, anchorCompanyID); err != nil {
		return nil, errors.NewNotFound("anchor company", err)
	}

	link := &model.SupplierAnchorLink{
		SupplierID:      supplierID,
		AnchorCompanyID: anchorCompanyID,
		Status:          model.LinkActive,
		Category:        category,
		VendorCode:      vendorCode,
	}
	if err := s.suppliers.CreateAnchorLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) ListByAnchor(ctx context.Context, anchorCompanyID uuid.UUID) ([]*model.Supplier, error) {
	return s.suppliers.ListByAnchor(ctx, anchorCompanyID)
}
