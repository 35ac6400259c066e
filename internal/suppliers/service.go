package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

type lotCounter interface {
	CountBySupplier(ctx context.Context, supplierID int64) (int64, error)
}

// Service owns supplier lifecycle rules.
type Service struct {
	repo *Repository
	lots lotCounter
}

// NewService wires the supplier service.
func NewService(repo *Repository, lots lotCounter) *Service {
	return &Service{repo: repo, lots: lots}
}

// CreateRequest carries supplier intake fields.
type CreateRequest struct {
	Name    string  `json:"name" validate:"required"`
	Region  *string `json:"region,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

// Create registers a supplier.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	supplier := &models.Supplier{
		Name:    strings.TrimSpace(req.Name),
		Region:  req.Region,
		Contact: req.Contact,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting supplier")
	}
	return supplier, nil
}

// Get loads one supplier.
func (s *Service) Get(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supplier %d not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading supplier")
	}
	return supplier, nil
}

// List returns all suppliers.
func (s *Service) List(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing suppliers")
	}
	return suppliers, nil
}

// Delete removes a supplier. Suppliers with recorded lots cannot be removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.lots.CountBySupplier(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting supplier lots")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf(
			"supplier %d has %d supply lots and cannot be deleted", id, count,
		))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting supplier")
	}
	return nil
}
