package mappings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

// Service is the read surface for mappings. Writes go through the
// allocation engine so capacity checks cannot be bypassed.
type Service struct {
	repo *Repository
}

// NewService wires the read service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// ListFilter narrows a mapping listing to one lot or one export.
type ListFilter struct {
	SupplyID *int64
	ExportID *int64
}

// Get loads one mapping.
func (s *Service) Get(ctx context.Context, id int64) (*models.SupplyExportMapping, error) {
	mapping, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("mapping %d not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading mapping")
	}
	return mapping, nil
}

// List returns mappings matching the filter. Supply takes precedence when
// both sides are set.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.SupplyExportMapping, error) {
	var (
		rows []models.SupplyExportMapping
		err  error
	)
	switch {
	case filter.SupplyID != nil:
		rows, err = s.repo.ListBySupply(ctx, *filter.SupplyID)
	case filter.ExportID != nil:
		rows, err = s.repo.ListByExport(ctx, *filter.ExportID)
	default:
		rows, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing mappings")
	}
	return rows, nil
}
