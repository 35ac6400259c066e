package supplies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox/payloads"
	"github.com/coaltrack/coaltrack-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type supplierReader interface {
	FindByID(ctx context.Context, id int64) (*models.Supplier, error)
}

type mappingCounter interface {
	CountBySupply(ctx context.Context, supplyID int64) (int64, error)
}

// Service owns supply lot intake and lifecycle rules.
type Service struct {
	tx        txRunner
	repo      *Repository
	suppliers supplierReader
	mappings  mappingCounter
	events    eventEmitter
	logg      *logger.Logger
}

// ServiceParams configures NewService. Logger may be nil.
type ServiceParams struct {
	Tx        txRunner
	Repo      *Repository
	Suppliers supplierReader
	Mappings  mappingCounter
	Events    eventEmitter
	Logger    *logger.Logger
}

// NewService wires the supply service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Tx == nil || params.Repo == nil {
		return nil, errors.New("tx runner and repository are required")
	}
	if params.Suppliers == nil || params.Mappings == nil || params.Events == nil {
		return nil, errors.New("supplier reader, mapping counter and event emitter are required")
	}
	return &Service{
		tx:        params.Tx,
		repo:      params.Repo,
		suppliers: params.Suppliers,
		mappings:  params.Mappings,
		events:    params.Events,
		logg:      params.Logger,
	}, nil
}

// CreateRequest carries intake fields for one delivered lot.
type CreateRequest struct {
	SupplierID   int64     `json:"supplier_id" validate:"required,gt=0"`
	TotalBags    int       `json:"total_bags" validate:"required,gt=0"`
	GradeABags   int       `json:"grade_a_bags" validate:"gte=0"`
	GradeBBags   int       `json:"grade_b_bags" validate:"gte=0"`
	RejectedBags int       `json:"rejected_bags" validate:"gte=0"`
	SupplyDate   time.Time `json:"supply_date" validate:"required"`
}

// Create records a delivered lot. The grade split must account for every bag.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.SupplyLot, error) {
	if err := validateIntake(req); err != nil {
		return nil, err
	}
	if _, err := s.suppliers.FindByID(ctx, req.SupplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supplier %d not found", req.SupplierID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading supplier")
	}

	lot := &models.SupplyLot{
		SupplierID:   req.SupplierID,
		TotalBags:    req.TotalBags,
		GradeABags:   req.GradeABags,
		GradeBBags:   req.GradeBBags,
		RejectedBags: req.RejectedBags,
		SupplyDate:   req.SupplyDate,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, lot); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting supply lot")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventSupplyLotCreated,
			AggregateType: enums.AggregateSupplyLot,
			AggregateID:   lot.ID,
			Data: payloads.SupplyLotCreatedEvent{
				SupplyID:   lot.ID,
				SupplierID: lot.SupplierID,
				TotalBags:  lot.TotalBags,
				SupplyDate: lot.SupplyDate.Format(time.RFC3339),
			},
			Version: 1,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing lot event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithSupplyID(ctx, lot.ID), fmt.Sprintf(
			"supply lot recorded: %d bags from supplier %d", lot.TotalBags, lot.SupplierID,
		))
	}
	return lot, nil
}

func validateIntake(req CreateRequest) error {
	switch {
	case req.SupplierID < 1:
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier_id is required")
	case req.TotalBags < 1:
		return pkgerrors.New(pkgerrors.CodeValidation, "total_bags must be a positive integer")
	case req.GradeABags < 0 || req.GradeBBags < 0 || req.RejectedBags < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "bag counts cannot be negative")
	case req.GradeABags+req.GradeBBags+req.RejectedBags != req.TotalBags:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf(
			"grade split %d+%d+%d does not account for %d total bags",
			req.GradeABags, req.GradeBBags, req.RejectedBags, req.TotalBags,
		))
	case req.SupplyDate.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "supply_date is required")
	}
	return nil
}

// Get loads one lot.
func (s *Service) Get(ctx context.Context, id int64) (*models.SupplyLot, error) {
	lot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supply lot %d not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading supply lot")
	}
	return lot, nil
}

// List returns one page of lots plus the cursor for the next page, empty
// when this is the last page.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.SupplyLot, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	lots, err := s.repo.ListPage(ctx, cursor, limit)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing supply lots")
	}
	next := ""
	if len(lots) > limit {
		lots = lots[:limit]
		last := lots[len(lots)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return lots, next, nil
}

// Delete removes a lot that no export is drawing from.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.mappings.CountBySupply(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting lot mappings")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf(
			"supply lot %d is referenced by %d mappings and cannot be deleted", id, count,
		))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting supply lot")
	}
	return nil
}
