package exports

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

type investorReader interface {
	FindByID(ctx context.Context, id int64) (*models.Investor, error)
}

// Service owns export shipment lifecycle rules.
type Service struct {
	tx        txRunner
	repo      *Repository
	investors investorReader
	events    eventEmitter
	logg      *logger.Logger
}

// ServiceParams configures NewService. Logger may be nil.
type ServiceParams struct {
	Tx        txRunner
	Repo      *Repository
	Investors investorReader
	Events    eventEmitter
	Logger    *logger.Logger
}

// NewService wires the export service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Tx == nil || params.Repo == nil {
		return nil, errors.New("tx runner and repository are required")
	}
	if params.Investors == nil || params.Events == nil {
		return nil, errors.New("investor reader and event emitter are required")
	}
	return &Service{
		tx:        params.Tx,
		repo:      params.Repo,
		investors: params.Investors,
		events:    params.Events,
		logg:      params.Logger,
	}, nil
}

// CreateRequest carries fields for registering an export shipment.
type CreateRequest struct {
	QuantityBags int    `json:"quantity_bags" validate:"required,gt=0"`
	Destination  string `json:"destination" validate:"required"`
	InvestorID   *int64 `json:"investor_id,omitempty"`
}

// Create registers a shipment with PENDING status.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.ExportShipment, error) {
	if req.QuantityBags < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_bags must be a positive integer")
	}
	if strings.TrimSpace(req.Destination) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination is required")
	}
	if req.InvestorID != nil {
		if err := s.checkInvestor(ctx, *req.InvestorID); err != nil {
			return nil, err
		}
	}

	shipment := &models.ExportShipment{
		QuantityBags: req.QuantityBags,
		Destination:  strings.TrimSpace(req.Destination),
		Status:       enums.ExportStatusPending,
		InvestorID:   req.InvestorID,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting export shipment")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventExportCreated,
			AggregateType: enums.AggregateExportShipment,
			AggregateID:   shipment.ID,
			Data: payloads.ExportCreatedEvent{
				ExportID:     shipment.ID,
				QuantityBags: shipment.QuantityBags,
				Destination:  shipment.Destination,
			},
			Version: 1,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing export event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

// Get loads one shipment.
func (s *Service) Get(ctx context.Context, id int64) (*models.ExportShipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("export shipment %d not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading export shipment")
	}
	return shipment, nil
}

// List returns one page of shipments plus the next-page cursor.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]models.ExportShipment, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	shipments, err := s.repo.ListPage(ctx, cursor, limit)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing export shipments")
	}
	next := ""
	if len(shipments) > limit {
		shipments = shipments[:limit]
		last := shipments[len(shipments)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return shipments, next, nil
}

// UpdateStatus moves a shipment along its lifecycle. Transitions outside
// PENDING→IN_TRANSIT→DELIVERED (or CANCELLED before delivery) are rejected.
func (s *Service) UpdateStatus(ctx context.Context, id int64, target enums.ExportStatus) (*models.ExportShipment, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid export status %q", target))
	}

	var updated *models.ExportShipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("export shipment %d not found", id))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking export shipment")
		}
		if !shipment.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(
				"export %d cannot move from %s to %s", id, shipment.Status, target,
			))
		}
		if err := repo.UpdateStatus(ctx, id, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating export status")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventExportStatusChanged,
			AggregateType: enums.AggregateExportShipment,
			AggregateID:   id,
			Data: payloads.ExportStatusChangedEvent{
				ExportID: id,
				From:     shipment.Status,
				To:       target,
			},
			Version: 1,
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing status event")
		}
		shipment.Status = target
		updated = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithExportID(ctx, id), fmt.Sprintf("export status changed to %s", updated.Status))
	}
	return updated, nil
}

// AssignInvestor sets or clears the funding investor on a shipment.
func (s *Service) AssignInvestor(ctx context.Context, id int64, investorID *int64) (*models.ExportShipment, error) {
	shipment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if investorID != nil {
		if err := s.checkInvestor(ctx, *investorID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateInvestor(ctx, id, investorID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assigning investor")
	}
	shipment.InvestorID = investorID
	return shipment, nil
}

func (s *Service) checkInvestor(ctx context.Context, investorID int64) error {
	if _, err := s.investors.FindByID(ctx, investorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("investor %d not found", investorID))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading investor")
	}
	return nil
}
