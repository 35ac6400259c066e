package allocation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db"
	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox/payloads"
)

// CreateMappingRequest is a manual, single-mapping allocation.
type CreateMappingRequest struct {
	SupplyID     int64   `json:"supply_id" validate:"required,gt=0"`
	ExportID     int64   `json:"export_id" validate:"required,gt=0"`
	QuantityBags int     `json:"quantity_bags" validate:"required,gt=0"`
	Priority     *int    `json:"priority,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// CreateMapping validates and persists one mapping atomically. Unlike the
// read-only validator, shortfalls here are rejections: the caller asked to
// commit, not to probe.
func (e *Engine) CreateMapping(ctx context.Context, req CreateMappingRequest) (*models.SupplyExportMapping, error) {
	if req.QuantityBags < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_bags must be a positive integer")
	}

	var created *models.SupplyExportMapping
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		supplyRepo := e.supplies.WithTx(tx)
		exportRepo := e.exports.WithTx(tx)
		mappingRepo := e.mappings.WithTx(tx)

		lot, err := supplyRepo.FindByIDForUpdate(ctx, req.SupplyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supply lot %d not found", req.SupplyID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking supply lot")
		}
		shipment, err := exportRepo.FindByIDForUpdate(ctx, req.ExportID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("export shipment %d not found", req.ExportID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking export shipment")
		}

		supplyMapped, err := mappingRepo.SumBySupply(ctx, req.SupplyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing supply mappings")
		}
		exportMapped, err := mappingRepo.SumByExport(ctx, req.ExportID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing export mappings")
		}

		supplyRemaining := lot.AvailableBags() - supplyMapped
		if req.QuantityBags > supplyRemaining {
			return pkgerrors.New(pkgerrors.CodeInsufficientSupply, fmt.Sprintf(
				"supply lot %d has %d bags remaining, requested %d",
				req.SupplyID, supplyRemaining, req.QuantityBags,
			))
		}
		exportRemaining := shipment.QuantityBags - exportMapped
		if req.QuantityBags > exportRemaining {
			return pkgerrors.New(pkgerrors.CodeExceedsDemand, fmt.Sprintf(
				"export %d needs %d more bags, requested %d",
				req.ExportID, exportRemaining, req.QuantityBags,
			))
		}

		mapping := &models.SupplyExportMapping{
			SupplyID:     req.SupplyID,
			ExportID:     req.ExportID,
			QuantityBags: req.QuantityBags,
			Priority:     req.Priority,
			Note:         req.Note,
		}
		if err := mappingRepo.Create(ctx, mapping); err != nil {
			if db.IsCapacityGuardViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeCapacityExceeded, err, "capacity guard rejected mapping")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting mapping")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventMappingCreated,
			AggregateType: enums.AggregateMapping,
			AggregateID:   mapping.ID,
			Data: payloads.MappingCreatedEvent{
				MappingID:    mapping.ID,
				SupplyID:     mapping.SupplyID,
				ExportID:     mapping.ExportID,
				QuantityBags: mapping.QuantityBags,
			},
			Version: 1,
		}
		if err := e.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing mapping event")
		}

		created = mapping
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteMapping removes a mapping, releasing its bags back to the lot.
func (e *Engine) DeleteMapping(ctx context.Context, id int64) error {
	return e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		mappingRepo := e.mappings.WithTx(tx)

		mapping, err := mappingRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("mapping %d not found", id))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading mapping")
		}
		if err := mappingRepo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting mapping")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventMappingDeleted,
			AggregateType: enums.AggregateMapping,
			AggregateID:   mapping.ID,
			Data: payloads.MappingDeletedEvent{
				MappingID:    mapping.ID,
				SupplyID:     mapping.SupplyID,
				ExportID:     mapping.ExportID,
				QuantityBags: mapping.QuantityBags,
			},
			Version: 1,
		}
		if err := e.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing mapping event")
		}
		return nil
	})
}
