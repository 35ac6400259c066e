package allocation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

// SupplyStatus derives the allocation position of one lot. Mapped totals are
// always computed from mapping rows, never read from a stored counter.
func (v *Validator) SupplyStatus(ctx context.Context, supplyID int64) (*SupplyStatus, error) {
	lot, err := v.supplies.FindByID(ctx, supplyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supply lot %d not found", supplyID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading supply lot")
	}
	mapped, err := v.mappings.SumBySupply(ctx, supplyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing supply mappings")
	}
	capacity := lot.AvailableBags()
	return &SupplyStatus{
		SupplyID:      lot.ID,
		TotalBags:     lot.TotalBags,
		RejectedBags:  lot.RejectedBags,
		AvailableBags: capacity,
		MappedBags:    mapped,
		RemainingBags: capacity - mapped,
		State:         enums.AllocationStateFor(mapped, capacity),
	}, nil
}

// ExportStatus derives the sourcing position of one shipment.
func (v *Validator) ExportStatus(ctx context.Context, exportID int64) (*ExportStatus, error) {
	shipment, err := v.exports.FindByID(ctx, exportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("export shipment %d not found", exportID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading export shipment")
	}
	mapped, err := v.mappings.SumByExport(ctx, exportID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing export mappings")
	}
	return &ExportStatus{
		ExportID:      shipment.ID,
		DemandBags:    shipment.QuantityBags,
		MappedBags:    mapped,
		RemainingBags: shipment.QuantityBags - mapped,
		FullySourced:  mapped >= shipment.QuantityBags,
		State:         enums.AllocationStateFor(mapped, shipment.QuantityBags),
	}, nil
}
