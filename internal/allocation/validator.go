package allocation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/internal/exports"
	"github.com/coaltrack/coaltrack-backend/internal/mappings"
	"github.com/coaltrack/coaltrack-backend/internal/supplies"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

// Validator answers whether proposed mappings respect lot availability and
// export demand. It never writes; commit paths re-run the same checks under
// row locks before inserting.
type Validator struct {
	supplies *supplies.Repository
	exports  *exports.Repository
	mappings *mappings.Repository
}

// NewValidator wires the validator to its repositories.
func NewValidator(supplyRepo *supplies.Repository, exportRepo *exports.Repository, mappingRepo *mappings.Repository) *Validator {
	return &Validator{
		supplies: supplyRepo,
		exports:  exportRepo,
		mappings: mappingRepo,
	}
}

// ValidateMapping checks one proposed mapping against current headroom.
// Capacity shortfalls come back as an invalid result; a missing lot or
// export, or a non-positive quantity, is an error.
func (v *Validator) ValidateMapping(ctx context.Context, req MappingRequest) (*ValidationResult, error) {
	if req.QuantityBags < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_bags must be a positive integer")
	}

	lot, err := v.supplies.FindByID(ctx, req.SupplyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("supply lot %d not found", req.SupplyID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading supply lot")
	}
	shipment, err := v.exports.FindByID(ctx, req.ExportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("export shipment %d not found", req.ExportID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading export shipment")
	}

	supplyMapped, err := v.mappings.SumBySupply(ctx, req.SupplyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing supply mappings")
	}
	exportMapped, err := v.mappings.SumByExport(ctx, req.ExportID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing export mappings")
	}

	supplyRemaining := lot.AvailableBags() - supplyMapped
	exportRemaining := shipment.QuantityBags - exportMapped
	result := verdict(req, supplyRemaining, exportRemaining)
	return &result, nil
}

// ValidateBulk checks a batch of proposed mappings in input order. Quantities
// accumulate across entries, so a batch that oversubscribes a lot or an
// export only in combination is still caught. Per-entry problems, including
// unknown ids, land in that entry's verdict rather than failing the call.
func (v *Validator) ValidateBulk(ctx context.Context, reqs []MappingRequest) (*BulkValidationResult, error) {
	result := &BulkValidationResult{
		Valid:   true,
		Entries: make([]BulkEntryResult, 0, len(reqs)),
		Summary: BulkSummary{Total: len(reqs)},
	}

	supplyRemaining := map[int64]int{}
	exportRemaining := map[int64]int{}

	for i, req := range reqs {
		entry := BulkEntryResult{Index: i}

		if req.QuantityBags < 1 {
			entry.ValidationResult = invalidResult(req, ReasonValidation, "quantity_bags must be a positive integer")
			result.record(entry)
			continue
		}

		sRem, known := supplyRemaining[req.SupplyID]
		if !known {
			rem, err := v.supplyHeadroom(ctx, req.SupplyID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					entry.ValidationResult = invalidResult(req, ReasonNotFound, fmt.Sprintf("supply lot %d not found", req.SupplyID))
					result.record(entry)
					continue
				}
				return nil, err
			}
			supplyRemaining[req.SupplyID] = rem
			sRem = rem
		}

		eRem, known := exportRemaining[req.ExportID]
		if !known {
			rem, err := v.exportHeadroom(ctx, req.ExportID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					entry.ValidationResult = invalidResult(req, ReasonNotFound, fmt.Sprintf("export shipment %d not found", req.ExportID))
					result.record(entry)
					continue
				}
				return nil, err
			}
			exportRemaining[req.ExportID] = rem
			eRem = rem
		}

		entry.ValidationResult = verdict(req, sRem, eRem)
		if entry.Valid {
			supplyRemaining[req.SupplyID] = sRem - req.QuantityBags
			exportRemaining[req.ExportID] = eRem - req.QuantityBags
		}
		result.record(entry)
	}

	return result, nil
}

func (r *BulkValidationResult) record(entry BulkEntryResult) {
	r.Entries = append(r.Entries, entry)
	if entry.Valid {
		r.Summary.Valid++
	} else {
		r.Summary.Invalid++
		r.Valid = false
	}
}

func (v *Validator) supplyHeadroom(ctx context.Context, supplyID int64) (int, error) {
	lot, err := v.supplies.FindByID(ctx, supplyID)
	if err != nil {
		return 0, err
	}
	mapped, err := v.mappings.SumBySupply(ctx, supplyID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing supply mappings")
	}
	return lot.AvailableBags() - mapped, nil
}

func (v *Validator) exportHeadroom(ctx context.Context, exportID int64) (int, error) {
	shipment, err := v.exports.FindByID(ctx, exportID)
	if err != nil {
		return 0, err
	}
	mapped, err := v.mappings.SumByExport(ctx, exportID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing export mappings")
	}
	return shipment.QuantityBags - mapped, nil
}

// verdict applies the two capacity checks. Supply is checked first so a
// request that breaks both rules reports the supply-side reason.
func verdict(req MappingRequest, supplyRemaining, exportRemaining int) ValidationResult {
	switch {
	case req.QuantityBags > supplyRemaining:
		return invalidResult(req, ReasonInsufficientSupply, fmt.Sprintf(
			"supply lot %d has %d bags remaining, requested %d",
			req.SupplyID, supplyRemaining, req.QuantityBags,
		))
	case req.QuantityBags > exportRemaining:
		return invalidResult(req, ReasonExceedsDemand, fmt.Sprintf(
			"export %d needs %d more bags, requested %d",
			req.ExportID, exportRemaining, req.QuantityBags,
		))
	default:
		return ValidationResult{
			Valid:                true,
			SupplyID:             req.SupplyID,
			ExportID:             req.ExportID,
			QuantityBags:         req.QuantityBags,
			SupplyRemainingAfter: supplyRemaining - req.QuantityBags,
			ExportRemainingAfter: exportRemaining - req.QuantityBags,
		}
	}
}

func invalidResult(req MappingRequest, reason, message string) ValidationResult {
	return ValidationResult{
		Valid:        false,
		Reason:       reason,
		Message:      message,
		SupplyID:     req.SupplyID,
		ExportID:     req.ExportID,
		QuantityBags: req.QuantityBags,
	}
}
