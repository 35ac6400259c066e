package allocation

import (
	"context"
	"testing"

	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

func TestValidateMappingExactBoundary(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 80, 20, 0, 0)
	shipment := seedExport(t, db, 100)

	validator := newTestValidator(db)
	result, err := validator.ValidateMapping(ctx, MappingRequest{
		SupplyID:     lot.ID,
		ExportID:     shipment.ID,
		QuantityBags: 100,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got %+v", result)
	}
	if result.SupplyRemainingAfter != 0 || result.ExportRemainingAfter != 0 {
		t.Fatalf("expected zero headroom after, got %+v", result)
	}
}

func TestValidateMappingInsufficientSupply(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 40, 10, 10, 0)
	shipment := seedExport(t, db, 500)
	other := seedExport(t, db, 500)
	seedMapping(t, db, lot.ID, other.ID, 30)

	validator := newTestValidator(db)
	result, err := validator.ValidateMapping(ctx, MappingRequest{
		SupplyID:     lot.ID,
		ExportID:     shipment.ID,
		QuantityBags: 21,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid || result.Reason != ReasonInsufficientSupply {
		t.Fatalf("expected insufficient supply, got %+v", result)
	}
}

func TestValidateMappingExceedsDemand(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 500, 0, 0, 0)
	shipment := seedExport(t, db, 10)
	seedMapping(t, db, lot.ID, shipment.ID, 5)

	validator := newTestValidator(db)
	result, err := validator.ValidateMapping(ctx, MappingRequest{
		SupplyID:     lot.ID,
		ExportID:     shipment.ID,
		QuantityBags: 6,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid || result.Reason != ReasonExceedsDemand {
		t.Fatalf("expected exceeds demand, got %+v", result)
	}
}

func TestValidateMappingUnknownSupply(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	shipment := seedExport(t, db, 10)

	validator := newTestValidator(db)
	_, err := validator.ValidateMapping(ctx, MappingRequest{
		SupplyID:     9999,
		ExportID:     shipment.ID,
		QuantityBags: 5,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestValidateMappingNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	validator := newTestValidator(db)
	_, err := validator.ValidateMapping(ctx, MappingRequest{SupplyID: 1, ExportID: 1, QuantityBags: 0})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateBulkCumulativeSupply(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 100, 0, 0, 0)
	first := seedExport(t, db, 60)
	second := seedExport(t, db, 60)

	validator := newTestValidator(db)
	result, err := validator.ValidateBulk(ctx, []MappingRequest{
		{SupplyID: lot.ID, ExportID: first.ID, QuantityBags: 60},
		{SupplyID: lot.ID, ExportID: second.ID, QuantityBags: 60},
	})
	if err != nil {
		t.Fatalf("validate bulk: %v", err)
	}
	if result.Valid {
		t.Fatal("expected bulk result to be invalid")
	}
	if !result.Entries[0].Valid {
		t.Fatalf("expected first entry valid, got %+v", result.Entries[0])
	}
	if result.Entries[1].Valid || result.Entries[1].Reason != ReasonInsufficientSupply {
		t.Fatalf("expected second entry to oversubscribe the lot, got %+v", result.Entries[1])
	}
	if result.Summary.Valid != 1 || result.Summary.Invalid != 1 || result.Summary.Total != 2 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestValidateBulkCumulativeDemand(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lotA := seedLot(t, db, supplierID, 100, 0, 0, 0)
	lotB := seedLot(t, db, supplierID, 100, 0, 0, 1)
	shipment := seedExport(t, db, 70)

	validator := newTestValidator(db)
	result, err := validator.ValidateBulk(ctx, []MappingRequest{
		{SupplyID: lotA.ID, ExportID: shipment.ID, QuantityBags: 50},
		{SupplyID: lotB.ID, ExportID: shipment.ID, QuantityBags: 50},
	})
	if err != nil {
		t.Fatalf("validate bulk: %v", err)
	}
	if !result.Entries[0].Valid {
		t.Fatalf("expected first entry valid, got %+v", result.Entries[0])
	}
	if result.Entries[1].Valid || result.Entries[1].Reason != ReasonExceedsDemand {
		t.Fatalf("expected second entry to oversubscribe demand, got %+v", result.Entries[1])
	}
}

func TestValidateBulkUnknownIDs(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 100, 0, 0, 0)
	shipment := seedExport(t, db, 100)

	validator := newTestValidator(db)
	result, err := validator.ValidateBulk(ctx, []MappingRequest{
		{SupplyID: 9999, ExportID: shipment.ID, QuantityBags: 10},
		{SupplyID: lot.ID, ExportID: 9999, QuantityBags: 10},
		{SupplyID: lot.ID, ExportID: shipment.ID, QuantityBags: 10},
		{SupplyID: lot.ID, ExportID: shipment.ID, QuantityBags: -3},
	})
	if err != nil {
		t.Fatalf("validate bulk: %v", err)
	}
	if result.Entries[0].Reason != ReasonNotFound || result.Entries[1].Reason != ReasonNotFound {
		t.Fatalf("expected not-found entries, got %+v", result.Entries[:2])
	}
	if !result.Entries[2].Valid {
		t.Fatalf("expected third entry valid, got %+v", result.Entries[2])
	}
	if result.Entries[3].Reason != ReasonValidation {
		t.Fatalf("expected validation reason for negative quantity, got %+v", result.Entries[3])
	}
	if result.Summary.Valid != 1 || result.Summary.Invalid != 3 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}
