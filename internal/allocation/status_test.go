package allocation

import (
	"context"
	"testing"

	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

func TestSupplyStatusExcludesRejectedBags(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 60, 20, 20, 0)
	shipment := seedExport(t, db, 500)
	seedMapping(t, db, lot.ID, shipment.ID, 30)

	validator := newTestValidator(db)
	status, err := validator.SupplyStatus(ctx, lot.ID)
	if err != nil {
		t.Fatalf("supply status: %v", err)
	}
	if status.TotalBags != 100 || status.RejectedBags != 20 || status.AvailableBags != 80 {
		t.Fatalf("unexpected capacity figures: %+v", status)
	}
	if status.MappedBags != 30 || status.RemainingBags != 50 {
		t.Fatalf("unexpected allocation figures: %+v", status)
	}
	if status.State != enums.AllocationStatePartial {
		t.Fatalf("expected partial state, got %s", status.State)
	}
}

func TestSupplyStatusStates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	idle := seedLot(t, db, supplierID, 50, 0, 0, 0)
	drained := seedLot(t, db, supplierID, 50, 0, 10, 1)
	shipment := seedExport(t, db, 500)
	seedMapping(t, db, drained.ID, shipment.ID, 50)

	validator := newTestValidator(db)

	status, err := validator.SupplyStatus(ctx, idle.ID)
	if err != nil {
		t.Fatalf("idle status: %v", err)
	}
	if status.State != enums.AllocationStateUnallocated {
		t.Fatalf("expected unallocated, got %s", status.State)
	}

	status, err = validator.SupplyStatus(ctx, drained.ID)
	if err != nil {
		t.Fatalf("drained status: %v", err)
	}
	if status.State != enums.AllocationStateFull || status.RemainingBags != 0 {
		t.Fatalf("expected fully allocated, got %+v", status)
	}
}

func TestExportStatusFullySourced(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 200, 0, 0, 0)
	shipment := seedExport(t, db, 100)
	seedMapping(t, db, lot.ID, shipment.ID, 40)

	validator := newTestValidator(db)
	status, err := validator.ExportStatus(ctx, shipment.ID)
	if err != nil {
		t.Fatalf("export status: %v", err)
	}
	if status.DemandBags != 100 || status.MappedBags != 40 || status.RemainingBags != 60 {
		t.Fatalf("unexpected figures: %+v", status)
	}
	if status.FullySourced || status.State != enums.AllocationStatePartial {
		t.Fatalf("expected partially sourced, got %+v", status)
	}

	seedMapping(t, db, lot.ID, shipment.ID, 60)
	status, err = validator.ExportStatus(ctx, shipment.ID)
	if err != nil {
		t.Fatalf("export status: %v", err)
	}
	if !status.FullySourced || status.State != enums.AllocationStateFull {
		t.Fatalf("expected fully sourced, got %+v", status)
	}
}

func TestStatusUnknownIDs(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	validator := newTestValidator(db)

	if _, err := validator.SupplyStatus(ctx, 42); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for supply, got %v", err)
	}
	if _, err := validator.ExportStatus(ctx, 42); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for export, got %v", err)
	}
}
