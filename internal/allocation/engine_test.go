package allocation

import (
	"context"
	"testing"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

func TestSuggestOptimalCoversDemand(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	big := seedLot(t, db, supplierID, 60, 0, 0, 0)
	small := seedLot(t, db, supplierID, 50, 0, 0, 1)
	shipment := seedExport(t, db, 100)

	engine := newTestEngine(t, db)
	set, err := engine.Suggest(ctx, shipment.ID, SuggestOptions{Strategy: enums.StrategyOptimal})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !set.FullySourced || set.RemainingDemand != 0 {
		t.Fatalf("expected full coverage, got %+v", set)
	}
	if len(set.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(set.Suggestions))
	}
	if set.Suggestions[0].SupplyID != big.ID || set.Suggestions[0].QuantityBags != 60 {
		t.Fatalf("expected largest lot first, got %+v", set.Suggestions[0])
	}
	if set.Suggestions[1].SupplyID != small.ID || set.Suggestions[1].QuantityBags != 40 {
		t.Fatalf("expected 40 bags from the smaller lot, got %+v", set.Suggestions[1])
	}
}

func TestSuggestFIFOTakesOldestFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	old := seedLot(t, db, supplierID, 30, 0, 0, 0)
	fresh := seedLot(t, db, supplierID, 100, 0, 0, 5)
	shipment := seedExport(t, db, 50)

	engine := newTestEngine(t, db)
	set, err := engine.Suggest(ctx, shipment.ID, SuggestOptions{Strategy: enums.StrategyFIFO})
	if err != nil {
		t.Fatalf("suggest fifo: %v", err)
	}
	if len(set.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %+v", set.Suggestions)
	}
	if set.Suggestions[0].SupplyID != old.ID || set.Suggestions[0].QuantityBags != 30 {
		t.Fatalf("expected oldest lot first, got %+v", set.Suggestions[0])
	}
	if set.Suggestions[1].SupplyID != fresh.ID || set.Suggestions[1].QuantityBags != 20 {
		t.Fatalf("expected remainder from newer lot, got %+v", set.Suggestions[1])
	}

	set, err = engine.Suggest(ctx, shipment.ID, SuggestOptions{Strategy: enums.StrategyOptimal})
	if err != nil {
		t.Fatalf("suggest optimal: %v", err)
	}
	if len(set.Suggestions) != 1 || set.Suggestions[0].SupplyID != fresh.ID {
		t.Fatalf("expected single lot under optimal, got %+v", set.Suggestions)
	}
}

func TestSuggestAccountsForExistingMappings(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 100, 0, 0, 0)
	other := seedExport(t, db, 500)
	seedMapping(t, db, lot.ID, other.ID, 70)
	shipment := seedExport(t, db, 100)

	engine := newTestEngine(t, db)
	set, err := engine.Suggest(ctx, shipment.ID, SuggestOptions{})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(set.Suggestions) != 1 || set.Suggestions[0].QuantityBags != 30 {
		t.Fatalf("expected 30 remaining bags, got %+v", set.Suggestions)
	}
	if set.FullySourced || set.RemainingDemand != 70 {
		t.Fatalf("expected 70 bag shortfall, got %+v", set)
	}
}

func TestSuggestFullySourcedExport(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 100, 0, 0, 0)
	shipment := seedExport(t, db, 50)
	seedMapping(t, db, lot.ID, shipment.ID, 50)

	engine := newTestEngine(t, db)
	set, err := engine.Suggest(ctx, shipment.ID, SuggestOptions{})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !set.FullySourced || len(set.Suggestions) != 0 {
		t.Fatalf("expected no suggestions for sourced export, got %+v", set)
	}
}

func TestSuggestQualityFloor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	gradeB := seedLot(t, db, supplierID, 0, 80, 0, 0)
	gradeA := seedLot(t, db, supplierID, 60, 0, 0, 1)
	shipment := seedExport(t, db, 40)

	engine := newTestEngine(t, db)
	set, err := engine.Suggest(ctx, shipment.ID, SuggestOptions{MinQuality: enums.QualityGradeA})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(set.Suggestions) != 1 || set.Suggestions[0].SupplyID != gradeA.ID {
		t.Fatalf("expected only the grade-A lot, got %+v", set.Suggestions)
	}

	set, err = engine.Suggest(ctx, shipment.ID, SuggestOptions{MinQuality: enums.QualityGradeB})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(set.Suggestions) != 1 || set.Suggestions[0].SupplyID != gradeB.ID {
		t.Fatalf("expected the larger graded lot, got %+v", set.Suggestions)
	}
}

func TestSuggestUnknownExport(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	engine := newTestEngine(t, db)
	_, err := engine.Suggest(context.Background(), 77, SuggestOptions{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSuggestInvalidStrategy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	engine := newTestEngine(t, db)
	_, err := engine.Suggest(context.Background(), 1, SuggestOptions{Strategy: "CHEAPEST"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAutoAllocateCommits(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	seedLot(t, db, supplierID, 60, 0, 0, 0)
	seedLot(t, db, supplierID, 50, 0, 0, 1)
	shipment := seedExport(t, db, 100)

	engine := newTestEngine(t, db)
	result, err := engine.AutoAllocate(ctx, shipment.ID, AutoAllocateOptions{})
	if err != nil {
		t.Fatalf("auto allocate: %v", err)
	}
	if !result.Success || result.DryRun {
		t.Fatalf("expected committed result, got %+v", result)
	}
	if result.Summary.MappingCount != 2 || result.Summary.TotalBags != 100 || result.Summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}

	var count int64
	if err := db.Model(&models.SupplyExportMapping{}).Count(&count).Error; err != nil {
		t.Fatalf("count mappings: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 persisted mappings, got %d", count)
	}

	var event models.OutboxEvent
	if err := db.First(&event, "event_type = ?", enums.EventAllocationCommitted).Error; err != nil {
		t.Fatalf("load outbox event: %v", err)
	}
	if event.AggregateID != shipment.ID {
		t.Fatalf("expected event for export %d, got %d", shipment.ID, event.AggregateID)
	}
}

func TestAutoAllocateDryRun(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	seedLot(t, db, supplierID, 60, 0, 0, 0)
	shipment := seedExport(t, db, 40)

	engine := newTestEngine(t, db)
	result, err := engine.AutoAllocate(ctx, shipment.ID, AutoAllocateOptions{DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !result.DryRun || !result.Success {
		t.Fatalf("expected dry-run result, got %+v", result)
	}
	if result.Summary.MappingCount != 1 || result.Summary.TotalBags != 40 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}

	var mappingCount, eventCount int64
	if err := db.Model(&models.SupplyExportMapping{}).Count(&mappingCount).Error; err != nil {
		t.Fatalf("count mappings: %v", err)
	}
	if err := db.Model(&models.OutboxEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if mappingCount != 0 || eventCount != 0 {
		t.Fatalf("dry run must not persist anything, got %d mappings, %d events", mappingCount, eventCount)
	}
}

func TestAutoAllocateNoSupply(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	shipment := seedExport(t, db, 100)

	engine := newTestEngine(t, db)
	_, err := engine.AutoAllocate(context.Background(), shipment.ID, AutoAllocateOptions{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientSupply {
		t.Fatalf("expected insufficient supply, got %v", err)
	}
}

func TestAutoAllocateAlreadySourced(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 100, 0, 0, 0)
	shipment := seedExport(t, db, 50)
	seedMapping(t, db, lot.ID, shipment.ID, 50)

	engine := newTestEngine(t, db)
	result, err := engine.AutoAllocate(ctx, shipment.ID, AutoAllocateOptions{})
	if err != nil {
		t.Fatalf("auto allocate: %v", err)
	}
	if !result.Success || len(result.Mappings) != 0 {
		t.Fatalf("expected no-op result, got %+v", result)
	}

	var count int64
	if err := db.Model(&models.SupplyExportMapping{}).Count(&count).Error; err != nil {
		t.Fatalf("count mappings: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected no new mappings, got %d", count)
	}
}

func TestCommitPlanRejectsStalePlan(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	lot := seedLot(t, db, supplierID, 50, 0, 0, 0)
	shipment := seedExport(t, db, 50)

	engine := newTestEngine(t, db)
	plan := []Suggestion{{SupplyID: lot.ID, QuantityBags: 50}}

	// Another allocation drains the lot between planning and commit.
	other := seedExport(t, db, 100)
	seedMapping(t, db, lot.ID, other.ID, 50)

	_, err := engine.commitPlan(ctx, shipment.ID, plan, enums.StrategyOptimal)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCapacityExceeded {
		t.Fatalf("expected capacity conflict, got %v", err)
	}

	var count int64
	if err := db.Model(&models.SupplyExportMapping{}).Where("export_id = ?", shipment.ID).Count(&count).Error; err != nil {
		t.Fatalf("count mappings: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d mappings", count)
	}
}

func TestCommitPlanPartialSurvival(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := seedSupplier(t, db)
	healthy := seedLot(t, db, supplierID, 40, 0, 0, 0)
	drained := seedLot(t, db, supplierID, 40, 0, 0, 1)
	shipment := seedExport(t, db, 100)

	engine := newTestEngine(t, db)
	plan := []Suggestion{
		{SupplyID: healthy.ID, QuantityBags: 40},
		{SupplyID: drained.ID, QuantityBags: 40},
	}

	other := seedExport(t, db, 100)
	seedMapping(t, db, drained.ID, other.ID, 40)

	result, err := engine.commitPlan(ctx, shipment.ID, plan, enums.StrategyOptimal)
	if err != nil {
		t.Fatalf("commit plan: %v", err)
	}
	if result.Summary.MappingCount != 1 || result.Summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	if len(result.Errors) != 1 || result.Errors[0].Reason != ReasonCapacityExceeded {
		t.Fatalf("expected capacity error entry, got %+v", result.Errors)
	}
	if result.Mappings[0].SupplyID != healthy.ID {
		t.Fatalf("expected the healthy lot to commit, got %+v", result.Mappings[0])
	}
}
