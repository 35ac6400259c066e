package stats

import (
	"context"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

type supplierCounter interface {
	Count(ctx context.Context) (int64, error)
}

type supplyReader interface {
	Count(ctx context.Context) (int64, error)
	SumBags(ctx context.Context) (total int, rejected int, err error)
}

type exportReader interface {
	Count(ctx context.Context) (int64, error)
	SumDemand(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[enums.ExportStatus]int64, error)
	List(ctx context.Context) ([]models.ExportShipment, error)
}

type mappingReader interface {
	SumAll(ctx context.Context) (int, error)
	SumGroupedByExport(ctx context.Context) (map[int64]int, error)
}

// Service computes dashboard aggregates straight from the tables.
type Service struct {
	suppliers supplierCounter
	supplies  supplyReader
	exports   exportReader
	mappings  mappingReader
}

// NewService wires the stats service.
func NewService(suppliers supplierCounter, supplies supplyReader, exports exportReader, mappings mappingReader) *Service {
	return &Service{
		suppliers: suppliers,
		supplies:  supplies,
		exports:   exports,
		mappings:  mappings,
	}
}

// Overview is the one-shot dashboard aggregate.
type Overview struct {
	Suppliers          int64                          `json:"suppliers"`
	SupplyLots         int64                          `json:"supply_lots"`
	Exports            int64                          `json:"exports"`
	TotalProducedBags  int                            `json:"total_produced_bags"`
	TotalRejectedBags  int                            `json:"total_rejected_bags"`
	TotalAvailableBags int                            `json:"total_available_bags"`
	TotalAllocatedBags int                            `json:"total_allocated_bags"`
	TotalDemandBags    int                            `json:"total_demand_bags"`
	ExportsByStatus    map[enums.ExportStatus]int64  `json:"exports_by_status"`
	Fulfillment        map[enums.AllocationState]int `json:"fulfillment"`
}

// Overview derives all figures from current rows; nothing is cached or
// read from stored counters.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	suppliers, err := s.suppliers.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting suppliers")
	}
	lots, err := s.supplies.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting supply lots")
	}
	produced, rejected, err := s.supplies.SumBags(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing supply bags")
	}
	exportCount, err := s.exports.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting exports")
	}
	demand, err := s.exports.SumDemand(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing export demand")
	}
	byStatus, err := s.exports.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grouping exports by status")
	}
	allocated, err := s.mappings.SumAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing allocations")
	}

	fulfillment, err := s.fulfillmentBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	return &Overview{
		Suppliers:          suppliers,
		SupplyLots:         lots,
		Exports:            exportCount,
		TotalProducedBags:  produced,
		TotalRejectedBags:  rejected,
		TotalAvailableBags: produced - rejected,
		TotalAllocatedBags: allocated,
		TotalDemandBags:    demand,
		ExportsByStatus:    byStatus,
		Fulfillment:        fulfillment,
	}, nil
}

func (s *Service) fulfillmentBreakdown(ctx context.Context) (map[enums.AllocationState]int, error) {
	shipments, err := s.exports.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing exports")
	}
	mapped, err := s.mappings.SumGroupedByExport(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grouping allocations by export")
	}
	breakdown := map[enums.AllocationState]int{
		enums.AllocationStateUnallocated: 0,
		enums.AllocationStatePartial:     0,
		enums.AllocationStateFull:        0,
	}
	for _, shipment := range shipments {
		state := enums.AllocationStateFor(mapped[shipment.ID], shipment.QuantityBags)
		breakdown[state]++
	}
	return breakdown, nil
}
