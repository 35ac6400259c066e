package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/internal/exports"
	"github.com/coaltrack/coaltrack-backend/internal/mappings"
	"github.com/coaltrack/coaltrack-backend/internal/supplies"
	"github.com/coaltrack/coaltrack-backend/pkg/db"
	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
	"github.com/coaltrack/coaltrack-backend/pkg/metrics"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox"
	"github.com/coaltrack/coaltrack-backend/pkg/outbox/payloads"
)

const defaultMaxSuggestions = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Engine plans and commits allocations of supply lots onto exports.
// Commits re-validate every candidate under row locks, so a plan built
// from a stale read degrades to partial success or a capacity conflict
// instead of overcommitting stock.
type Engine struct {
	tx              txRunner
	supplies        *supplies.Repository
	exports         *exports.Repository
	mappings        *mappings.Repository
	events          eventEmitter
	metrics         *metrics.AllocationMetrics
	logg            *logger.Logger
	maxSuggestions  int
	defaultStrategy enums.AllocationStrategy
}

// EngineParams configures NewEngine. Tx, repositories and Events are
// required; Metrics and Logger may be nil.
type EngineParams struct {
	Tx              txRunner
	Supplies        *supplies.Repository
	Exports         *exports.Repository
	Mappings        *mappings.Repository
	Events          eventEmitter
	Metrics         *metrics.AllocationMetrics
	Logger          *logger.Logger
	MaxSuggestions  int
	DefaultStrategy enums.AllocationStrategy
}

// NewEngine wires the allocation engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Supplies == nil || params.Exports == nil || params.Mappings == nil {
		return nil, errors.New("repositories are required")
	}
	if params.Events == nil {
		return nil, errors.New("event emitter is required")
	}
	maxSuggestions := params.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = defaultMaxSuggestions
	}
	strategy := params.DefaultStrategy
	if strategy == "" {
		strategy = enums.StrategyOptimal
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("invalid default strategy %q", strategy)
	}
	return &Engine{
		tx:              params.Tx,
		supplies:        params.Supplies,
		exports:         params.Exports,
		mappings:        params.Mappings,
		events:          params.Events,
		metrics:         params.Metrics,
		logg:            params.Logger,
		maxSuggestions:  maxSuggestions,
		defaultStrategy: strategy,
	}, nil
}

type candidate struct {
	lot       models.SupplyLot
	remaining int
}

// Suggest builds a sourcing plan for the export's remaining demand. The plan
// is advisory; nothing is locked or written.
func (e *Engine) Suggest(ctx context.Context, exportID int64, opts SuggestOptions) (*SuggestionSet, error) {
	start := time.Now()
	strategy, err := e.resolveStrategy(opts.Strategy)
	if err != nil {
		return nil, err
	}
	minQuality := opts.MinQuality
	if minQuality == "" {
		minQuality = enums.QualityAny
	}
	if !minQuality.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quality grade %q", minQuality))
	}
	maxSuggestions := opts.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = e.maxSuggestions
	}

	shipment, err := e.exports.FindByID(ctx, exportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("export shipment %d not found", exportID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading export shipment")
	}
	mapped, err := e.mappings.SumByExport(ctx, exportID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing export mappings")
	}

	set := &SuggestionSet{
		ExportID:    exportID,
		Strategy:    strategy,
		Suggestions: []Suggestion{},
	}
	demandLeft := shipment.QuantityBags - mapped
	if demandLeft <= 0 {
		set.FullySourced = true
		e.metrics.ObserveDuration("suggest", time.Since(start))
		return set, nil
	}

	candidates, err := e.loadCandidates(ctx, minQuality)
	if err != nil {
		return nil, err
	}
	rankCandidates(candidates, strategy)

	for _, c := range candidates {
		if demandLeft == 0 || len(set.Suggestions) == maxSuggestions {
			break
		}
		quantity := min(c.remaining, demandLeft)
		set.Suggestions = append(set.Suggestions, Suggestion{
			SupplyID:     c.lot.ID,
			QuantityBags: quantity,
			LotRemaining: c.remaining,
		})
		demandLeft -= quantity
	}
	set.RemainingDemand = demandLeft
	set.FullySourced = demandLeft == 0

	e.metrics.ObserveDuration("suggest", time.Since(start))
	return set, nil
}

// AutoAllocate sources the export from a freshly built plan. Candidates that
// fail commit-time re-validation are reported individually; the rest still
// commit together. When DryRun is set the plan is returned without writes.
func (e *Engine) AutoAllocate(ctx context.Context, exportID int64, opts AutoAllocateOptions) (*AllocationResult, error) {
	start := time.Now()
	strategy, err := e.resolveStrategy(opts.Strategy)
	if err != nil {
		return nil, err
	}

	set, err := e.Suggest(ctx, exportID, SuggestOptions{Strategy: strategy})
	if err != nil {
		return nil, err
	}
	if set.FullySourced && len(set.Suggestions) == 0 {
		return &AllocationResult{
			Success:  true,
			DryRun:   opts.DryRun,
			Strategy: strategy,
			Mappings: []models.SupplyExportMapping{},
		}, nil
	}
	if len(set.Suggestions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientSupply,
			fmt.Sprintf("no supply available to source export %d", exportID))
	}

	if opts.DryRun {
		result := &AllocationResult{
			Success:  true,
			DryRun:   true,
			Strategy: strategy,
			Mappings: make([]models.SupplyExportMapping, 0, len(set.Suggestions)),
		}
		for _, s := range set.Suggestions {
			result.Mappings = append(result.Mappings, models.SupplyExportMapping{
				SupplyID:     s.SupplyID,
				ExportID:     exportID,
				QuantityBags: s.QuantityBags,
			})
			result.Summary.TotalBags += s.QuantityBags
		}
		result.Summary.MappingCount = len(result.Mappings)
		e.metrics.ObserveDuration("auto_allocate_dry_run", time.Since(start))
		return result, nil
	}

	result, err := e.commitPlan(ctx, exportID, set.Suggestions, strategy)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveDuration("auto_allocate", time.Since(start))
	e.metrics.AddCommitted(strategy.String(), result.Summary.MappingCount, result.Summary.TotalBags)
	if e.logg != nil {
		logCtx := e.logg.WithExportID(ctx, exportID)
		e.logg.Info(logCtx, fmt.Sprintf(
			"allocation committed: %d mappings, %d bags, %d rejected",
			result.Summary.MappingCount, result.Summary.TotalBags, result.Summary.Failed,
		))
	}
	return result, nil
}

// commitPlan applies a plan inside one transaction. The export row and every
// candidate lot are locked, headroom is recomputed, and entries that no
// longer fit are dropped with a per-entry error. Zero survivors roll the
// transaction back with a capacity conflict.
func (e *Engine) commitPlan(ctx context.Context, exportID int64, plan []Suggestion, strategy enums.AllocationStrategy) (*AllocationResult, error) {
	var result *AllocationResult
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		exportRepo := e.exports.WithTx(tx)
		supplyRepo := e.supplies.WithTx(tx)
		mappingRepo := e.mappings.WithTx(tx)

		shipment, err := exportRepo.FindByIDForUpdate(ctx, exportID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("export shipment %d not found", exportID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking export shipment")
		}
		exportMapped, err := mappingRepo.SumByExport(ctx, exportID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing export mappings")
		}
		demandLeft := shipment.QuantityBags - exportMapped

		lotIDs := make([]int64, 0, len(plan))
		for _, s := range plan {
			lotIDs = append(lotIDs, s.SupplyID)
		}
		lockedLots, err := supplyRepo.ListByIDsForUpdate(ctx, lotIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "locking supply lots")
		}
		lotsByID := make(map[int64]models.SupplyLot, len(lockedLots))
		for _, lot := range lockedLots {
			lotsByID[lot.ID] = lot
		}
		used, err := mappingRepo.SumGroupedBySupply(ctx, lotIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing supply mappings")
		}

		rows := make([]models.SupplyExportMapping, 0, len(plan))
		var failed []AllocationError
		var totalBags int
		for _, s := range plan {
			lot, ok := lotsByID[s.SupplyID]
			if !ok {
				failed = append(failed, AllocationError{
					SupplyID:     s.SupplyID,
					QuantityBags: s.QuantityBags,
					Reason:       ReasonNotFound,
					Message:      fmt.Sprintf("supply lot %d no longer exists", s.SupplyID),
				})
				continue
			}
			lotRemaining := lot.AvailableBags() - used[s.SupplyID]
			if s.QuantityBags > lotRemaining || s.QuantityBags > demandLeft {
				e.metrics.IncCapacityConflict()
				failed = append(failed, AllocationError{
					SupplyID:     s.SupplyID,
					QuantityBags: s.QuantityBags,
					Reason:       ReasonCapacityExceeded,
					Message: fmt.Sprintf(
						"lot %d has %d bags remaining and export needs %d, requested %d",
						s.SupplyID, lotRemaining, demandLeft, s.QuantityBags,
					),
				})
				continue
			}
			rows = append(rows, models.SupplyExportMapping{
				SupplyID:     s.SupplyID,
				ExportID:     exportID,
				QuantityBags: s.QuantityBags,
			})
			used[s.SupplyID] += s.QuantityBags
			demandLeft -= s.QuantityBags
			totalBags += s.QuantityBags
		}

		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "allocation plan is no longer satisfiable").
				WithDetails(failed)
		}

		rows, err = mappingRepo.CreateBatch(ctx, rows)
		if err != nil {
			if db.IsCapacityGuardViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeCapacityExceeded, err, "capacity guard rejected allocation")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting mappings")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventAllocationCommitted,
			AggregateType: enums.AggregateExportShipment,
			AggregateID:   exportID,
			Data: payloads.AllocationCommittedEvent{
				ExportID:     exportID,
				Strategy:     strategy,
				MappingCount: len(rows),
				TotalBags:    totalBags,
			},
			Version: 1,
		}
		if err := e.events.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queueing allocation event")
		}

		result = &AllocationResult{
			Success:  true,
			Strategy: strategy,
			Mappings: rows,
			Summary: AllocationSummary{
				MappingCount: len(rows),
				TotalBags:    totalBags,
				Failed:       len(failed),
			},
			Errors: failed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) resolveStrategy(strategy enums.AllocationStrategy) (enums.AllocationStrategy, error) {
	if strategy == "" {
		return e.defaultStrategy, nil
	}
	if !strategy.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid allocation strategy %q", strategy))
	}
	return strategy, nil
}

// loadCandidates returns lots with unallocated stock matching the quality
// floor, ordered oldest first.
func (e *Engine) loadCandidates(ctx context.Context, minQuality enums.QualityGrade) ([]candidate, error) {
	lots, err := e.supplies.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing supply lots")
	}
	ids := make([]int64, 0, len(lots))
	for _, lot := range lots {
		ids = append(ids, lot.ID)
	}
	mapped, err := e.mappings.SumGroupedBySupply(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing supply mappings")
	}

	candidates := make([]candidate, 0, len(lots))
	for _, lot := range lots {
		if !matchesQuality(lot, minQuality) {
			continue
		}
		remaining := lot.AvailableBags() - mapped[lot.ID]
		if remaining <= 0 {
			continue
		}
		candidates = append(candidates, candidate{lot: lot, remaining: remaining})
	}
	return candidates, nil
}

func matchesQuality(lot models.SupplyLot, minQuality enums.QualityGrade) bool {
	switch minQuality {
	case enums.QualityGradeA:
		return lot.GradeABags > 0
	case enums.QualityGradeB:
		return lot.GradeABags+lot.GradeBBags > 0
	default:
		return true
	}
}

// rankCandidates orders the candidate list in place. FIFO keeps intake
// order; OPTIMAL covers demand with the fewest lots by taking the largest
// remainder first, ties going to the older lot.
func rankCandidates(candidates []candidate, strategy enums.AllocationStrategy) {
	if strategy == enums.StrategyOptimal {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].remaining > candidates[j].remaining
		})
	}
}
