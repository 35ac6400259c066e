package allocation

import (
	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
)

// Reason codes attached to invalid validation results and commit-time
// allocation errors. They mirror the API error codes so clients see one
// vocabulary whether a check fails softly or an operation is rejected.
const (
	ReasonValidation         = "VALIDATION_ERROR"
	ReasonNotFound           = "NOT_FOUND"
	ReasonInsufficientSupply = "INSUFFICIENT_SUPPLY"
	ReasonExceedsDemand      = "EXCEEDS_DEMAND"
	ReasonCapacityExceeded   = "CAPACITY_EXCEEDED"
)

// MappingRequest is a proposed assignment of bags from a lot to an export.
type MappingRequest struct {
	SupplyID     int64 `json:"supply_id" validate:"required,gt=0"`
	ExportID     int64 `json:"export_id" validate:"required,gt=0"`
	QuantityBags int   `json:"quantity_bags" validate:"required,gt=0"`
}

// ValidationResult reports whether one proposed mapping would be accepted
// and how much headroom would remain on both sides if it were committed.
type ValidationResult struct {
	Valid                bool   `json:"valid"`
	Reason               string `json:"reason,omitempty"`
	Message              string `json:"message,omitempty"`
	SupplyID             int64  `json:"supply_id"`
	ExportID             int64  `json:"export_id"`
	QuantityBags         int    `json:"quantity_bags"`
	SupplyRemainingAfter int    `json:"supply_remaining_after"`
	ExportRemainingAfter int    `json:"export_remaining_after"`
}

// BulkEntryResult is the verdict for one entry of a bulk validation.
type BulkEntryResult struct {
	Index int `json:"index"`
	ValidationResult
}

// BulkSummary totals the verdicts of a bulk validation.
type BulkSummary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// BulkValidationResult reports per-entry verdicts for a batch of proposed
// mappings, checked cumulatively in input order.
type BulkValidationResult struct {
	Valid   bool              `json:"valid"`
	Entries []BulkEntryResult `json:"entries"`
	Summary BulkSummary       `json:"summary"`
}

// SupplyStatus is the derived allocation position of one supply lot.
type SupplyStatus struct {
	SupplyID      int64                 `json:"supply_id"`
	TotalBags     int                   `json:"total_bags"`
	RejectedBags  int                   `json:"rejected_bags"`
	AvailableBags int                   `json:"available_bags"`
	MappedBags    int                   `json:"mapped_bags"`
	RemainingBags int                   `json:"remaining_bags"`
	State         enums.AllocationState `json:"state"`
}

// ExportStatus is the derived sourcing position of one export shipment.
type ExportStatus struct {
	ExportID      int64                 `json:"export_id"`
	DemandBags    int                   `json:"demand_bags"`
	MappedBags    int                   `json:"mapped_bags"`
	RemainingBags int                   `json:"remaining_bags"`
	FullySourced  bool                  `json:"fully_sourced"`
	State         enums.AllocationState `json:"state"`
}

// Suggestion proposes drawing a quantity from one supply lot.
type Suggestion struct {
	SupplyID     int64 `json:"supply_id"`
	QuantityBags int   `json:"quantity_bags"`
	LotRemaining int   `json:"lot_remaining"`
}

// SuggestOptions tunes candidate selection.
type SuggestOptions struct {
	Strategy       enums.AllocationStrategy
	MinQuality     enums.QualityGrade
	MaxSuggestions int
}

// SuggestionSet is the engine's proposed sourcing plan for one export.
type SuggestionSet struct {
	ExportID        int64                    `json:"export_id"`
	Strategy        enums.AllocationStrategy `json:"strategy"`
	FullySourced    bool                     `json:"fully_sourced"`
	RemainingDemand int                      `json:"remaining_demand"`
	Suggestions     []Suggestion             `json:"suggestions"`
}

// AutoAllocateOptions tunes an auto-allocation run.
type AutoAllocateOptions struct {
	Strategy enums.AllocationStrategy
	DryRun   bool
}

// AllocationError describes one plan entry that could not be committed.
type AllocationError struct {
	SupplyID     int64  `json:"supply_id"`
	QuantityBags int    `json:"quantity_bags"`
	Reason       string `json:"reason"`
	Message      string `json:"message"`
}

// AllocationSummary totals a committed (or simulated) allocation run.
type AllocationSummary struct {
	MappingCount int `json:"mapping_count"`
	TotalBags    int `json:"total_bags"`
	Failed       int `json:"failed"`
}

// AllocationResult is the outcome of an auto-allocation run. On a dry run
// the mappings carry no ids and nothing is persisted.
type AllocationResult struct {
	Success  bool                         `json:"success"`
	DryRun   bool                         `json:"dry_run"`
	Strategy enums.AllocationStrategy     `json:"strategy"`
	Mappings []models.SupplyExportMapping `json:"mappings"`
	Summary  AllocationSummary            `json:"summary"`
	Errors   []AllocationError            `json:"errors,omitempty"`
}
