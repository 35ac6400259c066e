package payloads

import "github.com/coaltrack/coaltrack-backend/pkg/enums"

// SupplyLotCreatedEvent is emitted when an intake creates a lot.
type SupplyLotCreatedEvent struct {
	SupplyID   int64  `json:"supply_id"`
	SupplierID int64  `json:"supplier_id"`
	TotalBags  int    `json:"total_bags"`
	SupplyDate string `json:"supply_date"`
}

// ExportCreatedEvent is emitted when an export shipment is registered.
type ExportCreatedEvent struct {
	ExportID     int64  `json:"export_id"`
	QuantityBags int    `json:"quantity_bags"`
	Destination  string `json:"destination"`
}

// ExportStatusChangedEvent is emitted on a status transition.
type ExportStatusChangedEvent struct {
	ExportID int64              `json:"export_id"`
	From     enums.ExportStatus `json:"from"`
	To       enums.ExportStatus `json:"to"`
}

// MappingCreatedEvent is emitted for a single validated mapping.
type MappingCreatedEvent struct {
	MappingID    int64 `json:"mapping_id"`
	SupplyID     int64 `json:"supply_id"`
	ExportID     int64 `json:"export_id"`
	QuantityBags int   `json:"quantity_bags"`
}

// MappingDeletedEvent is emitted when a mapping is unmapped.
type MappingDeletedEvent struct {
	MappingID    int64 `json:"mapping_id"`
	SupplyID     int64 `json:"supply_id"`
	ExportID     int64 `json:"export_id"`
	QuantityBags int   `json:"quantity_bags"`
}

// AllocationCommittedEvent is emitted once per auto-allocate commit.
type AllocationCommittedEvent struct {
	ExportID     int64                    `json:"export_id"`
	Strategy     enums.AllocationStrategy `json:"strategy"`
	MappingCount int                      `json:"mapping_count"`
	TotalBags    int                      `json:"total_bags"`
}
