package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateSupplyLot      OutboxAggregateType = "supply_lot"
	AggregateExportShipment OutboxAggregateType = "export_shipment"
	AggregateMapping        OutboxAggregateType = "supply_export_mapping"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSupplyLot,
	AggregateExportShipment,
	AggregateMapping,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names the domain events published through the outbox.
type OutboxEventType string

const (
	EventSupplyLotCreated    OutboxEventType = "supply_lot_created"
	EventExportCreated       OutboxEventType = "export_created"
	EventExportStatusChanged OutboxEventType = "export_status_changed"
	EventMappingCreated      OutboxEventType = "mapping_created"
	EventMappingDeleted      OutboxEventType = "mapping_deleted"
	EventAllocationCommitted OutboxEventType = "allocation_committed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSupplyLotCreated,
	EventExportCreated,
	EventExportStatusChanged,
	EventMappingCreated,
	EventMappingDeleted,
	EventAllocationCommitted,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
