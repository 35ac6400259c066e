package enums

import "fmt"

// ExportStatus tracks the lifecycle of an export shipment.
type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "PENDING"
	ExportStatusInTransit ExportStatus = "IN_TRANSIT"
	ExportStatusDelivered ExportStatus = "DELIVERED"
	ExportStatusCancelled ExportStatus = "CANCELLED"
)

var validExportStatuses = []ExportStatus{
	ExportStatusPending,
	ExportStatusInTransit,
	ExportStatusDelivered,
	ExportStatusCancelled,
}

// String implements fmt.Stringer.
func (e ExportStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExportStatus.
func (e ExportStatus) IsValid() bool {
	for _, candidate := range validExportStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the shipment may move to the target status.
func (e ExportStatus) CanTransitionTo(target ExportStatus) bool {
	switch e {
	case ExportStatusPending:
		return target == ExportStatusInTransit || target == ExportStatusCancelled
	case ExportStatusInTransit:
		return target == ExportStatusDelivered || target == ExportStatusCancelled
	default:
		return false
	}
}

// ParseExportStatus converts raw input into an ExportStatus.
func ParseExportStatus(value string) (ExportStatus, error) {
	for _, candidate := range validExportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid export status %q", value)
}
