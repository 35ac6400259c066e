package enums

// AllocationState labels how much of a supply lot's stock or an export's
// demand is covered by mappings.
type AllocationState string

const (
	AllocationStateUnallocated AllocationState = "UNALLOCATED"
	AllocationStatePartial     AllocationState = "PARTIALLY_ALLOCATED"
	AllocationStateFull        AllocationState = "FULLY_ALLOCATED"
)

// AllocationStateFor derives the label from mapped quantity vs capacity.
func AllocationStateFor(mapped, capacity int) AllocationState {
	switch {
	case mapped <= 0:
		return AllocationStateUnallocated
	case mapped < capacity:
		return AllocationStatePartial
	default:
		return AllocationStateFull
	}
}
