package enums

import "fmt"

// AllocationStrategy selects how the engine ranks candidate supply lots.
type AllocationStrategy string

const (
	// StrategyOptimal covers remaining demand with as few lots as possible:
	// a greedy largest-remaining-first pass, not an exhaustive optimum.
	StrategyOptimal AllocationStrategy = "OPTIMAL"
	// StrategyFIFO drains the oldest supply lots first.
	StrategyFIFO AllocationStrategy = "FIFO"
)

var validAllocationStrategies = []AllocationStrategy{
	StrategyOptimal,
	StrategyFIFO,
}

// String implements fmt.Stringer.
func (s AllocationStrategy) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AllocationStrategy.
func (s AllocationStrategy) IsValid() bool {
	for _, candidate := range validAllocationStrategies {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAllocationStrategy converts raw input into an AllocationStrategy.
func ParseAllocationStrategy(value string) (AllocationStrategy, error) {
	for _, candidate := range validAllocationStrategies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid allocation strategy %q", value)
}
