package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AllocationMetrics records allocation engine activity.
type AllocationMetrics struct {
	duration          *prometheus.HistogramVec
	committedMappings *prometheus.CounterVec
	allocatedBags     *prometheus.CounterVec
	capacityConflicts prometheus.Counter
}

// NewAllocationMetrics registers the allocation metrics on the provided registerer.
func NewAllocationMetrics(reg prometheus.Registerer) *AllocationMetrics {
	if reg == nil {
		return &AllocationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_duration_seconds",
		Help:    "Duration of allocation engine operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	committed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_mappings_committed",
		Help: "Supply-export mappings committed, by strategy.",
	}, []string{"strategy"})
	bags := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_bags_committed",
		Help: "Total bags allocated, by strategy.",
	}, []string{"strategy"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allocation_capacity_conflicts",
		Help: "Allocation candidates rejected at commit time by a capacity race.",
	})
	reg.MustRegister(duration, committed, bags, conflicts)
	return &AllocationMetrics{
		duration:          duration,
		committedMappings: committed,
		allocatedBags:     bags,
		capacityConflicts: conflicts,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *AllocationMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// AddCommitted records mappings and bags committed under a strategy.
func (m *AllocationMetrics) AddCommitted(strategy string, mappings, bags int) {
	if m == nil || m.committedMappings == nil {
		return
	}
	label := normalizeLabel(strategy)
	m.committedMappings.WithLabelValues(label).Add(float64(mappings))
	m.allocatedBags.WithLabelValues(label).Add(float64(bags))
}

// IncCapacityConflict counts a candidate lost to a capacity race.
func (m *AllocationMetrics) IncCapacityConflict() {
	if m == nil || m.capacityConflicts == nil {
		return
	}
	m.capacityConflicts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
