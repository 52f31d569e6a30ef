package resilience

import "github.com/prometheus/client_golang/prometheus"

var (
	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nursery",
		Name:      "breaker_state",
		Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"})
	breakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nursery",
		Name:      "breaker_transitions_total",
		Help:      "Count of breaker state transitions.",
	}, []string{"target", "from", "to"})
	breakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nursery",
		Name:      "breaker_open_total",
		Help:      "Number of times a breaker opened.",
	}, []string{"target"})
	outboundAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nursery",
		Name:      "outbound_attempts_total",
		Help:      "Outbound HTTP attempts by target and outcome.",
	}, []string{"target", "outcome"})
)

// Collectors returns the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{breakerState, breakerTransitions, breakerOpenedTotal, outboundAttempts}
}
