package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingQuotesTotal counts cart price computations by discount outcome.
	PricingQuotesTotal *prometheus.CounterVec
	// DiscountValidationsTotal counts discount code checks by result.
	DiscountValidationsTotal *prometheus.CounterVec
	// RatingRecomputeTotal counts rating aggregations by result.
	RatingRecomputeTotal *prometheus.CounterVec
	// PaymentOrdersTotal counts payment provider calls.
	PaymentOrdersTotal *prometheus.CounterVec
	// OrderTransitionsTotal counts order status changes.
	OrderTransitionsTotal *prometheus.CounterVec
	// TasksProcessedTotal counts background task outcomes.
	TasksProcessedTotal *prometheus.CounterVec
)

func init() {
	initDomainMetrics("nursery")
}

func initDomainMetrics(namespace string) {
	PricingQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricing_quotes_total",
		Help:      "Count of computed price breakdowns by discount outcome.",
	}, []string{"discount"})
	DiscountValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discount_validations_total",
		Help:      "Count of discount code validations by result.",
	}, []string{"result"})
	RatingRecomputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rating_recompute_total",
		Help:      "Count of rating summary recomputations by result.",
	}, []string{"result"})
	PaymentOrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_orders_total",
		Help:      "Count of payment provider operations by outcome.",
	}, []string{"provider", "operation", "result"})
	OrderTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Count of order status transitions.",
	}, []string{"from", "to"})
	TasksProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_processed_total",
		Help:      "Count of background tasks processed by type and result.",
	}, []string{"type", "result"})
}

// MustRegisterDomainMetrics registers the domain collectors on reg once.
func MustRegisterDomainMetrics(reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingQuotesTotal = register(reg, PricingQuotesTotal)
		DiscountValidationsTotal = register(reg, DiscountValidationsTotal)
		RatingRecomputeTotal = register(reg, RatingRecomputeTotal)
		PaymentOrdersTotal = register(reg, PaymentOrdersTotal)
		OrderTransitionsTotal = register(reg, OrderTransitionsTotal)
		TasksProcessedTotal = register(reg, TasksProcessedTotal)
	})
}
