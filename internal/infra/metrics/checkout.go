package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutSessionsTotal,
		discountsAppliedTotal,
		discountsRejectedTotal,
	)
}

var (
	checkoutSessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Checkout sessions started.",
		},
	)

	discountsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_discounts_applied_total",
			Help: "Validated discounts by source (cupon/referido).",
		},
		[]string{"source"},
	)

	discountsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_discounts_rejected_total",
			Help: "Rejected discount attempts by source and reason.",
		},
		[]string{"source", "reason"},
	)
)

func IncCheckoutStarted() { checkoutSessionsTotal.Inc() }

func IncDiscountApplied(source string) {
	discountsAppliedTotal.WithLabelValues(norm(source)).Inc()
}

func IncDiscountRejected(source, reason string) {
	discountsRejectedTotal.WithLabelValues(norm(source), norm(reason)).Inc()
}
