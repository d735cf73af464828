package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		reconcileAttemptsTotal,
		reconcileOutcomesTotal,
	)
}

var (
	reconcileAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_poll_attempts_total",
			Help: "Payment status poll attempts.",
		},
	)

	reconcileOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_outcomes_total",
			Help: "Terminal poller outcomes (approved/rejected/exhausted).",
		},
		[]string{"outcome"},
	)
)

func IncReconcileAttempt() { reconcileAttemptsTotal.Inc() }

func IncReconcileOutcome(outcome string) {
	reconcileOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
}
