package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		widgetMountsTotal,
		widgetFallbacksTotal,
	)
}

var (
	widgetMountsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_mounts_total",
			Help: "Successful payment widget mounts.",
		},
	)

	widgetFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "widget_fallbacks_total",
			Help: "Widget failures that sent the customer to the direct payment link.",
		},
	)
)

func IncWidgetMount()    { widgetMountsTotal.Inc() }
func IncWidgetFallback() { widgetFallbacksTotal.Inc() }
