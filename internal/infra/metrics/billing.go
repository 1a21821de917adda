package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(billingOpsTotal)
}

var billingOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "billing_ops_total",
		Help: "Billing gateway operations by outcome (checkout_created/checkout_failed/refresh_ok/refresh_empty/refresh_failed).",
	},
	[]string{"outcome"},
)

func IncBilling(outcome string) { billingOpsTotal.WithLabelValues(outcome).Inc() }
