package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		entitlementChecksTotal,
		trialsStartedTotal,
	)
}

var (
	entitlementChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_checks_total",
			Help: "Entitlement resolutions by access decision and resolved tier.",
		},
		[]string{"has_access", "tier"},
	)

	trialsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trials_started_total",
			Help: "Trials lazily created on first entitlement check.",
		},
	)
)

func ObserveEntitlement(hasAccess bool, tier string) {
	entitlementChecksTotal.WithLabelValues(strconv.FormatBool(hasAccess), tier).Inc()
}

func IncTrialStarted() { trialsStartedTotal.Inc() }
