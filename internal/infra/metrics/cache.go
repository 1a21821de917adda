package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(entitlementCacheTotal)
}

var entitlementCacheTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "entitlement_cache_total",
		Help: "Entitlement cache lookups by result (hit/miss).",
	},
	[]string{"result"},
)

func IncEntitlementCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	entitlementCacheTotal.WithLabelValues(result).Inc()
}
