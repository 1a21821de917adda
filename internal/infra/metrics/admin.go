package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(adminRequestsTotal)
}

var adminRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_api_requests_total",
		Help: "Back-office API requests by authorization outcome.",
	},
	[]string{"status"}, // 'authorized', 'unauthorized'
)

func IncAdminRequest(status string) { adminRequestsTotal.WithLabelValues(status).Inc() }
