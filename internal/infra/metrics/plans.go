package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		planGenerationsTotal,
		planGenerationSeconds,
	)
}

var (
	planGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_generations_total",
			Help: "Weekly plan generation attempts by outcome (ok/denied/locked/empty_catalog/error).",
		},
		[]string{"outcome"},
	)

	planGenerationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plan_generation_seconds",
			Help:    "Weekly plan generation latency distribution.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// ObserveGeneration records one generation attempt.
func ObserveGeneration(outcome string, elapsed time.Duration) {
	planGenerationsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		planGenerationSeconds.Observe(elapsed.Seconds())
	}
}
