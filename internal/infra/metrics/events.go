package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(changeEventsTotal, eventSubscribers)
}

var (
	changeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_total",
			Help: "Row change notifications fanned out, by table and operation.",
		},
		[]string{"table", "op"},
	)

	eventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_subscribers",
			Help: "Currently connected change-event subscribers.",
		},
	)
)

func IncChangeEvent(table, op string) { changeEventsTotal.WithLabelValues(table, op).Inc() }

func AddEventSubscriber(delta int) { eventSubscribers.Add(float64(delta)) }
