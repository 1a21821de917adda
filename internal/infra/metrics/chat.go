package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(chatRequestsTotal, chatTokensTotal)
}

var (
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Assistant requests by outcome (ok/canned/rate_limited).",
		},
		[]string{"outcome"},
	)

	chatTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_tokens_total",
			Help: "Assistant tokens by direction (prompt/completion).",
		},
		[]string{"direction"},
	)
)

func IncChat(outcome string) { chatRequestsTotal.WithLabelValues(outcome).Inc() }

func ObserveChatTokens(prompt, completion int) {
	chatTokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	chatTokensTotal.WithLabelValues("completion").Add(float64(completion))
}
