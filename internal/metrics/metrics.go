package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_bridge_upstream_request_duration_seconds",
		Help:    "Duration of outbound calls to the upstream scribe API",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation", "status"})

	upstreamTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_bridge_upstream_requests_total",
		Help: "Total outbound calls to the upstream scribe API grouped by operation and status",
	}, []string{"operation", "status"})

	askOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_bridge_ask_ai_results_total",
		Help: "Classified ask-AI replies grouped by format and outcome",
	}, []string{"format", "outcome"})

	fallbackAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_bridge_ask_ai_fallback_attempts_total",
		Help: "Ask-AI attempts made in fallback mode grouped by content type and outcome",
	}, []string{"content_type", "outcome"})

	tokenCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_bridge_token_cache_total",
		Help: "Token cache lookups grouped by result",
	}, []string{"result"})
)

// ObserveUpstreamCall records one outbound call. status is the HTTP status
// text or "error" when no response arrived.
func ObserveUpstreamCall(operation, status string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	upstreamDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	upstreamTotal.WithLabelValues(operation, status).Inc()
}

// ObserveAskOutcome counts a classified ask-AI reply.
func ObserveAskOutcome(format, outcome string) {
	if format == "" {
		format = "none"
	}
	askOutcomeTotal.WithLabelValues(format, outcome).Inc()
}

// ObserveFallbackAttempt counts one content-type attempt in fallback mode.
func ObserveFallbackAttempt(contentType string, success bool) {
	outcome := "failed"
	if success {
		outcome = "success"
	}
	fallbackAttempts.WithLabelValues(contentType, outcome).Inc()
}

// ObserveTokenCache counts a token cache lookup ("hit", "miss", "shared").
func ObserveTokenCache(result string) {
	tokenCacheTotal.WithLabelValues(result).Inc()
}
