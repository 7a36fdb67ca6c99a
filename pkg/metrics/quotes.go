package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuoteMetrics records latency and outcomes of per-line price quotes.
type QuoteMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	superseded prometheus.Counter
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_duration_seconds",
		Help:    "Duration of upstream price quote requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_success",
		Help: "Successful price quotes applied to a draft line.",
	}, []string{"strategy"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_failure",
		Help: "Failed price quote requests.",
	}, []string{"strategy"})
	superseded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_superseded",
		Help: "Quote responses discarded because a newer request replaced them.",
	})
	reg.MustRegister(duration, success, failure, superseded)
	return &QuoteMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		superseded: superseded,
	}
}

// ObserveDuration records the latency of one quote round trip.
func (q *QuoteMetrics) ObserveDuration(strategy string, duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.WithLabelValues(normalizeLabel(strategy)).Observe(duration.Seconds())
}

// IncSuccess increments the applied-quote counter for the strategy.
func (q *QuoteMetrics) IncSuccess(strategy string) {
	if q == nil || q.success == nil {
		return
	}
	q.success.WithLabelValues(normalizeLabel(strategy)).Inc()
}

// IncFailure increments the failed-quote counter for the strategy.
func (q *QuoteMetrics) IncFailure(strategy string) {
	if q == nil || q.failure == nil {
		return
	}
	q.failure.WithLabelValues(normalizeLabel(strategy)).Inc()
}

// IncSuperseded counts a response dropped by the last-write-wins token check.
func (q *QuoteMetrics) IncSuperseded() {
	if q == nil || q.superseded == nil {
		return
	}
	q.superseded.Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
