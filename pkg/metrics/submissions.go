package metrics

import "github.com/prometheus/client_golang/prometheus"

// SubmissionMetrics counts order submission attempts by outcome.
type SubmissionMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewSubmissionMetrics registers the submission counters.
func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions",
		Help: "Order submission attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &SubmissionMetrics{outcomes: outcomes}
}

// IncOutcome increments the counter for the given submission outcome.
func (s *SubmissionMetrics) IncOutcome(outcome string) {
	if s == nil || s.outcomes == nil {
		return
	}
	s.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
