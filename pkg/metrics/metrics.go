package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label outcomes recorded by the label pipeline
const (
	OutcomeSuccess      = "success"
	OutcomeCreateFailed = "create_failed"
	OutcomeNoRate       = "no_rate"
	OutcomeBuyFailed    = "buy_failed"
	OutcomeNoLabelURL   = "no_label_url"
)

// Label holds the collectors for label creation
type Label struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewLabel creates the label collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewLabel(reg prometheus.Registerer) *Label {
	m := &Label{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shipper",
				Name:      "label_requests_total",
				Help:      "Label creation attempts by outcome.",
			},
			[]string{"outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shipper",
				Name:      "label_request_duration_seconds",
				Help:      "Time spent creating and buying a label.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration)
	}
	return m
}

// Observe records one finished label attempt
func (m *Label) Observe(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.Duration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}
