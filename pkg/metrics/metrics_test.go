package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLabel(reg)

	m.Observe(OutcomeSuccess, time.Now())
	m.Observe(OutcomeSuccess, time.Now())
	m.Observe(OutcomeNoRate, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(OutcomeNoRate)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Label
	assert.NotPanics(t, func() { m.Observe(OutcomeSuccess, time.Now()) })
}
