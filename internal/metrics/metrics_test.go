package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePhase("manifest", 3*time.Millisecond, nil)
	m.ObservePhase("providersBooted", time.Millisecond, errors.New("boom"))
	m.HookDispatched("before", "providersRegistered", nil)
	m.HookDispatched("before", "providersRegistered", nil)
	m.Preload(OutcomeOK)
	m.Preload(OutcomeSkipped)
	m.AsyncFailure()
	m.Boot("http", nil)

	assert.Equal(t, 2, testutil.CollectAndCount(m.PhaseDuration))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.HookDispatch.WithLabelValues("before", "providersRegistered", OutcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Preloads.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AsyncFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Boots.WithLabelValues("http", OutcomeOK)))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePhase("manifest", time.Millisecond, nil)
		m.HookDispatched("after", "preloading", nil)
		m.Preload(OutcomeOK)
		m.AsyncFailure()
		m.Boot("command", nil)
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
