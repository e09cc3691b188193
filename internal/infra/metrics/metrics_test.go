package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCredentialMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordEvent(OpLogin, OutcomeSuccess)
	m.RecordEvent(OpLogin, OutcomeSuccess)
	m.RecordEvent(OpLogin, OutcomeRejected)
	m.ObserveHash(120 * time.Millisecond)
	m.AddSwept(3)
	m.AddSwept(0)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Events.WithLabelValues(OpLogin, OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Events.WithLabelValues(OpLogin, OutcomeRejected)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.SweptResets))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HashDuration))
}

func TestCredentialMetrics_NilIsNoop(t *testing.T) {
	var m *CredentialMetrics

	assert.NotPanics(t, func() {
		m.RecordEvent(OpCreate, OutcomeSuccess)
		m.ObserveHash(time.Second)
		m.AddSwept(1)
	})
}

func TestNewRegistry_GathersRuntimeMetrics(t *testing.T) {
	reg := NewRegistry()
	New(reg).RecordEvent(OpCreate, OutcomeSuccess)

	families, err := reg.Gather()
	assert.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
	assert.True(t, names["tours_credential_events_total"])
}
