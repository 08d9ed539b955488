package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.SearchStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.running))

	m.ObserveEvaluation(1, true)
	m.ObserveEvaluation(0.5, false)
	m.ObserveEvaluation(2, true)
	m.SearchFinished("maximize", "completed", 20*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.evaluations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.improvements))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.running))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("maximize", "completed")))

	expected := `
# HELP randsearch_searches_total Finished searches by goal and final status.
# TYPE randsearch_searches_total counter
randsearch_searches_total{goal="maximize",status="completed"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "randsearch_searches_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
