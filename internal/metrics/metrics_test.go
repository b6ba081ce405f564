package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Hit(OutcomeDedup)
	m.Hit(OutcomeDedup)
	m.Hit(OutcomeConfirmed)
	m.Rule("ok")
	m.Page("skipped")
	m.Probe("inner_ip")
	m.Quota(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hitsTotal.WithLabelValues(OutcomeDedup)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hitsTotal.WithLabelValues(OutcomeConfirmed)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.quotaRemaining))

	_, err := reg.Gather()
	require.NoError(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Hit(OutcomeNoMatch)
	m.Rule("failed")
	m.Page("ok")
	m.Probe("ok")
	m.Quota(1)
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Rule("ok")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "leakwatch_rules_total"))
}
