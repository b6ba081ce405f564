package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Hit outcomes, one per hit.
const (
	OutcomeDedup     = "dedup"
	OutcomeExcluded  = "repository_excluded"
	OutcomeDecode    = "decode_error"
	OutcomeNoMatch   = "no_match"
	OutcomeConfirmed = "confirmed"
	OutcomeToReview  = "to_review"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	hitsTotal      *prometheus.CounterVec
	rulesTotal     *prometheus.CounterVec
	pagesTotal     *prometheus.CounterVec
	probesTotal    *prometheus.CounterVec
	quotaRemaining prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "leakwatch_hits_total", Help: "Search hits by pipeline outcome"},
			[]string{"outcome"},
		),
		rulesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "leakwatch_rules_total", Help: "Rule invocations by status"},
			[]string{"status"},
		),
		pagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "leakwatch_pages_total", Help: "Result pages by fetch status"},
			[]string{"status"},
		),
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "leakwatch_title_probes_total", Help: "Mail domain title probes by result"},
			[]string{"result"},
		),
		quotaRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "leakwatch_search_quota_remaining", Help: "Last observed remaining search quota"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.hitsTotal,
		m.rulesTotal,
		m.pagesTotal,
		m.probesTotal,
		m.quotaRemaining,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Hit(outcome string) {
	if m == nil {
		return
	}
	m.hitsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Rule(status string) {
	if m == nil {
		return
	}
	m.rulesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) Page(status string) {
	if m == nil {
		return
	}
	m.pagesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) Probe(result string) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Quota(remaining int) {
	if m == nil {
		return
	}
	m.quotaRemaining.Set(float64(remaining))
}
