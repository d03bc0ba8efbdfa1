package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hpi"

// Metrics exposes snapshots as gauges on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	events      prometheus.Gauge
	deaths      *prometheus.GaugeVec
	byTier      *prometheus.GaugeVec
	byDenial    *prometheus.GaugeVec
	byPattern   *prometheus.GaugeVec
	issues      *prometheus.GaugeVec
	ledgerRuns  *prometheus.GaugeVec
	collectedAt prometheus.Gauge
	collectDur  prometheus.Summary
}

// NewMetrics creates and registers the corpus gauges.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.events = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events",
		Help:      "Number of event records in the corpus",
	})
	m.deaths = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "deaths",
		Help:      "Summed death-toll estimate across the corpus",
	}, []string{"bound"})
	m.byTier = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_by_tier",
		Help:      "Event records per tier",
	}, []string{"tier"})
	m.byDenial = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_by_denial_status",
		Help:      "Event records per denial status",
	}, []string{"status"})
	m.byPattern = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_by_pattern",
		Help:      "Event records carrying each pattern tag",
	}, []string{"pattern"})
	m.issues = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "validation_issues",
		Help:      "Validation issues per severity",
	}, []string{"severity"})
	m.ledgerRuns = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ledger_runs",
		Help:      "Recent annotation pass runs per status",
	}, []string{"status"})
	m.collectedAt = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_timestamp_seconds",
		Help:      "Unix time of the last snapshot",
	})
	m.collectDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "collect_duration_seconds",
		Help:      "Time spent collecting a snapshot",
	})

	m.registry.MustRegister(
		m.events, m.deaths, m.byTier, m.byDenial, m.byPattern,
		m.issues, m.ledgerRuns, m.collectedAt, m.collectDur,
	)
	return m
}

// Registry returns the registry the gauges live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Update replaces every gauge with the values in s. Label values absent
// from s are dropped.
func (m *Metrics) Update(s *Snapshot) {
	m.events.Set(float64(s.Events))
	m.deaths.WithLabelValues("min").Set(float64(s.DeathsMin))
	m.deaths.WithLabelValues("max").Set(float64(s.DeathsMax))

	setAll(m.byTier, s.ByTier)
	setAll(m.byDenial, s.ByDenial)
	setAll(m.byPattern, s.ByPattern)

	m.issues.WithLabelValues(string(SeverityError)).Set(float64(s.Errors))
	m.issues.WithLabelValues(string(SeverityWarning)).Set(float64(s.Warnings))

	m.ledgerRuns.Reset()
	for st, n := range s.LedgerRuns {
		m.ledgerRuns.WithLabelValues(string(st)).Set(float64(n))
	}

	m.collectedAt.Set(float64(s.CollectedAt.Unix()))
}

// ObserveCollect records how long a collection took.
func (m *Metrics) ObserveCollect(d time.Duration) {
	m.collectDur.Observe(d.Seconds())
}

func setAll(g *prometheus.GaugeVec, values map[string]int) {
	g.Reset()
	for k, v := range values {
		g.WithLabelValues(k).Set(float64(v))
	}
}
