// Package metrics exposes Prometheus instruments for audit runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/ledgeraudit/internal/models"
)

// Recorder owns a private registry so tests and multiple servers in one
// process never collide on metric names.
type Recorder struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	findings *prometheus.CounterVec
	duration prometheus.Histogram
	lastRun  prometheus.Gauge
	open     *prometheus.GaugeVec
}

// NewRecorder registers the audit instruments plus the Go runtime collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgeraudit",
			Name:      "runs_total",
			Help:      "Audit runs by outcome.",
		}, []string{"outcome"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgeraudit",
			Name:      "findings_total",
			Help:      "Findings produced by audit runs, by severity.",
		}, []string{"severity"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ledgeraudit",
			Name:      "run_duration_seconds",
			Help:      "Time spent loading and auditing a snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ledgeraudit",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last successful audit run.",
		}),
		open: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ledgeraudit",
			Name:      "open_findings",
			Help:      "Findings in the most recent report, by category.",
		}, []string{"category"}),
	}

	r.registry.MustRegister(
		r.runs, r.findings, r.duration, r.lastRun, r.open,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRun records a completed audit.
func (r *Recorder) ObserveRun(report *models.Report, elapsed time.Duration) {
	r.runs.WithLabelValues("ok").Inc()
	r.duration.Observe(elapsed.Seconds())
	r.lastRun.Set(float64(report.GeneratedAt.Unix()))

	for _, sev := range models.Severities {
		if n := report.Summary.SeverityBreakdown[sev]; n > 0 {
			r.findings.WithLabelValues(string(sev)).Add(float64(n))
		}
	}

	r.open.Reset()
	for category, n := range report.Summary.TypeBreakdown {
		r.open.WithLabelValues(string(category)).Set(float64(n))
	}
}

// ObserveFailure records an audit that did not produce a report.
func (r *Recorder) ObserveFailure() {
	r.runs.WithLabelValues("error").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
