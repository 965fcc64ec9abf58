// Package metrics exposes Prometheus collectors for table loads and analyses.
//
// A CLI process is short-lived, so the registry is written to a textfile at
// exit (node_exporter textfile collector format) rather than scraped.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/table"
)

const namespace = "datalens"

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the collectors. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	reg *prometheus.Registry

	tablesLoaded *prometheus.CounterVec
	tableRows    prometheus.Gauge
	analyses     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		tablesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_loaded_total",
			Help:      "Tables loaded and cleaned, by source format.",
		}, []string{"format"}),
		tableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows in the current table after cleaning.",
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analysis requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Analysis latency by mode.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"mode"}),
	}
	m.reg.MustRegister(m.tablesLoaded, m.tableRows, m.analyses, m.duration)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveLoad records a loaded table.
func (m *Metrics) ObserveLoad(format string, rows int) {
	if m == nil {
		return
	}
	m.tablesLoaded.WithLabelValues(format).Inc()
	m.tableRows.Set(float64(rows))
}

// ObserveAnalysis records one analysis request.
func (m *Metrics) ObserveAnalysis(mode string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if mode == "" {
		mode = "unknown"
	}
	m.analyses.WithLabelValues(mode, Outcome(err)).Inc()
	if err == nil {
		m.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}

// Outcome classifies an analysis error for labelling.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var (
		nf  *table.ColumnNotFoundError
		ic  *analysis.InsufficientColumnsError
		ir  *analysis.InsufficientRowsError
		io  *analysis.InvalidOptionError
		req *analysis.InvalidRequestError
		um  *analysis.UnsupportedModeError
		nd  *analysis.NoDataError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ic), errors.As(err, &ir),
		errors.As(err, &io), errors.As(err, &req), errors.As(err, &um), errors.As(err, &nd):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

// WriteFile writes the registry in text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
