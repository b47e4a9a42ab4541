// Package metrics exposes run statistics for the node_exporter textfile
// collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"procreport/internal/report"
)

// Metrics holds the gauges of one run in a private registry.
type Metrics struct {
	reg *prometheus.Registry

	records        *prometheus.GaugeVec
	skipped        prometheus.Gauge
	warnings       prometheus.Gauge
	lookupFailures prometheus.Gauge
	duration       prometheus.Gauge
	lastRun        prometheus.Gauge
}

// New registers the run gauges.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "procreport",
			Name:      "records",
			Help:      "Processes in the last report by category.",
		}, []string{"category"}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "procreport",
			Name:      "skipped_records",
			Help:      "Processes removed by the skip list.",
		}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "procreport",
			Name:      "warnings",
			Help:      "Malformed records dropped with a warning.",
		}),
		lookupFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "procreport",
			Name:      "lookup_failures",
			Help:      "Evidence lookups that failed.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "procreport",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "procreport",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last report was generated.",
		}),
	}
	m.reg.MustRegister(m.records, m.skipped, m.warnings, m.lookupFailures, m.duration, m.lastRun)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe records the outcome of a run.
func (m *Metrics) Observe(r *report.Report, d time.Duration) {
	m.records.WithLabelValues("failed").Set(float64(r.FailedCount))
	m.records.WithLabelValues("finished").Set(float64(r.FinishedCount))
	m.records.WithLabelValues("running").Set(float64(r.RunningCount))
	m.skipped.Set(float64(r.Skipped))
	m.warnings.Set(float64(len(r.Warnings)))
	m.lookupFailures.Set(float64(r.LookupFailures()))
	m.duration.Set(d.Seconds())
	m.lastRun.Set(float64(r.GeneratedAt.Unix()))
}

// WriteTextfile writes the registry in text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
