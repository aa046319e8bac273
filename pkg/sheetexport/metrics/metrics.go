// Package metrics records export run metrics with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "sheetexport"

// Sheet outcome labels.
const (
	StatusExported = "exported"
	StatusFailed   = "failed"
)

// Collector holds the export metrics.
//
// Metrics:
//   - sheetexport_sheets_total: sheets processed by status
//   - sheetexport_rows_total: rows projected per sheet
//   - sheetexport_fallback_total: unfiltered fallback fetches per sheet
//   - sheetexport_sheet_duration_seconds: fetch and projection time per sheet
type Collector struct {
	registry *prometheus.Registry

	sheetsTotal   *prometheus.CounterVec
	rowsTotal     *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec
	sheetDuration *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with registry. A nil
// registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		sheetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "sheets_total",
				Help:      "Total number of sheets processed",
			},
			[]string{"status"},
		),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rows_total",
				Help:      "Total number of rows projected",
			},
			[]string{"sheet"},
		),
		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fallback_total",
				Help:      "Number of unfiltered fallback fetches",
			},
			[]string{"sheet"},
		),
		sheetDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "sheet_duration_seconds",
				Help:      "Time spent fetching and projecting a sheet",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"sheet"},
		),
	}

	registry.MustRegister(c.sheetsTotal, c.rowsTotal, c.fallbackTotal, c.sheetDuration)
	return c
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordSheet records a projected sheet.
func (c *Collector) RecordSheet(sheet string, rows int, d time.Duration) {
	c.sheetsTotal.WithLabelValues(StatusExported).Inc()
	c.rowsTotal.WithLabelValues(sheet).Add(float64(rows))
	c.sheetDuration.WithLabelValues(sheet).Observe(d.Seconds())
}

// RecordFailure records a sheet that aborted the run.
func (c *Collector) RecordFailure() {
	c.sheetsTotal.WithLabelValues(StatusFailed).Inc()
}

// RecordFallback records an unfiltered fallback fetch.
func (c *Collector) RecordFallback(sheet string) {
	c.fallbackTotal.WithLabelValues(sheet).Inc()
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
