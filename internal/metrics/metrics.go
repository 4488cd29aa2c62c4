// Package metrics exposes viewer activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/sheetview/internal/core"
)

const namespace = "sheetview"

// Recorder implements core.Recorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	filters      *prometheus.CounterVec
	filterRows   prometheus.Histogram
	exports      *prometheus.CounterVec
	exportRows   prometheus.Histogram
	sessions     prometheus.Gauge
}

// New creates a Recorder with Go and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Workbook loads by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent fetching or parsing a workbook.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"result"}),
		filters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filters_total",
			Help:      "Filters applied by operation type and operation.",
		}, []string{"type", "operation"}),
		filterRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_rows_kept",
			Help:      "Rows kept by each filter.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports by format.",
		}, []string{"format"}),
		exportRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_rows",
			Help:      "Rows written per export.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Viewer sessions currently held in memory.",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.loads, r.loadDuration,
		r.filters, r.filterRows,
		r.exports, r.exportRows,
		r.sessions,
	)
	return r
}

func (r *Recorder) ObserveLoad(result string, d time.Duration) {
	r.loads.WithLabelValues(result).Inc()
	r.loadDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (r *Recorder) ObserveFilter(spec core.FilterSpec, kept int) {
	r.filters.WithLabelValues(string(spec.Type), string(spec.Operation)).Inc()
	r.filterRows.Observe(float64(kept))
}

func (r *Recorder) ObserveExport(format core.ExportFormat, rows int) {
	r.exports.WithLabelValues(string(format)).Inc()
	r.exportRows.Observe(float64(rows))
}

func (r *Recorder) SetSessions(n int) {
	r.sessions.Set(float64(n))
}

// RegisterLoadStatus exports the load limiter state as gauges read at
// scrape time.
func (r *Recorder) RegisterLoadStatus(status func() core.LoadLimiterStatus) {
	r.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loads_active",
			Help:      "Workbook parses in progress.",
		}, func() float64 { return float64(status().Active) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loads_max",
			Help:      "Maximum concurrent workbook parses.",
		}, func() float64 { return float64(status().MaxConcurrent) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
