// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"time"

	"github.com/JonMunkholm/cleaner/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

// Upload outcomes used as the "outcome" label.
const (
	OutcomeCleaned     = "cleaned"
	OutcomeMissingFile = "missing_file"
	OutcomeUnsupported = "unsupported_format"
	OutcomeParseError  = "parse_error"
	OutcomeCollision   = "name_collision"
	OutcomeBusy        = "busy"
	OutcomeFailed      = "failed"
)

// Metrics groups the service collectors.
type Metrics struct {
	Uploads          *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	Rows             *prometheus.CounterVec
	Aggregations     prometheus.Counter
	ArtifactsSwept   prometheus.Counter
	ActiveUploads    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleaner",
			Name:      "uploads_total",
			Help:      "Uploads handled, by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cleaner",
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent decoding and cleaning an upload.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleaner",
			Name:      "rows_total",
			Help:      "Rows seen by the cleaning pipeline, by stage.",
		}, []string{"stage"}),
		Aggregations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleaner",
			Name:      "aggregations_total",
			Help:      "Pipeline runs that aggregated by country and date.",
		}),
		ArtifactsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleaner",
			Name:      "artifacts_swept_total",
			Help:      "Artifact directories removed by retention.",
		}),
		ActiveUploads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cleaner",
			Name:      "uploads_active",
			Help:      "Uploads currently being cleaned.",
		}),
	}

	reg.MustRegister(
		m.Uploads,
		m.PipelineDuration,
		m.Rows,
		m.Aggregations,
		m.ArtifactsSwept,
		m.ActiveUploads,
	)
	return m
}

// ObserveUpload records the outcome of one upload.
func (m *Metrics) ObserveUpload(outcome string) {
	m.Uploads.WithLabelValues(outcome).Inc()
}

// ObserveRun records a finished pipeline run.
func (m *Metrics) ObserveRun(report pipeline.Report, elapsed time.Duration) {
	m.PipelineDuration.Observe(elapsed.Seconds())
	m.Rows.WithLabelValues("input").Add(float64(report.InputRows))
	m.Rows.WithLabelValues("null_dropped").Add(float64(report.NullRowsDropped))
	m.Rows.WithLabelValues("duplicate_dropped").Add(float64(report.DuplicatesDropped))
	m.Rows.WithLabelValues("output").Add(float64(report.OutputRows))
	if report.Aggregated {
		m.Aggregations.Inc()
	}
}

// ObserveSweep records artifacts removed by one retention run.
func (m *Metrics) ObserveSweep(removed int) {
	m.ArtifactsSwept.Add(float64(removed))
}
