// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A harmonization run is a short-lived batch job, so metrics are pushed to a
// Pushgateway on Flush instead of being exposed for scraping. The job label
// of each call becomes the Pushgateway grouping key.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"crashdash/internal/metrics"
)

// DefaultJob groups pushes when no job name is given.
const DefaultJob = "crashdash"

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec
	stepDuration  *prometheus.SummaryVec
	recordCounter *prometheus.CounterVec
	sourceCounter *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

// NewBackend constructs a Pushgateway backend. gatewayURL is required; an
// empty jobName uses DefaultJob.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJob
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Harmonization step executions by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Duration of harmonization steps in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record counts per kind (loaded, skipped_lines, coercion_skips, duplicates, kept, exported).",
		},
		[]string{"kind"},
	)
	sourceCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.SourcesTotal,
			Help: "Sources by load outcome.",
		},
		[]string{"status"},
	)

	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metrics.ExportBatchSeconds,
			Help:    "Latency of one export batch in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		},
		[]string{"table"},
	)

	for _, c := range []struct {
		name string
		c    prometheus.Collector
	}{
		{"step counter", stepCounter},
		{"step summary", stepDuration},
		{"record counter", recordCounter},
		{"source counter", sourceCounter},
		{"batch histogram", batchDuration},
	} {
		if err := reg.Register(c.c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", c.name, err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		sourceCounter: sourceCounter,
		batchDuration: batchDuration,
	}, nil
}

// IncCounter routes known metric names to their collectors; others are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RecordsTotal:
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.SourcesTotal:
		if b.sourceCounter == nil {
			return
		}
		b.sourceCounter.WithLabelValues(labels["status"]).Add(delta)
	}
}

// ObserveHistogram records step and export batch durations; other names are
// ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StepDurationSeconds:
		if b.stepDuration != nil {
			b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
		}
	case metrics.ExportBatchSeconds:
		if b.batchDuration != nil {
			b.batchDuration.WithLabelValues(labels["table"]).Observe(value)
		}
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
