// Package metrics records operational metrics of a harmonization run behind
// a small, backend-agnostic interface.
//
// A process-wide backend defaults to a no-op, so every call is safe when no
// backend is configured. Concrete systems live in subpackages (prompush,
// datadog) and are installed with SetBackend.
package metrics

import "time"

// Metric names emitted by this package.
const (
	StepTotal           = "crashdash_step_total"
	StepDurationSeconds = "crashdash_step_duration_seconds"
	RecordsTotal        = "crashdash_records_total"
	SourcesTotal        = "crashdash_sources_total"
	ExportBatchSeconds  = "crashdash_export_batch_seconds"
)

// Record kinds reported through RecordRecords.
const (
	KindLoaded     = "loaded"
	KindSkipped    = "skipped_lines"
	KindCoerceSkip = "coercion_skips"
	KindDuplicate  = "duplicates"
	KindKept       = "kept"
	KindExported   = "exported"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Reset restores the no-op backend.
func Reset() { backend = nopBackend{} }

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and outcome of one harmonization step
// (load, schema, coerce, dedupe, export).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRecords increments the record counter for kind. Non-positive deltas
// are ignored.
func RecordRecords(job, kind string, delta int) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordSource counts one source outcome: "loaded" or "failed".
func RecordSource(job string, ok bool) {
	status := "loaded"
	if !ok {
		status = "failed"
	}
	backend.IncCounter(SourcesTotal, 1, Labels{
		"job":    job,
		"status": status,
	})
}

// RecordBatch observes the latency of one export batch. Empty batches are
// not recorded.
func RecordBatch(job, table string, rows int, d time.Duration) {
	if rows <= 0 {
		return
	}
	backend.ObserveHistogram(ExportBatchSeconds, d.Seconds(), Labels{
		"job":   job,
		"table": table,
	})
}
