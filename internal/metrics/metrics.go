// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the pipeline.
//
// A global, pluggable backend defaults to a no-op implementation, so metrics
// are always safe to call even when no real backend is configured. Concrete
// systems live in subpackages (prompush, datadog) so the core pipeline never
// imports them.
package metrics

import "time"

// Metric names shared by all backends.
const (
	StepTotal           = "abprep_step_total"
	StepDurationSeconds = "abprep_step_duration_seconds"
	RowsTotal           = "abprep_rows_total"
	GroupListings       = "abprep_group_listings"
	LiftPercent         = "abprep_lift_percent"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge records the latest value of a point-in-time metric.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline stage.
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

// RecordRow increments the row counter for the given job and kind.
//
// Kinds used by the pipeline:
//   - "parsed", "malformed"
//   - "dropped_<step>" per transform step (e.g. "dropped_iqr")
//   - "persisted"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordGroupSize records how many listings landed in an experiment group.
func RecordGroupSize(job, group string, n int) {
	backend.SetGauge(GroupListings, float64(n), Labels{
		"job":   job,
		"group": group,
	})
}

// RecordLift records the treatment lift of one metric, in percent.
func RecordLift(job, metric string, pct float64) {
	backend.SetGauge(LiftPercent, pct, Labels{
		"job":    job,
		"metric": metric,
	})
}
