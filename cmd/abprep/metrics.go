package main

import (
	"log"

	"abprep/internal/config"
	"abprep/internal/metrics"
	"abprep/internal/metrics/datadog"
	"abprep/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns the function that
// flushes it. A backend that fails to initialize leaves the nop in place.
func setupMetrics(p config.Pipeline) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "prometheus", "prompush":
		b, err = prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", p.Metrics.PushgatewayURL, p.Metrics.Backend, p.Job)
		}
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  "abprep.",
			GlobalTags: []string{"job:" + p.Job},
		})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v", p.Metrics.DatadogAddr, p.Metrics.Backend)
		}
	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", p.Metrics.Backend)
		}
		return func() {}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", p.Metrics.Backend)
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", p.Metrics.Backend, err)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
