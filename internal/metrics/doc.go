// Package metrics exposes refresh and action counters for the sync engine.
// The engine depends on the Recorder interface; NoopRecorder is the default
// and PrometheusRecorder backs the status server's /metrics endpoint.
package metrics
