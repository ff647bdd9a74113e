// Package statusapi serves a small read-only HTTP surface next to the TUI:
// /health for liveness and collection sizes, /snapshot for the full store
// contents as JSON, and /metrics for Prometheus.
package statusapi
