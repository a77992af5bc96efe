// Package server provides the operational HTTP surface for scheduled
// sync runs: Prometheus metrics and Kubernetes health probes.
//
// # Key Components
//
// MetricsServer serves /metrics on a dedicated port, isolated from any
// application traffic. It owns the sync run instruments (run counts,
// per-email outcome counters, last-run timestamp and duration).
//
// HealthChecker implements liveness (/healthz) and readiness (/readyz)
// probes. Readiness fails once graceful shutdown has started so the
// scheduler is drained before the process exits.
package server
