package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/inboxsync/internal/syncer"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Metrics holds the Prometheus instruments for sync runs.
type Metrics struct {
	runsTotal       prometheus.Counter
	runFailures     prometheus.Counter
	emailsFetched   prometheus.Counter
	emailsSynced    prometheus.Counter
	emailsSkipped   prometheus.Counter
	emailsFailed    prometheus.Counter
	lastRunUnixtime prometheus.Gauge
	lastRunDuration prometheus.Gauge
}

// NewMetrics creates and registers the sync metrics on the registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inboxsync_runs_total",
			Help: "Number of sync runs started.",
		}),
		runFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inboxsync_run_failures_total",
			Help: "Number of sync runs that aborted with an error.",
		}),
		emailsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inboxsync_emails_fetched_total",
			Help: "Number of newsletter emails fetched from the mailbox.",
		}),
		emailsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inboxsync_emails_synced_total",
			Help: "Number of emails written to the primary destination.",
		}),
		emailsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inboxsync_emails_skipped_total",
			Help: "Number of emails skipped as duplicates or welcome mails.",
		}),
		emailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inboxsync_emails_failed_total",
			Help: "Number of emails that failed to parse or write.",
		}),
		lastRunUnixtime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inboxsync_last_run_timestamp_seconds",
			Help: "Unix time of the last completed sync run.",
		}),
		lastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inboxsync_last_run_duration_seconds",
			Help: "Duration of the last completed sync run.",
		}),
	}
	reg.MustRegister(
		m.runsTotal, m.runFailures,
		m.emailsFetched, m.emailsSynced, m.emailsSkipped, m.emailsFailed,
		m.lastRunUnixtime, m.lastRunDuration,
	)
	return m
}

// RecordRun updates the instruments after one sync run.
func (m *Metrics) RecordRun(stats *syncer.Stats, duration time.Duration, err error) {
	m.runsTotal.Inc()
	if err != nil {
		m.runFailures.Inc()
	}
	if stats != nil {
		m.emailsFetched.Add(float64(stats.Fetched))
		m.emailsSynced.Add(float64(stats.Synced))
		m.emailsSkipped.Add(float64(stats.Duplicates + stats.Welcome))
		m.emailsFailed.Add(float64(stats.ParseFailures + stats.WriteFailures))
	}
	m.lastRunUnixtime.SetToCurrentTime()
	m.lastRunDuration.Set(duration.Seconds())
}

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g., ":9090").
	Addr string

	// Registry serves as both the metrics registry and the gatherer for
	// the /metrics endpoint. Nil selects a new dedicated registry.
	Registry *prometheus.Registry

	// Health registers probe endpoints alongside /metrics when set.
	Health *HealthChecker
}

// MetricsServer serves Prometheus metrics on a dedicated port.
// This isolates metrics from the main application traffic for security,
// preventing unauthorized access to operational metrics.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
	registry   *prometheus.Registry
	health     *HealthChecker
	metrics    *Metrics
}

// NewMetricsServer creates a new metrics server with the given configuration.
// The server exposes a /metrics endpoint for Prometheus scraping.
func NewMetricsServer(config MetricsServerConfig) *MetricsServer {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	return &MetricsServer{
		addr:     config.Addr,
		registry: config.Registry,
		health:   config.Health,
		metrics:  NewMetrics(config.Registry),
	}
}

// Metrics returns the sync run instruments registered with this server.
func (s *MetricsServer) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the HTTP handler serving metrics and probes.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	} else {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	}
	return mux
}

// Start starts the metrics server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *MetricsServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	slog.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down metrics server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}
