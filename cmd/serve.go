package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxsync/internal/config"
	"github.com/teemow/inboxsync/internal/logging"
	"github.com/teemow/inboxsync/internal/server"
	"github.com/teemow/inboxsync/internal/syncer"
)

const (
	// defaultSchedule runs a sync every two hours (six-field cron spec
	// with seconds).
	defaultSchedule = "0 0 */2 * * *"
)

func newServeCmd() *cobra.Command {
	var (
		environment string
		schedule    string
		httpAddr    string
		runAtStart  bool
		debugMode   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync on a cron schedule",
		Long: `Run newsletter syncs on a cron schedule, with Prometheus metrics and
Kubernetes health probes on a dedicated HTTP port.

The schedule uses a six-field cron expression (with seconds); the
default runs every two hours. Overlapping runs are skipped.

Endpoints:
  /metrics   Prometheus metrics
  /healthz   liveness probe
  /readyz    readiness probe (fails during shutdown)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(debugMode)

			cfg, err := config.Load(environment)
			if err != nil {
				return err
			}

			return runServe(cfg, schedule, httpAddr, runAtStart)
		},
	}

	cmd.Flags().StringVar(&environment, "env", "prod", "Environment to load secrets for: prod or test")
	cmd.Flags().StringVar(&schedule, "schedule", defaultSchedule, "Cron schedule for sync runs (six fields, with seconds)")
	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultMetricsAddr, "Address for the metrics and health endpoints")
	cmd.Flags().BoolVar(&runAtStart, "run-at-start", true, "Run one sync immediately on startup")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	return cmd
}

func runServe(cfg *config.Config, schedule, httpAddr string, runAtStart bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := syncer.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up sync: %w", err)
	}

	health := server.NewHealthChecker()
	metricsServer := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:   httpAddr,
		Health: health,
	})
	metrics := metricsServer.Metrics()

	serverErr := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	runOnce := func() {
		start := time.Now()
		stats, err := s.Run(ctx)
		metrics.RecordRun(stats, time.Since(start), err)
		if err != nil {
			slog.Error("sync run failed",
				logging.Operation("serve"),
				logging.Status(logging.StatusError),
				logging.Err(err))
		}
	}

	cronLogger := cronv3.DefaultLogger
	c := cronv3.New(
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronLogger),
			cronv3.Recover(cronLogger),
		),
	)
	if _, err := c.AddFunc(schedule, runOnce); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	slog.Info("starting scheduler",
		slog.String("schedule", schedule),
		slog.String("http_addr", metricsServer.Addr()),
		slog.String("environment", string(cfg.Environment)))
	c.Start()

	if runAtStart {
		go runOnce()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping scheduler")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("metrics server stopped with error: %w", err)
		}
	}

	health.SetReady(false)
	health.SetShuttingDown()

	// Wait for an in-flight run to finish before exiting.
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(server.DefaultShutdownTimeout):
		slog.Warn("timed out waiting for running sync to finish")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("error shutting down metrics server", logging.Err(err))
	}

	return nil
}
