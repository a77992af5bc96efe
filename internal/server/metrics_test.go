package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/teemow/inboxsync/internal/syncer"
)

func TestNewMetricsServerDefaults(t *testing.T) {
	server := NewMetricsServer(MetricsServerConfig{})
	if server.Addr() != DefaultMetricsAddr {
		t.Errorf("Addr() = %q, want %q", server.Addr(), DefaultMetricsAddr)
	}
	if server.Metrics() == nil {
		t.Error("Metrics() returned nil")
	}
}

func TestMetricsServer_Addr(t *testing.T) {
	server := NewMetricsServer(MetricsServerConfig{Addr: ":9091"})
	if server.Addr() != ":9091" {
		t.Errorf("Addr() = %q, want %q", server.Addr(), ":9091")
	}
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	server := NewMetricsServer(MetricsServerConfig{Addr: ":9090"})

	// Shutdown without starting should not error
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() without Start() error = %v", err)
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	server := NewMetricsServer(MetricsServerConfig{Health: NewHealthChecker()})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	for _, path := range []string{"/metrics", "/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestMetricsServer_ReadinessReflectsState(t *testing.T) {
	health := NewHealthChecker()
	server := NewMetricsServer(MetricsServerConfig{Health: health})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	health.SetReady(false)
	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("GET /readyz status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != healthStatusNotReady {
		t.Errorf("status = %q, want %q", body.Status, healthStatusNotReady)
	}
}

func TestMetricsRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRun(&syncer.Stats{
		Fetched:       10,
		Synced:        6,
		Duplicates:    2,
		Welcome:       1,
		ParseFailures: 1,
		WriteFailures: 0,
	}, 3*time.Second, nil)

	if got := testutil.ToFloat64(m.runsTotal); got != 1 {
		t.Errorf("runs total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runFailures); got != 0 {
		t.Errorf("run failures = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.emailsFetched); got != 10 {
		t.Errorf("emails fetched = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.emailsSynced); got != 6 {
		t.Errorf("emails synced = %v, want 6", got)
	}
	if got := testutil.ToFloat64(m.emailsSkipped); got != 3 {
		t.Errorf("emails skipped = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.emailsFailed); got != 1 {
		t.Errorf("emails failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lastRunDuration); got != 3 {
		t.Errorf("last run duration = %v, want 3", got)
	}
}

func TestMetricsRecordRunFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRun(nil, time.Second, errors.New("list failed"))

	if got := testutil.ToFloat64(m.runsTotal); got != 1 {
		t.Errorf("runs total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runFailures); got != 1 {
		t.Errorf("run failures = %v, want 1", got)
	}
}
