package environment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skin-monitor/internal/stories/pipeline"
	"skin-monitor/internal/workers"
)

type blockingPipeline struct{}

func (blockingPipeline) Run(ctx context.Context, hb pipeline.Heartbeat) error {
	<-ctx.Done()
	return ctx.Err()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServices(t *testing.T, window time.Duration) (*Services, *workers.Runner) {
	t.Helper()

	sup := workers.NewSupervisor(workers.SupervisorConfig{
		HealthCheckInterval: time.Hour,
		PollInterval:        time.Hour,
	}, discardLogger())
	runner := workers.NewRunner(workers.RunnerConfig{
		Name:          "bitskins",
		CheckInterval: time.Minute,
		MaxRestarts:   1,
		HealthyWindow: window,
	}, blockingPipeline{}, discardLogger())
	if err := sup.Register(runner); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return &Services{Supervisor: sup}, runner
}

func TestReadyzFollowsWorkerHealth(t *testing.T) {
	services, runner := newTestServices(t, time.Hour)
	handler := readyHandler(services)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("before start: status = %d, want 503", rec.Code)
	}

	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		runner.Stop()
		<-runner.Done()
	}()

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("running: status = %d, want 200", rec.Code)
	}
}

func TestWorkersEndpointListsSnapshots(t *testing.T) {
	services, _ := newTestServices(t, time.Hour)

	rec := httptest.NewRecorder()
	workersHandler(services, discardLogger())(rec, httptest.NewRequest(http.MethodGet, "/workers", nil))

	var got []struct {
		Name        string `json:"name"`
		Status      string `json:"status"`
		MaxRestarts int    `json:"max_restarts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if len(got) != 1 || got[0].Name != "bitskins" || got[0].Status != "not_started" || got[0].MaxRestarts != 1 {
		t.Fatalf("snapshots = %+v", got)
	}
}
