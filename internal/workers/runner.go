package workers

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"skin-monitor/internal/stories/pipeline"
)

var ErrAlreadyStarted = errors.New("worker already started")

type RunnerConfig struct {
	Name          string
	CheckInterval time.Duration
	MaxRestarts   int
	RestartDelay  time.Duration
	ReturnDelay   time.Duration
	HealthyWindow time.Duration
}

// outcome classifies how one pipeline invocation ended.
type outcome int

const (
	outcomeCancelled outcome = iota
	outcomeReturned
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeReturned:
		return "returned"
	case outcomeFailed:
		return "failed"
	default:
		return "cancelled"
	}
}

// consumesRestart reports whether the outcome is charged against the
// restart budget.
func (o outcome) consumesRestart() bool {
	return o != outcomeCancelled
}

func classify(ctx context.Context, err error) outcome {
	if ctx.Err() != nil {
		return outcomeCancelled
	}
	if err == nil {
		return outcomeReturned
	}
	return outcomeFailed
}

type RunnerOption func(*Runner)

func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

func WithRunnerMetrics(m Metrics) RunnerOption {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// Runner supervises one pipeline: it restarts it after failures and
// unexpected returns until the restart budget is spent, and tracks the
// heartbeat used for health checks.
type Runner struct {
	cfg      RunnerConfig
	pipeline Pipeline
	metrics  Metrics
	now      func() time.Time
	logger   *slog.Logger

	status      atomic.Int32
	heartbeat   atomic.Int64
	restarts    atomic.Int32
	invocations atomic.Int32
	exhausted   atomic.Bool
	lastErr     atomic.Pointer[string]

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

func NewRunner(cfg RunnerConfig, p Pipeline, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		pipeline: p,
		metrics:  noopMetrics{},
		now:      time.Now,
		logger:   logger.With("worker", cfg.Name),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.heartbeat.Store(r.now().UnixNano())
	return r
}

func (r *Runner) Name() string {
	return r.cfg.Name
}

// Start launches the supervised loop in its own goroutine. The cancel func
// is stored under mu before Stop can read it.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.status.CompareAndSwap(int32(StatusNotStarted), int32(StatusRunning)) {
		return fmt.Errorf("start %s: %w", r.cfg.Name, ErrAlreadyStarted)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.Beat()
	go r.loop(runCtx)
	return nil
}

// Stop requests a cooperative stop. The worker is Stopping until its loop
// observes cancellation and exits.
func (r *Runner) Stop() {
	if r.status.CompareAndSwap(int32(StatusNotStarted), int32(StatusStopped)) {
		r.finish()
		return
	}
	if !r.status.CompareAndSwap(int32(StatusRunning), int32(StatusStopping)) {
		return
	}

	r.logger.Info("Stopping worker")
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Beat records that the pipeline is making progress.
func (r *Runner) Beat() {
	r.heartbeat.Store(r.now().UnixNano())
}

func (r *Runner) Status() Status {
	return Status(r.status.Load())
}

// Healthy reports whether the worker is running and has beaten within the
// healthy window.
func (r *Runner) Healthy(now time.Time) bool {
	if r.Status() != StatusRunning {
		return false
	}
	last := time.Unix(0, r.heartbeat.Load())
	return now.Sub(last) < r.cfg.HealthyWindow
}

func (r *Runner) Snapshot() State {
	status := r.Status()
	st := State{
		Name:          r.cfg.Name,
		Status:        status,
		StatusText:    status.String(),
		LastHeartbeat: time.Unix(0, r.heartbeat.Load()).UTC(),
		RestartCount:  int(r.restarts.Load()),
		MaxRestarts:   r.cfg.MaxRestarts,
		CheckInterval: r.cfg.CheckInterval,
		Invocations:   int(r.invocations.Load()),
		Exhausted:     r.exhausted.Load(),
	}
	if msg := r.lastErr.Load(); msg != nil {
		st.LastError = *msg
	}
	return st
}

func (r *Runner) loop(ctx context.Context) {
	defer r.finish()

	r.logger.Info("Worker started",
		"max_restarts", r.cfg.MaxRestarts,
		"check_interval", r.cfg.CheckInterval)

	for {
		if ctx.Err() != nil {
			r.logger.Info("Worker stopped")
			return
		}

		r.Beat()
		r.invocations.Add(1)
		res, err := r.invoke(ctx)

		if !res.consumesRestart() {
			r.logger.Info("Worker stopped")
			return
		}

		delay := r.cfg.RestartDelay
		if res == outcomeReturned {
			delay = r.cfg.ReturnDelay
			err = errors.New("pipeline returned without cancellation")
		}
		msg := err.Error()
		r.lastErr.Store(&msg)

		if int(r.restarts.Load()) >= r.cfg.MaxRestarts {
			r.exhausted.Store(true)
			r.logger.Error("Worker exceeded restart budget, giving up",
				"outcome", res.String(),
				"stage", failureStage(err),
				"restart_count", r.restarts.Load(),
				"max_restarts", r.cfg.MaxRestarts,
				"error", err)
			return
		}
		count := int(r.restarts.Add(1))
		r.metrics.Restarted(r.cfg.Name, res.String())

		r.logger.Warn("Worker exited, restarting",
			"outcome", res.String(),
			"stage", failureStage(err),
			"restart", count,
			"max_restarts", r.cfg.MaxRestarts,
			"delay", delay,
			"error", err)

		if !sleepCtx(ctx, delay) {
			r.logger.Info("Worker stopped during restart delay")
			return
		}
	}
}

func (r *Runner) invoke(ctx context.Context) (res outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
			res = classify(ctx, err)
		}
	}()

	err = r.pipeline.Run(ctx, r)
	return classify(ctx, err), err
}

func (r *Runner) finish() {
	r.doneOnce.Do(func() {
		r.status.Store(int32(StatusStopped))
		r.mu.Lock()
		if r.cancel != nil {
			r.cancel()
		}
		r.mu.Unlock()
		close(r.done)
	})
}

func failureStage(err error) string {
	var failure *pipeline.Failure
	if errors.As(err, &failure) {
		return string(failure.Stage)
	}
	return ""
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type noopMetrics struct{}

func (noopMetrics) Restarted(string, string) {}
