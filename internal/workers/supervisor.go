package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
)

var (
	ErrDuplicateWorker = errors.New("duplicate worker name")
	ErrNoWorkers       = errors.New("no workers registered")
	ErrAllStopped      = errors.New("all workers stopped")
)

type SupervisorConfig struct {
	HealthCheckInterval time.Duration
	PollInterval        time.Duration
	StartStagger        time.Duration
}

type SupervisorOption func(*Supervisor)

func WithReporter(r HealthReporter) SupervisorOption {
	return func(s *Supervisor) {
		if r != nil {
			s.reporters = append(s.reporters, r)
		}
	}
}

func WithSupervisorClock(now func() time.Time) SupervisorOption {
	return func(s *Supervisor) {
		s.now = now
	}
}

// Supervisor starts the registered workers, sweeps their health on a
// schedule and stops them on shutdown.
type Supervisor struct {
	cfg       SupervisorConfig
	reporters []HealthReporter
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.RWMutex
	workers []Worker
	names   map[string]struct{}
}

func NewSupervisor(cfg SupervisorConfig, logger *slog.Logger, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
		names:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a worker. Names must be unique.
func (s *Supervisor) Register(w Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := w.Name()
	if name == "" {
		return errors.New("worker name is empty")
	}
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("register %s: %w", name, ErrDuplicateWorker)
	}
	s.names[name] = struct{}{}
	s.workers = append(s.workers, w)
	return nil
}

// Workers returns the registered workers in registration order.
func (s *Supervisor) Workers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Worker(nil), s.workers...)
}

func (s *Supervisor) Snapshots() []State {
	return lo.Map(s.Workers(), func(w Worker, _ int) State {
		return w.Snapshot()
	})
}

// Healthy reports whether every registered worker is healthy now.
func (s *Supervisor) Healthy() bool {
	workers := s.Workers()
	now := s.now()
	return len(workers) > 0 && lo.EveryBy(workers, func(w Worker) bool {
		return w.Healthy(now)
	})
}

// Run starts every worker and blocks until ctx is done or every worker has
// stopped. It returns ErrAllStopped in the latter case.
func (s *Supervisor) Run(ctx context.Context) error {
	workers := s.Workers()
	if len(workers) == 0 {
		return ErrNoWorkers
	}

	s.logger.Info("Starting supervisor",
		"worker_count", len(workers),
		"health_check_interval", s.cfg.HealthCheckInterval,
		"start_stagger", s.cfg.StartStagger)

	for i, w := range workers {
		if i > 0 && !sleepCtx(ctx, s.cfg.StartStagger) {
			s.logger.Info("Supervisor cancelled during startup")
			return nil
		}
		s.logger.Info("Starting worker", "name", w.Name())
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker %s: %w", w.Name(), err)
		}
	}
	s.logger.Info("All workers started")

	sched := cron.New()
	if s.cfg.HealthCheckInterval > 0 {
		sched.Schedule(cron.Every(s.cfg.HealthCheckInterval), cron.FuncJob(s.Sweep))
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	poll := s.cfg.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Supervisor loop cancelled")
			return nil
		case <-ticker.C:
			if s.allStopped() {
				s.logger.Warn("All workers stopped, leaving supervisor loop")
				return ErrAllStopped
			}
		}
	}
}

func (s *Supervisor) allStopped() bool {
	return lo.EveryBy(s.Workers(), func(w Worker) bool {
		return w.Snapshot().Status == StatusStopped
	})
}

// Sweep evaluates every worker once, logs the verdict and hands the
// reports to the configured reporters.
func (s *Supervisor) Sweep() {
	now := s.now()
	workers := s.Workers()

	reports := make([]HealthReport, 0, len(workers))
	for _, w := range workers {
		st := w.Snapshot()
		healthy := w.Healthy(now)
		reports = append(reports, HealthReport{State: st, Healthy: healthy, At: now})

		if healthy {
			s.logger.Debug("Worker healthy",
				"name", st.Name,
				"since_heartbeat", now.Sub(st.LastHeartbeat))
			continue
		}
		s.logger.Warn("Worker unhealthy",
			"name", st.Name,
			"status", st.StatusText,
			"since_heartbeat", now.Sub(st.LastHeartbeat),
			"restart_count", st.RestartCount,
			"exhausted", st.Exhausted)
	}

	for _, r := range s.reporters {
		r.Report(reports)
	}
}

// Shutdown stops every worker and waits for them until ctx is done. It
// returns the names of workers that did not finish in time.
func (s *Supervisor) Shutdown(ctx context.Context) []string {
	workers := s.Workers()
	s.logger.Info("Stopping all workers", "worker_count", len(workers))

	for _, w := range workers {
		w.Stop()
	}

	var unfinished []string
	for _, w := range workers {
		select {
		case <-w.Done():
			continue
		default:
		}

		select {
		case <-w.Done():
		case <-ctx.Done():
		}

		select {
		case <-w.Done():
		default:
			s.logger.Warn("Worker did not stop before deadline", "name", w.Name())
			unfinished = append(unfinished, w.Name())
		}
	}

	s.logger.Info("All workers stopped", "unfinished", len(unfinished))
	return unfinished
}
