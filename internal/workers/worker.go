package workers

import (
	"context"
	"time"

	"skin-monitor/internal/stories/pipeline"
)

// Worker is a supervised unit registered with the Supervisor.
type Worker interface {
	// Start launches the worker and returns immediately.
	Start(ctx context.Context) error

	// Stop requests a cooperative stop. It does not wait.
	Stop()

	// Done is closed once the worker loop has exited.
	Done() <-chan struct{}

	// Name returns the worker name for logging
	Name() string

	Snapshot() State
	Healthy(now time.Time) bool
}

// Pipeline is the long-running body a Runner supervises. Run is expected to
// loop until ctx is cancelled and to beat hb at the start of every pass.
type Pipeline interface {
	Run(ctx context.Context, hb pipeline.Heartbeat) error
}

type Status int32

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusStopping
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of a worker.
type State struct {
	Name          string        `json:"name"`
	Status        Status        `json:"-"`
	StatusText    string        `json:"status"`
	LastHeartbeat time.Time     `json:"last_heartbeat"`
	RestartCount  int           `json:"restart_count"`
	MaxRestarts   int           `json:"max_restarts"`
	CheckInterval time.Duration `json:"check_interval"`
	Invocations   int           `json:"invocations"`
	Exhausted     bool          `json:"exhausted"`
	LastError     string        `json:"last_error,omitempty"`
}

// HealthReport pairs a snapshot with the health verdict of one sweep.
type HealthReport struct {
	State   State
	Healthy bool
	At      time.Time
}

type (
	// HealthReporter receives the reports of every health sweep.
	HealthReporter interface {
		Report(reports []HealthReport)
	}

	Metrics interface {
		Restarted(worker, reason string)
	}
)
