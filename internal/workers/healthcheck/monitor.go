package healthcheck

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"skin-monitor/internal/alerts"
	"skin-monitor/internal/workers"
)

const timeLayout = "2006-01-02 15:04:05"

type workerStatus struct {
	healthy     bool
	exhausted   bool
	unhealthyAt time.Time
}

// Monitor turns health sweeps into per-worker transitions. Every transition
// updates the health gauge and, when a notifier is set, sends one alert to
// each admin.
type Monitor struct {
	telegram  TelegramNotifier
	templates Templates
	metrics   Metrics
	adminIDs  []int64
	lang      string
	logger    *slog.Logger

	mu       sync.Mutex
	statuses map[string]*workerStatus
}

// NewMonitor builds a Monitor. telegram and metrics may be nil.
func NewMonitor(
	telegram TelegramNotifier,
	templates Templates,
	metrics Metrics,
	adminIDs []int64,
	lang string,
	logger *slog.Logger,
) *Monitor {
	return &Monitor{
		telegram:  telegram,
		templates: templates,
		metrics:   metrics,
		adminIDs:  adminIDs,
		lang:      lang,
		logger:    logger,
		statuses:  make(map[string]*workerStatus),
	}
}

func (m *Monitor) Report(reports []workers.HealthReport) {
	for _, rep := range reports {
		if m.metrics != nil {
			m.metrics.WorkerHealth(rep.State.Name, rep.Healthy)
		}
		if key, params, ok := m.transition(rep); ok {
			m.notify(rep.State.Name, key, params)
		}
	}
}

// transition updates the tracked status and returns the alert to send, if
// any.
func (m *Monitor) transition(rep workers.HealthReport) (string, map[string]interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := rep.State
	prev, exists := m.statuses[st.Name]
	if !exists {
		prev = &workerStatus{healthy: true}
		m.statuses[st.Name] = prev
	}

	switch {
	case st.Exhausted && !prev.exhausted:
		prev.exhausted = true
		if prev.healthy {
			prev.unhealthyAt = rep.At
		}
		prev.healthy = false
		return alerts.KeyWorkerStopped, map[string]interface{}{
			"name":         st.Name,
			"restarts":     st.RestartCount,
			"max_restarts": st.MaxRestarts,
			"error":        st.LastError,
			"time":         rep.At.Format(timeLayout),
		}, true

	case !rep.Healthy && prev.healthy:
		prev.healthy = false
		prev.unhealthyAt = rep.At
		return alerts.KeyWorkerUnhealthy, map[string]interface{}{
			"name":         st.Name,
			"status":       st.StatusText,
			"since":        formatDuration(rep.At.Sub(st.LastHeartbeat)),
			"restarts":     st.RestartCount,
			"max_restarts": st.MaxRestarts,
			"time":         rep.At.Format(timeLayout),
		}, true

	case rep.Healthy && !prev.healthy:
		downtime := rep.At.Sub(prev.unhealthyAt)
		prev.healthy = true
		prev.exhausted = false
		return alerts.KeyWorkerRecovered, map[string]interface{}{
			"name":     st.Name,
			"downtime": formatDuration(downtime),
			"time":     rep.At.Format(timeLayout),
		}, true
	}

	return "", nil, false
}

func (m *Monitor) notify(worker, key string, params map[string]interface{}) {
	m.logger.Info("Worker health changed", "name", worker, "alert", key)
	if m.telegram == nil {
		return
	}

	message := m.templates.Get(m.lang, key, params)
	for _, adminID := range m.adminIDs {
		if err := m.telegram.SendMessage(adminID, message); err != nil {
			m.logger.Error("Failed to send health alert to admin",
				"admin_id", adminID,
				"name", worker,
				"error", err)
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d sec", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d min %d sec", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%d h %d min", int(d.Hours()), int(d.Minutes())%60)
}
