package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skin_monitor"

// Metrics holds every collector the monitor exports. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	fetches      *prometheus.CounterVec
	matched      *prometheus.CounterVec
	publishes    *prometheus.CounterVec
	journal      *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	priceCache   *prometheus.CounterVec
	restarts     *prometheus.CounterVec
	health       *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Marketplace page fetches by source, category and result.",
		}, []string{"source", "category", "result"}),
		matched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_items_total",
			Help:      "Records that passed the discount filter.",
		}, []string{"source"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Item publish attempts by result.",
		}, []string{"source", "result"}),
		journal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_writes_total",
			Help:      "Dropped-item journal writes by result.",
		}, []string{"source", "result"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of one full pass over all categories.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),
		priceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_cache_lookups_total",
			Help:      "Reference price cache lookups by result.",
		}, []string{"source", "result"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_restarts_total",
			Help:      "Worker restarts by reason.",
		}, []string{"worker", "reason"}),
		health: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_healthy",
			Help:      "1 when the worker passed its last health check.",
		}, []string{"worker"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.fetches,
			m.matched,
			m.publishes,
			m.journal,
			m.passDuration,
			m.priceCache,
			m.restarts,
			m.health,
		)
	}
	return m
}

func (m *Metrics) FetchResult(source, category, result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(source, category, result).Inc()
}

func (m *Metrics) Matched(source string, n int) {
	if m == nil {
		return
	}
	m.matched.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) PublishResult(source, result string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(source, result).Inc()
}

func (m *Metrics) JournalWrite(source, result string) {
	if m == nil {
		return
	}
	m.journal.WithLabelValues(source, result).Inc()
}

func (m *Metrics) PassDuration(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.passDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) CacheResult(source, result string) {
	if m == nil {
		return
	}
	m.priceCache.WithLabelValues(source, result).Inc()
}

func (m *Metrics) Restarted(worker, reason string) {
	if m == nil {
		return
	}
	m.restarts.WithLabelValues(worker, reason).Inc()
}

func (m *Metrics) WorkerHealth(worker string, healthy bool) {
	if m == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	m.health.WithLabelValues(worker).Set(v)
}
