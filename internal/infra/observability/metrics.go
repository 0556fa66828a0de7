package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	gatewayErrors     *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	transfers         *prometheus.CounterVec
	optimisticApplies prometheus.Counter
	compensations     prometheus.Counter
	sessionRestores   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankview_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		gatewayErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankview_gateway_errors_total",
				Help: "Total errors from the backend gateway.",
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankview_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankview_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankview_transfers_total",
				Help: "Total transfer submissions by outcome.",
			},
			[]string{"outcome"},
		),
		optimisticApplies: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bankview_optimistic_applies_total",
				Help: "Total optimistic balance adjustments applied locally.",
			},
		),
		compensations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bankview_compensations_total",
				Help: "Total compensating adjustments after async transfer failures.",
			},
		),
		sessionRestores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankview_session_restores_total",
				Help: "Total session restore attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrGatewayError increments the gateway error counter.
func (m *Metrics) IncrGatewayError(operation string) {
	m.gatewayErrors.WithLabelValues(operation).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTransfer counts one transfer submission outcome
// ("accepted" or "rejected").
func (m *Metrics) RecordTransfer(outcome string) {
	m.transfers.WithLabelValues(outcome).Inc()
}

// RecordOptimisticApply counts one local optimistic adjustment.
func (m *Metrics) RecordOptimisticApply() {
	m.optimisticApplies.Inc()
}

// RecordCompensation counts one compensating adjustment.
func (m *Metrics) RecordCompensation() {
	m.compensations.Inc()
}

// RecordSessionRestore counts one restore attempt outcome
// ("restored", "expired", or "none").
func (m *Metrics) RecordSessionRestore(outcome string) {
	m.sessionRestores.WithLabelValues(outcome).Inc()
}

// SyncSnapshot summarizes state-sync health for the admin sync-metrics
// endpoint: how often transfers succeed and how often local state needed
// correcting.
type SyncSnapshot struct {
	TransfersAccepted float64 `json:"transfersAccepted"`
	TransfersRejected float64 `json:"transfersRejected"`
	OptimisticApplies float64 `json:"optimisticApplies"`
	Compensations     float64 `json:"compensations"`
	CacheHitRate      float64 `json:"cacheHitRate"`
}

// GetSyncSnapshot returns the current cumulative sync counters.
func (m *Metrics) GetSyncSnapshot() *SyncSnapshot {
	hits := getCounterValue(m.cacheHits.WithLabelValues("banks"))
	misses := getCounterValue(m.cacheMisses.WithLabelValues("banks"))

	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &SyncSnapshot{
		TransfersAccepted: getCounterValue(m.transfers.WithLabelValues("accepted")),
		TransfersRejected: getCounterValue(m.transfers.WithLabelValues("rejected")),
		OptimisticApplies: getCounterValue(m.optimisticApplies),
		Compensations:     getCounterValue(m.compensations),
		CacheHitRate:      hitRate,
	}
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
