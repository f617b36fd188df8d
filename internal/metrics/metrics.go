// Package metrics holds the Prometheus collectors of workshop-ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ledger metrics
	EventsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_appended_total",
			Help: "Total number of repair events appended",
		},
		[]string{"status"},
	)

	DevicesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_devices_recorded_total",
			Help: "Total number of devices covered by appended events",
		},
	)

	LedgerEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_entries",
			Help: "Number of events currently held by the ledger",
		},
	)

	PersistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_persist_duration_seconds",
			Help:    "Time taken to persist the ledger snapshot",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_persist_failures_total",
			Help: "Total number of failed snapshot writes",
		},
		[]string{"operation"},
	)

	// Reporting metrics
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_cache_requests_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"result"},
	)

	ReconcileCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_calls_total",
			Help: "Calls to the external reconciliation system",
		},
		[]string{"status"},
	)

	// Maintenance metrics
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backups_total",
			Help: "Backups written by target and outcome",
		},
		[]string{"target", "status"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ObservePersist records the outcome of one snapshot write.
func ObservePersist(operation string, start time.Time, err error) {
	PersistDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		PersistFailures.WithLabelValues(operation).Inc()
	}
}

// RecordBackup counts one backup attempt.
func RecordBackup(target string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	BackupsTotal.WithLabelValues(target, status).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
