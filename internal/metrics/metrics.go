package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Remote API metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bb_http_requests_total",
			Help: "Total number of HTTP requests sent to the remote API, by endpoint and status class.",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bb_http_retries_total",
			Help: "Total number of retried HTTP requests.",
		},
		[]string{"method", "endpoint"},
	)
)

// Bulk run metrics
var (
	SubtitleActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bb_subtitle_actions_total",
			Help: "Total number of subtitle action dispatches.",
		},
		[]string{"action", "kind", "status"},
	)

	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bb_records_total",
			Help: "Records seen by the pipeline, by stage.",
		},
		[]string{"kind", "stage"},
	)

	LedgerWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bb_ledger_writes_total",
			Help: "Processed-subtitle ledger writes.",
		},
		[]string{"kind", "result"},
	)

	LedgerLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bb_ledger_lookups_total",
			Help: "Processed-pair lookups, by where the answer came from.",
		},
		[]string{"source"},
	)

	InventoryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bb_inventory_cache_requests_total",
			Help: "Inventory list requests that consulted the cache, by result.",
		},
		[]string{"result"},
	)

	RunDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bb_run_duration_seconds",
			Help: "Wall-clock duration of the last bulk run.",
		},
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bb_last_run_timestamp_seconds",
			Help: "Unix time at which the last bulk run finished.",
		},
	)
)

// Dispatch statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Ledger lookup sources
const (
	LookupMemo    = "memo"
	LookupBackend = "backend"
)

// Inventory cache results. A stale entry was cached but no longer decodes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
)

// StatusClass maps an HTTP status code to its "2xx"-style label.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "error"
	}
}

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRetriesTotal,
		SubtitleActionsTotal,
		RecordsTotal,
		LedgerWritesTotal,
		LedgerLookupsTotal,
		InventoryCacheTotal,
		RunDurationSeconds,
		LastRunTimestamp,
	)
}
