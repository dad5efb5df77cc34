// Package metrics exposes Prometheus collectors for workbook loading and the
// leaderboard API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch results.
const (
	FetchDownloaded  = "downloaded"
	FetchNotModified = "not_modified"
	FetchError       = "error"
)

// Cache outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
)

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	fetches      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	loadLatency  *prometheus.HistogramVec
	records      *prometheus.GaugeVec
	requests     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
}

// New registers the collectors with reg, or with the default registry when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaderboard_workbook_fetches_total",
				Help: "Workbook downloads by source and result.",
			},
			[]string{"source", "result"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaderboard_workbook_cache_lookups_total",
				Help: "Workbook cache lookups by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		loadLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaderboard_load_duration_seconds",
				Help:    "Time to load and aggregate a dataset.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dataset"},
		),
		records: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "leaderboard_records",
				Help: "Rows or records in the most recently loaded dataset.",
			},
			[]string{"dataset"},
		),
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaderboard_http_requests_total",
				Help: "API requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		reqLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaderboard_http_request_duration_seconds",
				Help:    "API request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Fetch counts one workbook download attempt.
func (m *Metrics) Fetch(source, result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(source, result).Inc()
}

// CacheLookup counts one cache lookup.
func (m *Metrics) CacheLookup(source, outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(source, outcome).Inc()
}

// Load records how long a dataset took to load and how large it was.
func (m *Metrics) Load(dataset string, d time.Duration, n int) {
	if m == nil {
		return
	}
	m.loadLatency.WithLabelValues(dataset).Observe(d.Seconds())
	m.records.WithLabelValues(dataset).Set(float64(n))
}

// Request records one API request.
func (m *Metrics) Request(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.reqLatency.WithLabelValues(route).Observe(d.Seconds())
}
