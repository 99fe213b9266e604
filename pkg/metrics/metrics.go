// Package metrics defines the Prometheus collectors used by the index
// builder, the ranking engine, the experiment runner and the search service,
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	IndexBuildsTotal     *prometheus.CounterVec
	IndexBuildDuration   *prometheus.HistogramVec
	VocabularySize       *prometheus.GaugeVec
	IndexedDocuments     *prometheus.GaugeVec
	QueriesRankedTotal   *prometheus.CounterVec
	RankLatency          *prometheus.HistogramVec
	CandidatesPerQuery   *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	RunsCompletedTotal   *prometheus.CounterVec
	RunMAP               *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg. Tests pass a fresh
// prometheus.NewRegistry(); binaries pass prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_builds_total",
				Help: "Index builds by field and status (ok, error).",
			},
			[]string{"field", "status"},
		),
		IndexBuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "index_build_duration_seconds",
				Help:    "Wall time of a full index build, norms included.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"field"},
		),
		VocabularySize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "index_vocabulary_size",
				Help: "Distinct terms in the built index.",
			},
			[]string{"field"},
		),
		IndexedDocuments: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Documents in the built index.",
			},
			[]string{"field"},
		),
		QueriesRankedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_ranked_total",
				Help: "Ranked queries by outcome (hit, zero_result, timeout, error).",
			},
			[]string{"outcome"},
		),
		RankLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rank_latency_seconds",
				Help:    "Cosine ranking latency per query.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
			},
			[]string{"field"},
		),
		CandidatesPerQuery: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rank_candidates",
				Help:    "Candidate documents scored per query.",
				Buckets: []float64{0, 1, 10, 100, 500, 1000, 5000},
			},
			[]string{"field"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		RunsCompletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "experiment_runs_total",
				Help: "Completed experiment runs by run name.",
			},
			[]string{"run"},
		),
		RunMAP: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "experiment_run_map",
				Help: "Mean average precision of the latest run.",
			},
			[]string{"run"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.IndexBuildsTotal,
		m.IndexBuildDuration,
		m.VocabularySize,
		m.IndexedDocuments,
		m.QueriesRankedTotal,
		m.RankLatency,
		m.CandidatesPerQuery,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RunsCompletedTotal,
		m.RunMAP,
	)

	return m
}

// Handler returns the scrape handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
