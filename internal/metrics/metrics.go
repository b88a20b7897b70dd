package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the scoreboard server
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Realtime Metrics
	WSConnections    prometheus.Gauge
	EventsPublished  *prometheus.CounterVec
	EventsDropped    prometheus.Counter
	PresenceBindings prometheus.Gauge

	// Business Metrics
	RoundsStarted prometheus.Counter
	RoundsEnded   *prometheus.CounterVec
	TasksCreated  *prometheus.CounterVec
	TaskDecisions *prometheus.CounterVec
	FlagVerdicts  *prometheus.CounterVec
	VotesCast     *prometheus.CounterVec
}

// NewMetricsRegistry registers every metric with reg. Pass prometheus.DefaultRegisterer
// in the server and a fresh prometheus.NewRegistry() in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scoreboard_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scoreboard_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed by method",
			},
			[]string{"method"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Realtime Metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scoreboard_ws_connections",
				Help: "Current number of open websocket connections",
			},
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_events_published_total",
				Help: "Room events fanned out, by event kind",
			},
			[]string{"event"},
		),
		EventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scoreboard_events_dropped_total",
				Help: "Outbound frames dropped because a connection buffer was full",
			},
		),
		PresenceBindings: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scoreboard_presence_bindings",
				Help: "Connections currently bound to a room",
			},
		),

		// Business Metrics
		RoundsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "scoreboard_rounds_started_total",
				Help: "Total rounds started",
			},
		),
		RoundsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_rounds_ended_total",
				Help: "Total rounds ended, by trigger (manual or expired)",
			},
			[]string{"trigger"},
		),
		TasksCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_tasks_created_total",
				Help: "Total tasks created, by template",
			},
			[]string{"template"},
		),
		TaskDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_task_decisions_total",
				Help: "Peer approval decisions, by outcome",
			},
			[]string{"outcome"},
		),
		FlagVerdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_flag_verdicts_total",
				Help: "Flag disputes settled by quorum, by verdict",
			},
			[]string{"verdict"},
		),
		VotesCast: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoreboard_votes_cast_total",
				Help: "Ballots recorded, by vote type",
			},
			[]string{"vote_type"},
		),
	}
}
