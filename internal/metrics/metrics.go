package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Join outcomes
const (
	JoinJoined        = "joined"
	JoinAlreadyJoined = "already_joined"
	JoinFull          = "full"
)

// Completion reasons
const (
	CompletionTime = "time"
	CompletionWin  = "win"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trivia_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// RequestInProgress counts HTTP requests currently being processed
	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trivia_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method", "path"},
	)

	// Joins counts join attempts by outcome
	Joins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_joins_total",
			Help: "Total number of join attempts by outcome",
		},
		[]string{"result"},
	)

	// Submissions counts scored answer submissions
	Submissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_submissions_total",
			Help: "Total number of scored answer submissions",
		},
	)

	// Completions counts games transitioned to complete, by reason
	Completions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_game_completions_total",
			Help: "Total number of completed games by reason",
		},
		[]string{"reason"},
	)

	// RealtimeSubscribers tracks connected realtime subscribers
	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trivia_realtime_subscribers",
			Help: "Number of connected realtime subscribers",
		},
	)

	// RealtimeDropped counts messages dropped for slow subscribers
	RealtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trivia_realtime_dropped_messages_total",
			Help: "Total number of realtime messages dropped for slow subscribers",
		},
	)
)

// RecordJoin records a join attempt outcome
func RecordJoin(result string) {
	Joins.WithLabelValues(result).Inc()
}

// RecordCompletion records a game completing
func RecordCompletion(reason string) {
	Completions.WithLabelValues(reason).Inc()
}
