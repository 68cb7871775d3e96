// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the legichat service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// GenerationBuckets defines histogram buckets suited for reasoning
// backend latencies, ranging from 100ms to 120s.
var GenerationBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legichat_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legichat_request_duration_seconds",
			Help:    "Request duration",
			Buckets: GenerationBuckets,
		},
		[]string{"method", "route"},
	)

	// StreamingConnections tracks the number of turn streams in flight.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "legichat_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// GenerationsTotal counts completed turn generations by outcome.
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legichat_generations_total",
			Help: "Turn generations",
		},
		[]string{"reasoner", "model", "status"},
	)

	// GenerationDuration records the wall-clock duration of a whole turn,
	// tool rounds included.
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legichat_generation_duration_seconds",
			Help:    "Turn generation duration",
			Buckets: GenerationBuckets,
		},
		[]string{"reasoner", "model"},
	)

	// ToolExecutionsTotal counts tool executions by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legichat_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool_name", "status"},
	)

	// ToolExecutionDuration records tool execution latency in seconds.
	ToolExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legichat_tool_execution_duration_seconds",
			Help:    "Tool execution duration",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"tool_name"},
	)

	// CatalogSearchesTotal counts legislator catalog lookups by outcome
	// (match, no_match, error).
	CatalogSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legichat_catalog_searches_total",
			Help: "Catalog searches",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		GenerationsTotal,
		GenerationDuration,
		ToolExecutionsTotal,
		ToolExecutionDuration,
		CatalogSearchesTotal,
	)
}
