package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamCalls  *prometheus.CounterVec
	cacheEvents    *prometheus.CounterVec
	llmTurns       *prometheus.CounterVec
	toolExecutions *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		upstreamCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_upstream_calls_total",
				Help: "Total number of upstream provider calls",
			},
			[]string{"operation", "outcome"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_cache_events_total",
				Help: "Total number of cache events (hit, miss, expired, evicted)",
			},
			[]string{"event"},
		),
		llmTurns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_llm_turns_total",
				Help: "Total number of model turns in agentic loops",
			},
			[]string{"outcome"},
		),
		toolExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsight_tool_executions_total",
				Help: "Total number of tool executions requested by the model",
			},
			[]string{"tool", "outcome"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsight_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstreamCall records one upstream provider call outcome.
func (r *Recorder) RecordUpstreamCall(operation, outcome string) {
	r.upstreamCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordCache records a cache event.
func (r *Recorder) RecordCache(event string) {
	r.cacheEvents.WithLabelValues(event).Inc()
}

// RecordLLMTurn records one model turn outcome.
func (r *Recorder) RecordLLMTurn(outcome string) {
	r.llmTurns.WithLabelValues(outcome).Inc()
}

// RecordToolExecution records one tool execution outcome.
func (r *Recorder) RecordToolExecution(tool, outcome string) {
	r.toolExecutions.WithLabelValues(tool, outcome).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
