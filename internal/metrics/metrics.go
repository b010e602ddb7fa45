// Package metrics exposes Prometheus instrumentation for the voice agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stimme_turns_total",
			Help: "Completed conversation turns by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stimme_tool_invocations_total",
			Help: "Tool executions requested by the reasoning engine",
		},
		[]string{"tool", "outcome"},
	)

	AdapterErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stimme_adapter_errors_total",
			Help: "Backend adapter failures by adapter kind",
		},
		[]string{"adapter"},
	)

	EngineLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "stimme_engine_latency_seconds",
			Help: "Reasoning engine call latency in seconds",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stimme_active_sessions",
			Help: "Number of live per-identity sessions",
		},
	)
)
