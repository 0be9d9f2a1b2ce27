package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики транспортного адаптера и оркестратора.
var (
	// GatewayAttempts — попытки запросов к бэкенду по акторам и исходам.
	// outcome: "success" | "error"
	GatewayAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craneguard_gateway_attempts_total",
		Help: "Backend request attempts by actor and outcome",
	}, []string{"actor", "outcome"})

	// GatewayRetries — количество повторных попыток запросов.
	GatewayRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "craneguard_gateway_retries_total",
		Help: "Backend request retries",
	})

	// GatewayDuration — длительность одной попытки запроса.
	GatewayDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "craneguard_gateway_attempt_duration_seconds",
		Help:    "Duration of a single backend request attempt",
		Buckets: prometheus.DefBuckets,
	})

	// StepRuns — завершения шагов сценария по кодам и статусам.
	// status: "SUCCESS" | "ERROR"
	StepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craneguard_step_runs_total",
		Help: "Workflow step completions by code and status",
	}, []string{"code", "status"})

	// WorkflowRuns — завершения полных прогонов по статусам.
	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craneguard_workflow_runs_total",
		Help: "Full workflow run completions by status",
	}, []string{"status"})
)
