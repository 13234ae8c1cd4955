package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	runTotal         *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	runInFlight      prometheus.Gauge
	queriesEvaluated *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "worker",
			Name:      "evaluation_runs_total",
			Help:      "Total completed evaluation runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragbench",
			Subsystem: "worker",
			Name:      "evaluation_run_duration_seconds",
			Help:      "Evaluation run duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragbench",
			Subsystem: "worker",
			Name:      "evaluation_runs_in_flight",
			Help:      "Number of evaluation runs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queriesEvaluated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "worker",
			Name:      "queries_evaluated_total",
			Help:      "Total evaluated queries across all runs.",
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(runTotal, runDuration, runInFlight, queriesEvaluated)

	return &WorkerMetrics{
		registry:         registry,
		runTotal:         runTotal,
		runDuration:      runDuration,
		runInFlight:      runInFlight,
		queriesEvaluated: queriesEvaluated,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.runInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, err error) {
	m.runInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.runTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) AddQueriesEvaluated(service, mode string, count int) {
	if count <= 0 {
		return
	}
	if mode == "" {
		mode = "unknown"
	}
	m.queriesEvaluated.WithLabelValues(service, mode).Add(float64(count))
}
