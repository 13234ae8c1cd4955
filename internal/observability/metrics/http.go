package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal     *prometheus.CounterVec
	retrievalDuration  *prometheus.HistogramVec
	retrievedDocs      *prometheus.HistogramVec
	noContextTotal     *prometheus.CounterVec
	runsSubmittedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragbench",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragbench",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total successful retrieval requests by mode.",
		},
		[]string{"service", "endpoint", "mode"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragbench",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	retrievedDocs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragbench",
			Subsystem: "retrieval",
			Name:      "retrieved_documents",
			Help:      "Distribution of retrieved documents per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total retrieval requests that found no documents.",
		},
		[]string{"service", "endpoint"},
	)
	runsSubmittedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragbench",
			Subsystem: "evaluation",
			Name:      "runs_submitted_total",
			Help:      "Total evaluation runs submitted over the queue.",
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalDuration,
		retrievedDocs,
		noContextTotal,
		runsSubmittedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		retrievalTotal:     retrievalTotal,
		retrievalDuration:  retrievalDuration,
		retrievedDocs:      retrievedDocs,
		noContextTotal:     noContextTotal,
		runsSubmittedTotal: runsSubmittedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/evaluations/"):
		return "/v1/evaluations/{run_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRetrieval(service, endpoint, mode string, docCount int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.retrievalTotal.WithLabelValues(service, endpoint, mode).Inc()
	m.retrievedDocs.WithLabelValues(service, endpoint).Observe(float64(docCount))
	m.retrievalDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if docCount == 0 {
		m.noContextTotal.WithLabelValues(service, endpoint).Inc()
	}
}

func (m *HTTPServerMetrics) RecordRunSubmitted(service, mode string) {
	if mode == "" {
		mode = "unknown"
	}
	m.runsSubmittedTotal.WithLabelValues(service, mode).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
