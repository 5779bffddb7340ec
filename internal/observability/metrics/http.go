package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	qaRequestsTotal     *prometheus.CounterVec
	qaIntentTotal       *prometheus.CounterVec
	qaNoResultsTotal    *prometheus.CounterVec
	qaGenerationFailed  *prometheus.CounterVec
	qaReflexionTotal    *prometheus.CounterVec
	qaRetrievedChunks   *prometheus.HistogramVec
	qaPipelineDuration  *prometheus.HistogramVec
	qaRetrievalDuration *prometheus.HistogramVec
	llmTokensTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "qa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	qaRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Total answering pipeline runs by endpoint.",
		},
		[]string{"service", "endpoint"},
	)
	qaIntentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "intent_total",
			Help:      "Total pipeline runs by resolved search mode and flow.",
		},
		[]string{"service", "mode", "flow"},
	)
	qaNoResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "no_results_total",
			Help:      "Total pipeline runs that retrieved no chunks.",
		},
		[]string{"service", "endpoint"},
	)
	qaGenerationFailed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "generation_failures_total",
			Help:      "Total soft generation failures by reason.",
		},
		[]string{"service", "reason"},
	)
	qaReflexionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "reflexion_total",
			Help:      "Total reflexion verdicts over generated answers.",
		},
		[]string{"service", "verdict"},
	)
	qaRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "retrieved_chunks",
			Help:      "Distribution of ranked chunks per pipeline run.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service", "endpoint"},
	)
	qaPipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	qaRetrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qa",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Retrieval stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Approximate token usage by direction.",
		},
		[]string{"service", "direction"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		qaRequestsTotal,
		qaIntentTotal,
		qaNoResultsTotal,
		qaGenerationFailed,
		qaReflexionTotal,
		qaRetrievedChunks,
		qaPipelineDuration,
		qaRetrievalDuration,
		llmTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		qaRequestsTotal:     qaRequestsTotal,
		qaIntentTotal:       qaIntentTotal,
		qaNoResultsTotal:    qaNoResultsTotal,
		qaGenerationFailed:  qaGenerationFailed,
		qaReflexionTotal:    qaReflexionTotal,
		qaRetrievedChunks:   qaRetrievedChunks,
		qaPipelineDuration:  qaPipelineDuration,
		qaRetrievalDuration: qaRetrievalDuration,
		llmTokensTotal:      llmTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
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

func (m *HTTPServerMetrics) RecordPipelineRun(service, endpoint string, rankedChunks int, duration time.Duration) {
	m.qaRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.qaRetrievedChunks.WithLabelValues(service, endpoint).Observe(float64(rankedChunks))
	m.qaPipelineDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if rankedChunks == 0 {
		m.qaNoResultsTotal.WithLabelValues(service, endpoint).Inc()
	}
}

func (m *HTTPServerMetrics) RecordIntent(service, mode, flow string) {
	if mode == "" {
		mode = "unknown"
	}
	if flow == "" {
		flow = "unknown"
	}
	m.qaIntentTotal.WithLabelValues(service, mode, flow).Inc()
}

func (m *HTTPServerMetrics) RecordGenerationFailure(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.qaGenerationFailed.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordReflexion(service string, valid bool) {
	verdict := "invalid"
	if valid {
		verdict = "valid"
	}
	m.qaReflexionTotal.WithLabelValues(service, verdict).Inc()
}

func (m *HTTPServerMetrics) RecordStageDuration(service, stage string, duration time.Duration) {
	m.qaRetrievalDuration.WithLabelValues(service, stage).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordTokenUsage(service string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, "in").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, "out").Add(float64(completionTokens))
	}
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

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
