package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	answerTotal    *prometheus.CounterVec
	answerDuration *prometheus.HistogramVec
	answerInFlight prometheus.Gauge
	reflexionTotal *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	answerTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "worker",
			Name:      "deferred_answers_total",
			Help:      "Total deferred questions answered by status.",
		},
		[]string{"service", "status"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qa",
			Subsystem: "worker",
			Name:      "deferred_answer_duration_seconds",
			Help:      "Deferred answering duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	answerInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "qa",
			Subsystem: "worker",
			Name:      "deferred_answers_in_flight",
			Help:      "Number of deferred questions being answered.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	reflexionTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qa",
			Subsystem: "worker",
			Name:      "reflexion_total",
			Help:      "Total reflexion verdicts over deferred answers.",
		},
		[]string{"service", "verdict"},
	)

	registry.MustRegister(answerTotal, answerDuration, answerInFlight, reflexionTotal)

	return &WorkerMetrics{
		registry:       registry,
		answerTotal:    answerTotal,
		answerDuration: answerDuration,
		answerInFlight: answerInFlight,
		reflexionTotal: reflexionTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartQuestion() {
	m.answerInFlight.Inc()
}

func (m *WorkerMetrics) FinishQuestion(service string, duration time.Duration, err error) {
	m.answerInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.answerTotal.WithLabelValues(service, status).Inc()
	m.answerDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordReflexion(service string, valid bool) {
	verdict := "invalid"
	if valid {
		verdict = "valid"
	}
	m.reflexionTotal.WithLabelValues(service, verdict).Inc()
}
