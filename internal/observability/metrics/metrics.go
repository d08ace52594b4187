package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AgentMetrics aggregates request-level and conversation-level counters
// behind a private registry, so tests can build isolated instances.
type AgentMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatTurnsTotal     *prometheus.CounterVec
	actionsTotal       *prometheus.CounterVec
	classifierTotal    *prometheus.CounterVec
	pendingEventsGauge prometheus.Gauge
	orderStepsTotal    *prometheus.CounterVec
	ordersCreatedTotal *prometheus.CounterVec
	generateDuration   *prometheus.HistogramVec
	weatherChecksTotal *prometheus.CounterVec
}

func NewAgentMetrics(service string) *AgentMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eva",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eva",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "eva",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatTurnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eva",
			Subsystem: "agent",
			Name:      "chat_turns_total",
			Help:      "Total completed chat turns by outcome.",
		},
		[]string{"service", "outcome"},
	)
	actionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eva",
			Subsystem: "agent",
			Name:      "actions_total",
			Help:      "Total executed event actions by tool and status.",
		},
		[]string{"service", "tool", "status"},
	)
	classifierTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eva",
			Subsystem: "classifier",
			Name:      "decisions_total",
			Help:      "Total classifier decisions by kind and label.",
		},
		[]string{"service", "kind", "label"},
	)
	pendingEventsGauge := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "eva",
			Subsystem: "agent",
			Name:      "pending_events",
			Help:      "Events currently awaiting weather confirmation.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	orderStepsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eva",
			Subsystem: "order",
			Name:      "dialogue_steps_total",
			Help:      "Total order dialogue transitions by step and status.",
		},
		[]string{"service", "step", "status"},
	)
	ordersCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eva",
			Subsystem: "order",
			Name:      "created_total",
			Help:      "Total orders persisted through the dialogue.",
		},
		[]string{"service"},
	)
	generateDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eva",
			Subsystem: "llm",
			Name:      "generate_duration_seconds",
			Help:      "Text generation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	weatherChecksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eva",
			Subsystem: "weather",
			Name:      "checks_total",
			Help:      "Total weather lookups by result.",
		},
		[]string{"service", "result"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatTurnsTotal,
		actionsTotal,
		classifierTotal,
		pendingEventsGauge,
		orderStepsTotal,
		ordersCreatedTotal,
		generateDuration,
		weatherChecksTotal,
	)

	return &AgentMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatTurnsTotal:     chatTurnsTotal,
		actionsTotal:       actionsTotal,
		classifierTotal:    classifierTotal,
		pendingEventsGauge: pendingEventsGauge,
		orderStepsTotal:    orderStepsTotal,
		ordersCreatedTotal: ordersCreatedTotal,
		generateDuration:   generateDuration,
		weatherChecksTotal: weatherChecksTotal,
	}
}

func (m *AgentMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *AgentMetrics) Middleware(service string, next http.Handler) http.Handler {
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
	case strings.HasPrefix(path, "/v1/chat/"):
		return "/v1/chat/{session}"
	case strings.HasPrefix(path, "/v1/events/"):
		return "/v1/events/{event_id}/orders.xlsx"
	default:
		return path
	}
}

func (m *AgentMetrics) RecordChatTurn(service, outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.chatTurnsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *AgentMetrics) RecordAction(service, tool, status string) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.actionsTotal.WithLabelValues(service, tool, status).Inc()
}

func (m *AgentMetrics) RecordClassifierDecision(service, kind, label string) {
	if m == nil {
		return
	}
	if label == "" {
		label = "unknown"
	}
	m.classifierTotal.WithLabelValues(service, kind, label).Inc()
}

func (m *AgentMetrics) PendingEventStored(delta int) {
	if m == nil {
		return
	}
	m.pendingEventsGauge.Add(float64(delta))
}

func (m *AgentMetrics) RecordOrderStep(service, step, status string) {
	if m == nil {
		return
	}
	if step == "" {
		step = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.orderStepsTotal.WithLabelValues(service, step, status).Inc()
}

func (m *AgentMetrics) RecordOrderCreated(service string) {
	if m == nil {
		return
	}
	m.ordersCreatedTotal.WithLabelValues(service).Inc()
}

func (m *AgentMetrics) RecordGenerateDuration(service string, duration time.Duration) {
	if m == nil {
		return
	}
	m.generateDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *AgentMetrics) RecordWeatherCheck(service, result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.weatherChecksTotal.WithLabelValues(service, result).Inc()
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
