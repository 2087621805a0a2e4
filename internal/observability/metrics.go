package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	queueDropped  prometheus.Counter
	slaWarnings   prometheus.Counter
	sweepTickets  *prometheus.CounterVec
	sweepDuration prometheus.Histogram
}

// NewMetrics registers the service collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP error responses by domain error code.",
		}, []string{"route", "method", "code"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by event and outcome.",
		}, []string{"event", "outcome"}),
		queueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_queue_dropped_total",
			Help:      "Notifications dropped because the queue was full.",
		}),
		slaWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_warnings_total",
			Help:      "SLA warnings recorded by the sweep.",
		}),
		sweepTickets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sla_sweep_tickets_total",
			Help:      "Tickets visited by the SLA sweep by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sla_sweep_duration_seconds",
			Help:      "Wall time of one SLA sweep pass.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestTime, m.errors, m.notifications,
		m.queueDropped, m.slaWarnings, m.sweepTickets, m.sweepDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordNotification counts one finished delivery.
func (m *Metrics) RecordNotification(event, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(event, outcome).Inc()
}

// RecordQueueDrop counts a notification rejected by a full queue.
func (m *Metrics) RecordQueueDrop() {
	if m == nil {
		return
	}
	m.queueDropped.Inc()
}

// RecordSweep records the outcome of one sweep pass.
func (m *Metrics) RecordSweep(scanned, warned, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepTickets.WithLabelValues("scanned").Add(float64(scanned))
	m.sweepTickets.WithLabelValues("warned").Add(float64(warned))
	m.sweepTickets.WithLabelValues("failed").Add(float64(failed))
	m.slaWarnings.Add(float64(warned))
	m.sweepDuration.Observe(duration.Seconds())
}
