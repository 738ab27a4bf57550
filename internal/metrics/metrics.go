package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatpush"

// Metrics owns the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	notificationsShown *prometheus.CounterVec
	notificationsEmpty *prometheus.CounterVec
	notificationClicks *prometheus.CounterVec
	messagesDeleted    *prometheus.CounterVec
	adminAuthFailures  prometheus.Counter
	windowsConnected   *prometheus.GaugeVec
	hubMessages        *prometheus.CounterVec
	assistantRequests  *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		notificationsShown: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_shown_total",
				Help:      "Notifications displayed, by worker profile and payload kind",
			},
			[]string{"profile", "payload"},
		),
		notificationsEmpty: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "push_events_empty_total",
				Help:      "Push events received without a payload",
			},
			[]string{"profile"},
		),
		notificationClicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_clicks_total",
				Help:      "Notification clicks by routing outcome",
			},
			[]string{"outcome"},
		),
		messagesDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_deleted_total",
				Help:      "Chat messages removed by admin deletions",
			},
			[]string{"operation"},
		),
		adminAuthFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_auth_failures_total",
				Help:      "Admin requests rejected for a missing or wrong secret",
			},
		),
		windowsConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hub_connections",
				Help:      "Open websocket connections by role",
			},
			[]string{"role"},
		),
		hubMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hub_messages_total",
				Help:      "Messages exchanged with connected windows",
			},
			[]string{"direction", "type"},
		),
		assistantRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assistant_requests_total",
				Help:      "Assistant requests by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.notificationsShown,
		m.notificationsEmpty,
		m.notificationClicks,
		m.messagesDeleted,
		m.adminAuthFailures,
		m.windowsConnected,
		m.hubMessages,
		m.assistantRequests,
	)
	return m
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide Metrics instance
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// Registry exposes the underlying prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTPRequest(route, method string, statusCode int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	if d < 0 {
		d = 0
	}
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) NotificationShown(profile string, plainText bool) {
	kind := "json"
	if plainText {
		kind = "text"
	}
	m.notificationsShown.WithLabelValues(profile, kind).Inc()
}

func (m *Metrics) EmptyPush(profile string) {
	m.notificationsEmpty.WithLabelValues(profile).Inc()
}

func (m *Metrics) NotificationClick(outcome string) {
	m.notificationClicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) MessagesDeleted(operation string, n int64) {
	if n <= 0 {
		return
	}
	m.messagesDeleted.WithLabelValues(operation).Add(float64(n))
}

func (m *Metrics) AdminAuthFailure() {
	m.adminAuthFailures.Inc()
}

func (m *Metrics) ConnectionOpened(role string) {
	m.windowsConnected.WithLabelValues(role).Inc()
}

func (m *Metrics) ConnectionClosed(role string) {
	m.windowsConnected.WithLabelValues(role).Dec()
}

func (m *Metrics) HubMessage(direction, msgType string) {
	m.hubMessages.WithLabelValues(direction, msgType).Inc()
}

func (m *Metrics) AssistantRequest(result string) {
	m.assistantRequests.WithLabelValues(result).Inc()
}
