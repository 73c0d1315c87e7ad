package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 消息指标
	MessagesSent         *prometheus.CounterVec
	MessagesRead         prometheus.Counter
	NotificationRequests *prometheus.CounterVec

	// 用户指标
	UsersRegistered prometheus.Counter
	WebSocketsOpen  prometheus.Gauge

	// 错误指标
	ErrorsTotal   *prometheus.CounterVec
	PanicsTotal   prometheus.Counter
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics 创建监控指标，每个实例使用独立的注册表
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradyfit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradyfit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		MessagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradyfit_messages_sent_total",
				Help: "Total number of messages sent",
			},
			[]string{"source"}, // web, reply, smtp
		),

		MessagesRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tradyfit_messages_read_total",
				Help: "Total number of message detail views",
			},
		),

		NotificationRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradyfit_notification_requests_total",
				Help: "Total number of notification list requests",
			},
			[]string{"category"},
		),

		UsersRegistered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tradyfit_users_registered_total",
				Help: "Total number of users registered",
			},
		),

		WebSocketsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradyfit_websockets_open",
				Help: "Number of open websocket connections",
			},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradyfit_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tradyfit_panics_total",
				Help: "Total number of recovered panics",
			},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradyfit_rate_limit_hits_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"route"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMessageSent 记录消息发送
func (m *Metrics) RecordMessageSent(source string) {
	m.MessagesSent.WithLabelValues(source).Inc()
}

// RecordMessageRead 记录消息查看
func (m *Metrics) RecordMessageRead() {
	m.MessagesRead.Inc()
}

// RecordNotificationRequest 记录通知列表请求
func (m *Metrics) RecordNotificationRequest(category string) {
	m.NotificationRequests.WithLabelValues(category).Inc()
}

// RecordUserRegistered 记录用户注册
func (m *Metrics) RecordUserRegistered() {
	m.UsersRegistered.Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitHit 记录限流
func (m *Metrics) RecordRateLimitHit(route string) {
	m.RateLimitHits.WithLabelValues(route).Inc()
}

// HTTPHandler 返回 /metrics 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
