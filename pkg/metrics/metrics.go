package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "time_capsule"

// Metrics 应用指标，使用独立的 Registry
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	messagesSent     *prometheus.CounterVec
	capsuleActions   *prometheus.CounterVec
	realtimeEvents   *prometheus.CounterVec
	realtimeConns    prometheus.Gauge
	friendshipEvents *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "sent_total",
			Help:      "Direct messages stored, by type.",
		}, []string{"type"}),
		capsuleActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "capsules",
			Name:      "actions_total",
			Help:      "Capsule state transitions.",
		}, []string{"action"}),
		realtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Realtime events dispatched on this instance.",
		}, []string{"table", "type"}),
		realtimeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		friendshipEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "friendships",
			Name:      "events_total",
			Help:      "Friendship requests and responses.",
		}, []string{"status"}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.messagesSent,
		m.capsuleActions,
		m.realtimeEvents,
		m.realtimeConns,
		m.friendshipEvents,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler /metrics 端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware gin 请求指标中间件，path 使用路由模板避免高基数
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/metrics" {
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}

		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		c.Next()

		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// MessageSent 记录一条私信
func (m *Metrics) MessageSent(msgType string) {
	m.messagesSent.WithLabelValues(msgType).Inc()
}

// CapsuleAction 记录胶囊状态变化（sealed/unsealed/deleted）
func (m *Metrics) CapsuleAction(action string) {
	m.capsuleActions.WithLabelValues(action).Inc()
}

// FriendshipEvent 记录好友请求状态
func (m *Metrics) FriendshipEvent(status string) {
	m.friendshipEvents.WithLabelValues(status).Inc()
}

// RealtimeDispatched 记录一次实时事件分发
func (m *Metrics) RealtimeDispatched(table, eventType string) {
	m.realtimeEvents.WithLabelValues(table, eventType).Inc()
}

// ConnOpened 连接建立
func (m *Metrics) ConnOpened() {
	m.realtimeConns.Inc()
}

// ConnClosed 连接关闭
func (m *Metrics) ConnClosed() {
	m.realtimeConns.Dec()
}
