// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	dbQueriesTotal       *prometheus.CounterVec
	cacheHitsTotal       *prometheus.CounterVec
	cacheMissesTotal     *prometheus.CounterVec
	mqttMessagesTotal    *prometheus.CounterVec
	ordersTotal          *prometheus.CounterVec
	bindingsTotal        *prometheus.CounterVec
	commissionsTotal     *prometheus.CounterVec
	commissionAmount     *prometheus.CounterVec
	lineageDepth         prometheus.Histogram
	networkHealthScore   prometheus.Gauge
}

var defaultMetrics *Metrics

// Init 初始化指标收集器
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "referral_mall"
	}

	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		dbQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		cacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		mqttMessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mqtt_messages_total",
				Help:      "Total number of MQTT messages",
			},
			[]string{"topic", "direction"},
		),
		ordersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Total number of orders",
			},
			[]string{"status"},
		),
		bindingsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "referral_bindings_total",
				Help:      "Total number of referral binding attempts",
			},
			[]string{"result"},
		),
		commissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commissions_total",
				Help:      "Total number of commission records posted",
			},
			[]string{"level", "result"},
		),
		commissionAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commission_amount_total",
				Help:      "Accumulated commission amount by level",
			},
			[]string{"level"},
		),
		lineageDepth: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lineage_depth",
				Help:      "Observed ancestor chain depth per resolution",
				Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16},
			},
		),
		networkHealthScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "network_health_score",
				Help:      "Latest computed network health score (0-100)",
			},
		),
	}

	defaultMetrics = m
	return m
}

// GetMetrics 获取默认指标收集器
func GetMetrics() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordDBQuery 记录数据库查询
func (m *Metrics) RecordDBQuery(operation, table string) {
	m.dbQueriesTotal.WithLabelValues(operation, table).Inc()
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit(cache string) {
	m.cacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss(cache string) {
	m.cacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordMQTTMessage 记录 MQTT 消息
func (m *Metrics) RecordMQTTMessage(topic, direction string) {
	m.mqttMessagesTotal.WithLabelValues(topic, direction).Inc()
}

// RecordOrder 记录订单
func (m *Metrics) RecordOrder(status string) {
	m.ordersTotal.WithLabelValues(status).Inc()
}

// RecordBinding 记录推荐绑定结果
func (m *Metrics) RecordBinding(result string) {
	m.bindingsTotal.WithLabelValues(result).Inc()
}

// RecordCommission 记录佣金发放
func (m *Metrics) RecordCommission(level int, result string, amount float64) {
	l := strconv.Itoa(level)
	m.commissionsTotal.WithLabelValues(l, result).Inc()
	if amount > 0 {
		m.commissionAmount.WithLabelValues(l).Add(amount)
	}
}

// ObserveLineageDepth 记录祖先链深度
func (m *Metrics) ObserveLineageDepth(depth int) {
	m.lineageDepth.Observe(float64(depth))
}

// SetNetworkHealthScore 更新网络健康评分
func (m *Metrics) SetNetworkHealthScore(score int) {
	m.networkHealthScore.Set(float64(score))
}
