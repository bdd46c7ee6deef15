// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、领域事件与存量指标.
//
// Example:
//
//	import "github.com/yeisme/dataroom/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/data-room/:id", "200").Inc()
//	metrics.EventsConsumed.WithLabelValues("dr.folder.moved").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/dataroom/pkg/configs"
)

const namespace = configs.AppName

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器，endpoint 为路由模板.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 处理中的请求数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of in-flight HTTP requests",
		},
	)

	// EventsConsumed 内置消费者处理的领域事件.
	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Domain events received by the built-in consumer",
		},
		[]string{"topic"},
	)

	// Inventory 全局存量（users、data_rooms、folders、files、bytes）.
	Inventory = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory",
			Help:      "Number of stored entities by kind, refreshed by the stats job",
		},
		[]string{"kind"},
	)

	// OrphanBlobsDeleted 孤儿清理任务删除的内容数.
	OrphanBlobsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_blobs_deleted_total",
			Help:      "Blobs removed by the orphan sweep job",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		// 运行时指标由默认注册表提供，关闭时从默认注册表中移除
		if !config.RuntimeMetrics {
			prometheus.Unregister(collectors.NewGoCollector())
			prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		}

		reg := prometheus.WrapRegistererWith(config.Labels, registry)
		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, ActiveConnections,
			EventsConsumed, Inventory, OrphanBlobsDeleted,
		} {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// Handler 汇总应用注册表与默认注册表（MQ 与 gorm 指标注册在默认注册表中）.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers{registry, prometheus.DefaultGatherer}, promhttp.HandlerOpts{})
}

// StartMetricsServer 在引擎上注册指标端点.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	debugEngine.GET(path, gin.WrapH(Handler()))

	// 调试模式下注册pprof端点
	if gin.IsDebugging() {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
