package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-hostrpc/internal/core/bridge"
	"github.com/dep2p/go-hostrpc/internal/core/cache"
	"github.com/dep2p/go-hostrpc/internal/core/dispatch"
	"github.com/dep2p/go-hostrpc/pkg/protocol"
	"github.com/dep2p/go-hostrpc/pkg/types"
)

const namespace = "hostrpc"

// unknownLabel 未解析出模块/方法时使用的标签值，避免客户端输入放大基数
const unknownLabel = "_unknown"

// Collector Prometheus 指标收集器
//
// 实现 bridge.Observer、dispatch.Observer 与 cache.Observer，
// 并实现连接处理器的观察者方法。nil *Collector 的所有方法都是空操作。
type Collector struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	bridgeWait        prometheus.Histogram
	bridgeRun         prometheus.Histogram
	bridgeInterrupted prometheus.Counter
	bridgeQueue       prometheus.Gauge

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec

	connsOpened  prometheus.Counter
	connsClosed  *prometheus.CounterVec
	connLifetime prometheus.Histogram
	rateLimited  prometheus.Counter
}

var (
	_ bridge.Observer   = (*Collector)(nil)
	_ dispatch.Observer = (*Collector)(nil)
	_ cache.Observer    = (*Collector)(nil)
)

// NewCollector 创建使用私有注册表的收集器
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dispatch", Name: "requests_total",
			Help: "Dispatched requests by module, method and result code.",
		}, []string{"module", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "dispatch", Name: "request_duration_seconds",
			Help:    "Request dispatch latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"module"}),

		bridgeWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "bridge", Name: "queue_wait_seconds",
			Help:    "Time tasks spend queued before the host thread picks them up.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 9),
		}),
		bridgeRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "bridge", Name: "run_seconds",
			Help:    "Time tasks spend executing on the host thread.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 9),
		}),
		bridgeInterrupted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bridge", Name: "interrupted_total",
			Help: "Callers whose wait for a host-thread result was interrupted.",
		}),
		bridgeQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "bridge", Name: "queue_depth",
			Help: "Tasks waiting for the host thread.",
		}),

		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Cache hits by family.",
		}, []string{"family"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Cache misses by family.",
		}, []string{"family"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "evictions_total",
			Help: "Cache evictions by family and reason.",
		}, []string{"family", "reason"}),

		connsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "server", Name: "connections_opened_total",
			Help: "Accepted WebSocket connections.",
		}),
		connsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "server", Name: "connections_closed_total",
			Help: "Closed WebSocket connections by reason.",
		}, []string{"reason"}),
		connLifetime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "server", Name: "connection_lifetime_seconds",
			Help:    "Lifetime of closed connections.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "server", Name: "rate_limited_total",
			Help: "Requests rejected by the per-host rate limiter.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requests, c.latency,
		c.bridgeWait, c.bridgeRun, c.bridgeInterrupted, c.bridgeQueue,
		c.cacheHits, c.cacheMisses, c.cacheEvictions,
		c.connsOpened, c.connsClosed, c.connLifetime, c.rateLimited,
	)
	return c
}

// Registry 返回私有注册表
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler 返回 Prometheus 抓取端点
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RegisterGauge 注册按需求值的仪表
func (c *Collector) RegisterGauge(subsystem, name, help string, fn func() float64) error {
	if c == nil {
		return nil
	}
	return c.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, fn))
}

// ============================================================================
//                              dispatch.Observer
// ============================================================================

// RequestDone 记录请求结果
func (c *Collector) RequestDone(module, method, code string, elapsed time.Duration) {
	if c == nil {
		return
	}
	switch code {
	case protocol.CodeModuleNotFound, protocol.CodeInvalidRequestID:
		module, method = unknownLabel, unknownLabel
	case protocol.CodeMethodNotFound:
		method = unknownLabel
	}
	if module == "" {
		module = unknownLabel
	}
	if method == "" {
		method = unknownLabel
	}
	c.requests.WithLabelValues(module, method, code).Inc()
	c.latency.WithLabelValues(module).Observe(elapsed.Seconds())
}

// ============================================================================
//                              bridge.Observer
// ============================================================================

// BridgeTask 记录宿主线程任务耗时
func (c *Collector) BridgeTask(wait, run time.Duration) {
	if c == nil {
		return
	}
	c.bridgeWait.Observe(wait.Seconds())
	c.bridgeRun.Observe(run.Seconds())
}

// BridgeInterrupted 记录等待中断
func (c *Collector) BridgeInterrupted() {
	if c == nil {
		return
	}
	c.bridgeInterrupted.Inc()
}

// BridgeQueueDepth 记录队列长度
func (c *Collector) BridgeQueueDepth(n int) {
	if c == nil {
		return
	}
	c.bridgeQueue.Set(float64(n))
}

// ============================================================================
//                              cache.Observer
// ============================================================================

// CacheHit 记录命中
func (c *Collector) CacheHit(family string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(family).Inc()
}

// CacheMiss 记录未命中
func (c *Collector) CacheMiss(family string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(family).Inc()
}

// CacheEvicted 记录淘汰
func (c *Collector) CacheEvicted(family, reason string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.cacheEvictions.WithLabelValues(family, reason).Add(float64(n))
}

// ============================================================================
//                              连接
// ============================================================================

// ConnectionOpened 记录新连接
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connsOpened.Inc()
}

// ConnectionClosed 记录连接关闭
func (c *Collector) ConnectionClosed(reason types.DisconnectReason, lifetime time.Duration) {
	if c == nil {
		return
	}
	c.connsClosed.WithLabelValues(reason.String()).Inc()
	c.connLifetime.Observe(lifetime.Seconds())
}

// RateLimited 记录被限流的请求
func (c *Collector) RateLimited() {
	if c == nil {
		return
	}
	c.rateLimited.Inc()
}
