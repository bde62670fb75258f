// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器。
// 同时实现 transport.Recorder（HTTP 层）与 gemini.Metrics（业务层）。
type Collector struct {
	// HTTP 指标
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	apiRetriesTotal    *prometheus.CounterVec

	// 生成指标
	generationsTotal *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec

	// 流式 / 上传 / 长任务
	streamChunksTotal   *prometheus.CounterVec
	uploadBytesTotal    *prometheus.CounterVec
	operationPollsTotal *prometheus.CounterVec

	logger *zap.Logger
}

var (
	sharedMu         sync.Mutex
	sharedCollectors = map[string]*Collector{}
)

// Shared 返回 namespace 对应的进程级收集器，首次调用时创建。
// 多个客户端共用同一 namespace 时使用它，避免重复注册。
func Shared(namespace string, logger *zap.Logger) *Collector {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if c, ok := sharedCollectors[namespace]; ok {
		return c
	}
	c := NewCollector(namespace, logger)
	sharedCollectors[namespace] = c
	return c
}

// NewCollector 创建指标收集器。指标通过 promauto 注册到默认 Registry，
// 同一进程内 namespace 不能重复。
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of HTTP requests sent to the generative API",
		},
		[]string{"route", "status"},
	)

	c.apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	c.apiRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retries_total",
			Help:      "Total number of transport retries",
		},
		[]string{"route", "status"},
	)

	c.generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of generation calls",
		},
		[]string{"capability", "model", "outcome"},
	)

	c.tokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_used_total",
			Help:      "Tokens reported by usageMetadata",
		},
		[]string{"model", "type"},
	)

	c.streamChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "Stream parts delivered to callbacks",
		},
		[]string{"model"},
	)

	c.uploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes transferred by resumable uploads",
		},
		[]string{"file_type"},
	)

	c.operationPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_polls_total",
			Help:      "Long-running operation poll requests",
		},
		[]string{"model"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordRequest 记录一次 HTTP 请求，status 为 0 表示传输层失败
func (c *Collector) RecordRequest(route string, status int, duration time.Duration) {
	c.apiRequestsTotal.WithLabelValues(route, statusCode(status)).Inc()
	c.apiRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRetry 记录一次重试
func (c *Collector) RecordRetry(route string, status int) {
	c.apiRetriesTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// =============================================================================
// 🤖 生成指标记录
// =============================================================================

// RecordGeneration 记录一次生成调用
func (c *Collector) RecordGeneration(capability, model, outcome string, promptTokens, candidateTokens int) {
	c.generationsTotal.WithLabelValues(capability, model, outcome).Inc()
	if promptTokens > 0 {
		c.tokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if candidateTokens > 0 {
		c.tokensUsed.WithLabelValues(model, "candidates").Add(float64(candidateTokens))
	}
}

// RecordStreamChunk 记录一次流式回调
func (c *Collector) RecordStreamChunk(model string) {
	c.streamChunksTotal.WithLabelValues(model).Inc()
}

// RecordUpload 记录上传字节数
func (c *Collector) RecordUpload(fileType string, size int64) {
	c.uploadBytesTotal.WithLabelValues(fileType).Add(float64(size))
}

// RecordOperationPoll 记录一次长任务轮询
func (c *Collector) RecordOperationPoll(model string) {
	c.operationPollsTotal.WithLabelValues(model).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "error"
	}
}
