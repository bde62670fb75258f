package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/geminiflow/internal/tlsutil"
	"github.com/BaSui01/geminiflow/llm/retry"
	"github.com/BaSui01/geminiflow/types"
)

const tracerName = "github.com/BaSui01/geminiflow/llm/transport"

// RequestIDHeader 每次请求生成的关联 ID，用于日志排查。
const RequestIDHeader = "X-Request-Id"

// DefaultRateLimitRetryAfter 429 响应未携带 Retry-After 时的等待时间。
const DefaultRateLimitRetryAfter = time.Second

// Config 传输层配置，构造后不可变。
type Config struct {
	BaseURL        string
	Headers        map[string]string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// Recorder 请求级指标回调，由 internal/metrics.Collector 实现。
type Recorder interface {
	RecordRequest(route string, status int, duration time.Duration)
	RecordRetry(route string, status int)
}

// Client 带重试的 JSON-over-HTTPS 客户端。
// Base URL、默认头和超时在构造时固定；WithHeaders 派生新实例，不修改原实例。
type Client struct {
	baseURL  string
	headers  http.Header
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	recorder Recorder
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Option 配置 Client。
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client（测试常用）。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder 注入指标记录器。
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithTracer 注入 otel tracer，默认使用全局 TracerProvider。
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// New 创建传输层客户端。
func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	cfg.Headers = maps.Clone(cfg.Headers)

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		cfg:     cfg,
		http:    tlsutil.SecureHTTPClient(cfg.Timeout),
		tracer:  otel.Tracer(tracerName),
		logger:  logger.With(zap.String("component", "transport")),
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL 返回构造时的 base URL。
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout 返回构造时的超时。
func (c *Client) Timeout() time.Duration { return c.cfg.Timeout }

// WithHeaders 返回附加了请求头的新 Client，原 Client 不受影响。
func (c *Client) WithHeaders(h map[string]string) *Client {
	cp := *c
	cp.headers = c.headers.Clone()
	for k, v := range h {
		cp.headers.Set(k, v)
	}
	return &cp
}

// Request 单次请求描述。
type Request struct {
	Method string
	// Path 相对 base URL 的路径，或完整的绝对 URL（如上传会话地址）
	Path  string
	Query url.Values
	// Body 非 nil 时按 JSON 编码；RawBody 优先级更高
	Body        any
	RawBody     []byte
	ContentType string
	Headers     map[string]string
	// Stream 为 true 且响应成功时，保留响应体给调用方流式读取
	Stream bool
	// NoRetry 禁止重发（如上传 finalize）
	NoRetry bool
	// Route 指标与 trace 使用的低基数标签
	Route string
}

// statusError 标记可重试的响应状态，仅在重试循环内部使用。
type statusError struct {
	resp *Response
}

func (e *statusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.resp.StatusCode)
}

// Do 发送请求。≥500 与 429 在策略范围内自动重试；
// 重试耗尽后返回最后一次响应（而非错误），由调用方分类。
// 只有传输层故障与 ctx 取消以 ErrNetwork 返回。
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	payload, contentType, err := encodeBody(req)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, "encode request body").WithCause(err)
	}
	route := req.Route
	if route == "" {
		route = req.Method
	}

	maxRetries := c.cfg.MaxRetries
	if req.NoRetry {
		maxRetries = 0
	}
	policy := retry.FixedDelayPolicy(maxRetries, c.cfg.RetryDelay)
	policy.ShouldRetry = func(err error) bool {
		var se *statusError
		return errors.As(err, &se)
	}
	policy.DelayFor = func(err error) (time.Duration, bool) {
		var se *statusError
		if errors.As(err, &se) && se.resp.StatusCode == http.StatusTooManyRequests {
			if d, ok := se.resp.RetryAfter(); ok {
				return d, true
			}
			return DefaultRateLimitRetryAfter, true
		}
		return 0, false
	}
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		var se *statusError
		if errors.As(err, &se) {
			c.logger.Warn("retrying request",
				zap.String("route", route),
				zap.Int("status", se.resp.StatusCode),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if c.recorder != nil {
				c.recorder.RecordRetry(route, se.resp.StatusCode)
			}
		}
	}

	var last *Response
	resp, err := retry.DoWithResultTyped[*Response](retry.NewBackoffRetryer(policy, c.logger), ctx, func() (*Response, error) {
		r, err := c.send(ctx, req, route, payload, contentType)
		if err != nil {
			return nil, err
		}
		last = r
		if r.retryable() {
			return nil, &statusError{resp: r}
		}
		return r, nil
	})
	if err == nil {
		return resp, nil
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) && last != nil {
		return last, nil
	}
	if _, ok := types.AsError(err); ok {
		return nil, err
	}
	return nil, types.NewError(types.ErrNetwork, "request aborted").WithCause(err)
}

func (c *Client) send(ctx context.Context, req *Request, route string, payload []byte, contentType string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrNetwork, "rate limiter wait").WithCause(err)
		}
	}

	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, "invalid request url").WithCause(err)
	}

	ctx, span := c.tracer.Start(ctx, "gemini "+route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, types.NewError(types.ErrValidation, "build request").WithCause(err)
	}
	httpReq.Header = c.headers.Clone()
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)

	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("geminiflow.route", route),
		attribute.String("geminiflow.request_id", requestID),
	)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if c.recorder != nil {
			c.recorder.RecordRequest(route, 0, elapsed)
		}
		c.logger.Debug("request failed",
			zap.String("route", route),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, types.NewError(types.ErrNetwork, "request failed").WithCause(err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if httpResp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(httpResp.StatusCode))
	}
	if c.recorder != nil {
		c.recorder.RecordRequest(route, httpResp.StatusCode, elapsed)
	}
	c.logger.Debug("request completed",
		zap.String("route", route),
		zap.String("request_id", requestID),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("elapsed", elapsed))

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header}
	if req.Stream && resp.Successful() {
		resp.stream = httpResp.Body
		return resp, nil
	}

	defer httpResp.Body.Close()
	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrNetwork, "read response body").WithCause(err)
	}
	resp.body = data
	return resp, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}
	if req.Body == nil {
		return nil, req.ContentType, nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", err
	}
	ct := req.ContentType
	if ct == "" {
		ct = "application/json"
	}
	return data, ct, nil
}

// Get 发送 GET 请求。
func (c *Client) Get(ctx context.Context, route, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Route: route})
}

// Post 以 JSON 发送 POST 请求。
func (c *Client) Post(ctx context.Context, route, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, Route: route})
}

// Patch 以 JSON 发送 PATCH 请求。
func (c *Client) Patch(ctx context.Context, route, path string, query url.Values, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Query: query, Body: body, Route: route})
}

// Delete 发送 DELETE 请求。
func (c *Client) Delete(ctx context.Context, route, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Route: route})
}
