package geminiflow

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/geminiflow/config"
	"github.com/BaSui01/geminiflow/internal/metrics"
	"github.com/BaSui01/geminiflow/llm/providers"
	"github.com/BaSui01/geminiflow/llm/providers/gemini"
	"github.com/BaSui01/geminiflow/llm/transport"
)

// Client 入口对象。按能力派生一次性的 Builder，本身不可变，可在 goroutine 间共享。
type Client struct {
	provider *gemini.Provider
	logger   *zap.Logger
}

type options struct {
	logger     *zap.Logger
	apiKey     string
	collector  *metrics.Collector
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures the Client created by New.
type Option func(*options)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAPIKey overrides the API key from the config.
func WithAPIKey(apiKey string) Option {
	return func(o *options) { o.apiKey = apiKey }
}

// WithMetrics records HTTP and generation metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTracer sets the tracer used for per-request spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// New 用 GeminiConfig 创建 Client。未设置的字段取 providers.DefaultGeminiConfig 的值。
func New(cfg providers.GeminiConfig, opts ...Option) *Client {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.apiKey != "" {
		cfg.APIKey = o.apiKey
	}
	cfg = withCapabilityDefaults(cfg)

	var (
		popts []gemini.Option
		topts []transport.Option
	)
	if o.collector != nil {
		popts = append(popts, gemini.WithMetrics(o.collector))
		topts = append(topts, transport.WithRecorder(o.collector))
	}
	if o.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(o.httpClient))
	}
	if o.tracer != nil {
		topts = append(topts, transport.WithTracer(o.tracer))
	}
	popts = append(popts, gemini.WithTransportOptions(topts...))

	return &Client{
		provider: gemini.NewProvider(cfg, o.logger, popts...),
		logger:   o.logger,
	}
}

// NewFromConfig 用完整配置创建 Client；Metrics.Enabled 时使用进程级共享收集器
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Metrics.Enabled && o.collector == nil {
		opts = append(opts, WithMetrics(metrics.Shared(cfg.Metrics.Namespace, o.logger)))
	}
	return New(cfg.Gemini, opts...), nil
}

// withCapabilityDefaults 只补齐完全缺省的能力；部分配置保持原样，由 Builder 报错
func withCapabilityDefaults(cfg providers.GeminiConfig) providers.GeminiConfig {
	def := providers.DefaultGeminiConfig().Capabilities
	zero := providers.ModelMethod{}
	if cfg.Capabilities.Text == zero {
		cfg.Capabilities.Text = def.Text
	}
	if cfg.Capabilities.Image == zero {
		cfg.Capabilities.Image = def.Image
	}
	if cfg.Capabilities.Video == zero {
		cfg.Capabilities.Video = def.Video
	}
	if cfg.Capabilities.Audio == zero {
		cfg.Capabilities.Audio = def.Audio
	}
	return cfg
}

// WithAPIKey 返回使用另一个 API Key 的 Client，原 Client 不受影响
func (c *Client) WithAPIKey(apiKey string) *Client {
	return &Client{provider: c.provider.WithAPIKey(apiKey), logger: c.logger}
}

// Provider 底层 Gemini Provider
func (c *Client) Provider() *gemini.Provider { return c.provider }

// Text 文本生成
func (c *Client) Text() *Builder[*gemini.TextResponse] {
	return newBuilder(c, gemini.CapabilityText, c.provider.GenerateText)
}

// Image 图像生成
func (c *Client) Image() *Builder[*gemini.ImageResponse] {
	return newBuilder(c, gemini.CapabilityImage, c.provider.GenerateImage)
}

// Video 视频生成（默认 predictLongRunning，会阻塞轮询）
func (c *Client) Video() *Builder[*gemini.VideoResponse] {
	return newBuilder(c, gemini.CapabilityVideo, c.provider.GenerateVideo)
}

// Audio 语音合成
func (c *Client) Audio() *Builder[*gemini.AudioResponse] {
	return newBuilder(c, gemini.CapabilityAudio, c.provider.GenerateAudio)
}

// Files 文件资源
func (c *Client) Files() *FileBuilder {
	return &FileBuilder{provider: c.provider}
}

// Caches 上下文缓存资源
func (c *Client) Caches() *CacheBuilder {
	return &CacheBuilder{provider: c.provider}
}

// Models 列出可用模型
func (c *Client) Models(ctx context.Context) ([]gemini.Model, error) {
	return c.provider.Models(ctx)
}

// Embeddings 生成向量，Model 为空时使用配置中的 embedding 模型
func (c *Client) Embeddings(ctx context.Context, req gemini.EmbedRequest) ([][]float64, error) {
	return c.provider.Embed(ctx, req)
}
