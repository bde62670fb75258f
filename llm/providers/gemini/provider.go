package gemini

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/geminiflow/llm/providers"
	"github.com/BaSui01/geminiflow/llm/transport"
	"github.com/BaSui01/geminiflow/types"
)

const providerName = "gemini"

// APIKeyHeader Gemini 使用 x-goog-api-key 认证
const APIKeyHeader = "x-goog-api-key"

// Metrics 业务层指标，internal/metrics.Collector 实现了该接口
type Metrics interface {
	RecordGeneration(capability, model, outcome string, promptTokens, candidateTokens int)
	RecordStreamChunk(model string)
	RecordUpload(fileType string, size int64)
	RecordOperationPoll(model string)
}

type nopMetrics struct{}

func (nopMetrics) RecordGeneration(string, string, string, int, int) {}
func (nopMetrics) RecordStreamChunk(string)                          {}
func (nopMetrics) RecordUpload(string, int64)                        {}
func (nopMetrics) RecordOperationPoll(string)                        {}

// Provider Gemini REST API 客户端。
// 所有默认值来自构造时传入的 GeminiConfig；实例本身无可变状态，可并发使用。
type Provider struct {
	cfg     providers.GeminiConfig
	http    *transport.Client
	logger  *zap.Logger
	metrics Metrics
}

type providerOptions struct {
	metrics          Metrics
	transportOptions []transport.Option
}

// Option 配置 Provider
type Option func(*providerOptions)

// WithMetrics 注入业务指标
func WithMetrics(m Metrics) Option {
	return func(o *providerOptions) { o.metrics = m }
}

// WithTransportOptions 透传给 transport.New
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *providerOptions) { o.transportOptions = append(o.transportOptions, opts...) }
}

// NewProvider 创建 Gemini Provider，缺省字段使用 DefaultGeminiConfig 的值
func NewProvider(cfg providers.GeminiConfig, logger *zap.Logger, opts ...Option) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	po := providerOptions{metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(&po)
	}
	if po.metrics == nil {
		po.metrics = nopMetrics{}
	}

	cfg = withDefaults(cfg)
	client := transport.New(transport.Config{
		BaseURL:        cfg.BaseURL,
		Headers:        map[string]string{APIKeyHeader: cfg.APIKey},
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, logger, po.transportOptions...)

	return &Provider{
		cfg:     cfg,
		http:    client,
		logger:  logger.With(zap.String("provider", providerName)),
		metrics: po.metrics,
	}
}

// withDefaults 逐字段补齐未设置的配置；负值表示显式关闭（重试、轮询上限）
func withDefaults(cfg providers.GeminiConfig) providers.GeminiConfig {
	def := providers.DefaultGeminiConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	switch {
	case cfg.Retry == (providers.RetryConfig{}):
		cfg.Retry = def.Retry
	case cfg.Retry.MaxRetries < 0:
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.Delay <= 0 {
		cfg.Retry.Delay = def.Retry.Delay
	}

	if cfg.SafetySettings == nil {
		cfg.SafetySettings = def.SafetySettings
	}
	if cfg.Speech.VoiceName == "" {
		cfg.Speech.VoiceName = def.Speech.VoiceName
	}
	if cfg.Caching.DefaultTTL == "" {
		cfg.Caching.DefaultTTL = def.Caching.DefaultTTL
	}
	if cfg.Caching.DefaultPageSize <= 0 {
		cfg.Caching.DefaultPageSize = def.Caching.DefaultPageSize
	}
	if cfg.Stream.ChunkSize <= 0 {
		cfg.Stream.ChunkSize = def.Stream.ChunkSize
	}
	if cfg.Operation.PollInterval <= 0 {
		cfg.Operation.PollInterval = def.Operation.PollInterval
	}
	if cfg.Operation.Timeout == 0 {
		cfg.Operation.Timeout = def.Operation.Timeout
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = def.EmbeddingModel
	}
	return cfg
}

func (p *Provider) Name() string { return providerName }

// Config 生效中的配置副本
func (p *Provider) Config() providers.GeminiConfig { return p.cfg }

// WithAPIKey 返回使用另一个 API Key 的 Provider，原实例不变
func (p *Provider) WithAPIKey(apiKey string) *Provider {
	cp := *p
	cp.cfg.APIKey = apiKey
	cp.http = p.http.WithHeaders(map[string]string{APIKeyHeader: apiKey})
	return &cp
}

func (p *Provider) versionPath(resource string) string {
	return "/" + p.cfg.APIVersion + "/" + strings.TrimLeft(resource, "/")
}

func (p *Provider) modelPath(model, method string) string {
	return p.versionPath("models/" + normalizeModel(model) + ":" + method)
}

func normalizeModel(model string) string {
	return strings.TrimPrefix(strings.TrimSpace(model), "models/")
}

func (p *Provider) defaults() bodyDefaults {
	return bodyDefaults{
		SafetySettings: p.cfg.SafetySettings,
		VoiceName:      p.cfg.Speech.VoiceName,
		LanguageCode:   p.cfg.Speech.LanguageCode,
	}
}

// BuildRequestBody 构建请求体；非图片附件会同步触发上传
func (p *Provider) BuildRequestBody(ctx context.Context, opts *RequestOptions) (any, error) {
	return buildRequestBody(ctx, opts, p.defaults(), p.uploadURI)
}

func (p *Provider) uploadURI(ctx context.Context, fileType FileType, path string) (string, error) {
	f, err := p.UploadFile(ctx, fileType, path)
	if err != nil {
		return "", err
	}
	return f.URI(), nil
}

// =============================================================================
// 生成
// =============================================================================

// Generate 执行一次生成调用，返回与 Capability 对应的响应类型。
// predictLongRunning 会阻塞轮询直到完成、超时或 ctx 取消。
func (p *Provider) Generate(ctx context.Context, opts RequestOptions) (Response, error) {
	body, err := p.BuildRequestBody(ctx, &opts)
	if err != nil {
		return nil, err
	}
	model := normalizeModel(opts.Model)
	kind := KindFor(opts.Capability)

	resp, err := p.http.Post(ctx, string(opts.Method), p.modelPath(model, string(opts.Method)), body)
	if err == nil {
		err = providers.CheckResponse(resp, providerName)
	}
	if err != nil {
		p.metrics.RecordGeneration(string(opts.Capability), model, "error", 0, 0)
		return nil, err
	}

	var result Response
	if opts.Method == MethodPredictLongRunning {
		result, err = p.awaitOperation(ctx, model, kind, resp.Body())
	} else if err = p.checkFinishReason(resp.Body()); err == nil {
		result, err = parseResponse(kind, resp.Body())
	}
	if err != nil {
		p.metrics.RecordGeneration(string(opts.Capability), model, "error", 0, 0)
		return nil, err
	}

	usage := generation{newBase(result.Raw())}.Usage()
	p.metrics.RecordGeneration(string(opts.Capability), model, "success", usage.PromptTokens, usage.CandidatesTokens)
	return result, nil
}

// checkFinishReason HTTP 2xx 但 finishReason 存在且不是 STOP 时视为失败
func (p *Provider) checkFinishReason(raw []byte) error {
	reason := gjson.GetBytes(raw, "candidates.0.finishReason").String()
	if reason == "" || reason == "STOP" {
		return nil
	}
	p.logger.Error("gemini generation finished abnormally",
		zap.String("finish_reason", reason),
		zap.ByteString("response", raw))
	return types.NewAPIError("API request failed with finishReason: %s", reason).WithProvider(providerName)
}

func (p *Provider) GenerateText(ctx context.Context, opts RequestOptions) (*TextResponse, error) {
	opts.Capability = CapabilityText
	r, err := p.Generate(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.(*TextResponse), nil
}

func (p *Provider) GenerateImage(ctx context.Context, opts RequestOptions) (*ImageResponse, error) {
	opts.Capability = CapabilityImage
	r, err := p.Generate(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.(*ImageResponse), nil
}

func (p *Provider) GenerateVideo(ctx context.Context, opts RequestOptions) (*VideoResponse, error) {
	opts.Capability = CapabilityVideo
	r, err := p.Generate(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.(*VideoResponse), nil
}

func (p *Provider) GenerateAudio(ctx context.Context, opts RequestOptions) (*AudioResponse, error) {
	opts.Capability = CapabilityAudio
	r, err := p.Generate(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.(*AudioResponse), nil
}

// =============================================================================
// 流式
// =============================================================================

// Stream 调用 streamGenerateContent，对每个数据行同步回调 onPart。
// 只支持 generateContent 方法，其他方法在发请求前直接失败。
func (p *Provider) Stream(ctx context.Context, opts RequestOptions, onPart StreamCallback) error {
	if onPart == nil {
		return types.NewValidationError("Stream callback is required")
	}
	if opts.Method != MethodGenerateContent {
		return types.NewValidationError("Streaming is only supported for the generateContent method, got %q", opts.Method)
	}
	body, err := p.BuildRequestBody(ctx, &opts)
	if err != nil {
		return err
	}
	model := normalizeModel(opts.Model)

	resp, err := p.http.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   p.modelPath(model, "streamGenerateContent"),
		Query:  url.Values{"alt": {"sse"}},
		Body:   body,
		Stream: true,
		Route:  "streamGenerateContent",
	})
	if err != nil {
		return err
	}
	defer resp.Close()
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return err
	}

	parser := NewStreamParser(func(part Part) error {
		p.metrics.RecordStreamChunk(model)
		return onPart(part)
	})
	if err := consumeStream(resp.Reader(), p.cfg.Stream.ChunkSize, parser); err != nil {
		p.logger.Warn("stream aborted", zap.String("model", model), zap.Error(err))
		return err
	}
	return nil
}

// =============================================================================
// 模型 / Embedding / Token 计数
// =============================================================================

// Models 获取全部模型（自动翻页）
func (p *Provider) Models(ctx context.Context) ([]Model, error) {
	var (
		all   []Model
		token string
	)
	for {
		q := url.Values{"pageSize": {"1000"}}
		if token != "" {
			q.Set("pageToken", token)
		}
		resp, err := p.http.Get(ctx, "models.list", p.versionPath("models"), q)
		if err != nil {
			return nil, err
		}
		if err := providers.CheckResponse(resp, providerName); err != nil {
			return nil, err
		}
		var page listModelsResponse
		if err := resp.JSON(&page); err != nil {
			return nil, types.NewAPIError("decode models response").WithCause(err)
		}
		all = append(all, page.Models...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// Embed 生成向量；单条走 embedContent，多条走 batchEmbedContents
func (p *Provider) Embed(ctx context.Context, req EmbedRequest) ([][]float64, error) {
	if len(req.Texts) == 0 {
		return nil, types.NewValidationError("At least one text is required for embeddings")
	}
	model := normalizeModel(req.Model)
	if model == "" {
		model = normalizeModel(p.cfg.EmbeddingModel)
	}

	one := func(text string) embedContentRequest {
		return embedContentRequest{
			Model:                "models/" + model,
			Content:              Content{Parts: []Part{{Text: text}}},
			TaskType:             req.TaskType,
			Title:                req.Title,
			OutputDimensionality: req.OutputDimensionality,
		}
	}

	if len(req.Texts) == 1 {
		resp, err := p.http.Post(ctx, "embedContent", p.modelPath(model, "embedContent"), one(req.Texts[0]))
		if err != nil {
			return nil, err
		}
		if err := providers.CheckResponse(resp, providerName); err != nil {
			return nil, err
		}
		var out embedContentResponse
		if err := resp.JSON(&out); err != nil {
			return nil, types.NewAPIError("decode embedding response").WithCause(err)
		}
		return [][]float64{out.Embedding.Values}, nil
	}

	batch := batchEmbedRequest{Requests: make([]embedContentRequest, 0, len(req.Texts))}
	for _, text := range req.Texts {
		batch.Requests = append(batch.Requests, one(text))
	}
	resp, err := p.http.Post(ctx, "batchEmbedContents", p.modelPath(model, "batchEmbedContents"), batch)
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}
	var out batchEmbedResponse
	if err := resp.JSON(&out); err != nil {
		return nil, types.NewAPIError("decode embedding response").WithCause(err)
	}
	vectors := make([][]float64, 0, len(out.Embeddings))
	for _, e := range out.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

// CountTokens 统计 generateContent 请求的 token 数
func (p *Provider) CountTokens(ctx context.Context, opts RequestOptions) (int, error) {
	opts.Method = MethodGenerateContent
	if opts.Capability == "" || opts.Capability == CapabilityAudio {
		opts.Capability = CapabilityText
	}
	body, err := p.BuildRequestBody(ctx, &opts)
	if err != nil {
		return 0, err
	}
	req := body.(*GenerateContentRequest)

	resp, err := p.http.Post(ctx, "countTokens", p.modelPath(opts.Model, "countTokens"), map[string]any{
		"contents": req.Contents,
	})
	if err != nil {
		return 0, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return 0, err
	}
	var out countTokensResponse
	if err := resp.JSON(&out); err != nil {
		return 0, types.NewAPIError("decode countTokens response").WithCause(err)
	}
	return out.TotalTokens, nil
}

func pageQuery(pageSize int, pageToken string) url.Values {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return q
}

func elapsedSince(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}

func requireName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return types.NewValidationError("%s name is required", kind)
	}
	return nil
}
