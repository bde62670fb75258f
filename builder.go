package geminiflow

import (
	"context"

	"github.com/BaSui01/geminiflow/llm/providers"
	"github.com/BaSui01/geminiflow/llm/providers/gemini"
	"github.com/BaSui01/geminiflow/types"
)

type generateFunc[R gemini.Response] func(ctx context.Context, opts gemini.RequestOptions) (R, error)

// Builder 一次生成调用的流式构建器。
// setter 中出现的错误会被延迟到终结方法（Generate/Stream/Cache/CountTokens）返回。
// Builder 不是并发安全的，每次调用应从 Client 重新派生。
type Builder[R gemini.Response] struct {
	provider *gemini.Provider
	generate generateFunc[R]
	opts     gemini.RequestOptions
	err      error
}

func newBuilder[R gemini.Response](c *Client, capability gemini.Capability, generate generateFunc[R]) *Builder[R] {
	b := &Builder[R]{
		provider: c.provider,
		generate: generate,
		opts:     gemini.RequestOptions{Capability: capability},
	}
	def := capabilityDefault(c.provider.Config(), capability)
	switch {
	case def.Model == "":
		b.err = types.NewValidationError("Default model for %s not found in configuration.", capability)
	case def.Method == "":
		b.err = types.NewValidationError("Default method for %s not found in configuration.", capability)
	default:
		b.opts.Model = def.Model
		b.opts.Method = gemini.Method(def.Method)
	}
	return b
}

func capabilityDefault(cfg providers.GeminiConfig, capability gemini.Capability) providers.ModelMethod {
	switch capability {
	case gemini.CapabilityImage:
		return cfg.Capabilities.Image
	case gemini.CapabilityVideo:
		return cfg.Capabilities.Video
	case gemini.CapabilityAudio:
		return cfg.Capabilities.Audio
	}
	return cfg.Capabilities.Text
}

// Model 覆盖默认模型，空字符串保持原值
func (b *Builder[R]) Model(model string) *Builder[R] {
	if model != "" {
		b.opts.Model = model
	}
	return b
}

// Method 覆盖默认方法；非法方法记录为 VALIDATION 错误
func (b *Builder[R]) Method(method string) *Builder[R] {
	m, err := gemini.ParseMethod(method)
	if err != nil {
		b.fail(err)
		return b
	}
	b.opts.Method = m
	return b
}

func (b *Builder[R]) Prompt(prompt string) *Builder[R] {
	b.opts.Prompt = prompt
	return b
}

func (b *Builder[R]) System(system string) *Builder[R] {
	b.opts.System = system
	return b
}

// History 置于当前轮之前的多轮对话
func (b *Builder[R]) History(history []gemini.Content) *Builder[R] {
	b.opts.History = history
	return b
}

// Contents 直接指定完整 contents，忽略 Prompt/History
func (b *Builder[R]) Contents(contents []gemini.Content) *Builder[R] {
	b.opts.Contents = contents
	return b
}

func (b *Builder[R]) Temperature(v float64) *Builder[R] {
	b.opts.Temperature = &v
	return b
}

func (b *Builder[R]) MaxTokens(n int) *Builder[R] {
	b.opts.MaxTokens = n
	return b
}

func (b *Builder[R]) SafetySettings(settings []gemini.SafetySetting) *Builder[R] {
	b.opts.SafetySettings = settings
	return b
}

// FunctionCalls 声明可供模型调用的函数
func (b *Builder[R]) FunctionCalls(functions []gemini.FunctionDeclaration) *Builder[R] {
	b.opts.Functions = functions
	return b
}

func (b *Builder[R]) ToolConfig(cfg *gemini.ToolConfig) *Builder[R] {
	b.opts.ToolConfig = cfg
	return b
}

// StructuredSchema 要求模型按 JSON Schema 输出
func (b *Builder[R]) StructuredSchema(schema map[string]any) *Builder[R] {
	b.opts.Schema = schema
	return b
}

// Upload 附加本地文件。图片内联 base64，其余类型先走可恢复上传再引用 URI
func (b *Builder[R]) Upload(fileType gemini.FileType, path string) *Builder[R] {
	b.opts.Attachment = &gemini.Attachment{Type: fileType, Path: path}
	return b
}

// CachedContent 引用已创建的 cachedContents 资源
func (b *Builder[R]) CachedContent(name string) *Builder[R] {
	b.opts.CachedContent = name
	return b
}

// Voice 覆盖配置中的默认语音
func (b *Builder[R]) Voice(name string) *Builder[R] {
	b.opts.VoiceName = name
	return b
}

// MultiSpeaker 启用多说话人语音合成
func (b *Builder[R]) MultiSpeaker(speakers ...gemini.SpeakerVoiceConfig) *Builder[R] {
	b.opts.MultiSpeaker = true
	b.opts.Speakers = speakers
	return b
}

func (b *Builder[R]) AspectRatio(ratio string) *Builder[R] {
	b.opts.AspectRatio = ratio
	return b
}

func (b *Builder[R]) NegativePrompt(prompt string) *Builder[R] {
	b.opts.NegativePrompt = prompt
	return b
}

func (b *Builder[R]) DurationSeconds(seconds int) *Builder[R] {
	b.opts.DurationSeconds = seconds
	return b
}

func (b *Builder[R]) SampleCount(n int) *Builder[R] {
	b.opts.SampleCount = n
	return b
}

// Options 当前累积的请求参数副本
func (b *Builder[R]) Options() gemini.RequestOptions {
	return b.opts
}

// Err 第一个被延迟的 setter 错误
func (b *Builder[R]) Err() error {
	return b.err
}

func (b *Builder[R]) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Generate 发送请求并返回对应能力的响应
func (b *Builder[R]) Generate(ctx context.Context) (R, error) {
	if b.err != nil {
		var zero R
		return zero, b.err
	}
	return b.generate(ctx, b.opts)
}

// Stream 以 SSE 方式生成，每个数据块的首个 part 回调一次
func (b *Builder[R]) Stream(ctx context.Context, onPart gemini.StreamCallback) error {
	if b.err != nil {
		return b.err
	}
	return b.provider.Stream(ctx, b.opts, onPart)
}

// CountTokens 统计当前请求的 token 数
func (b *Builder[R]) CountTokens(ctx context.Context) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	return b.provider.CountTokens(ctx, b.opts)
}

// CacheOptions Builder.Cache 的附加参数
type CacheOptions struct {
	Tools       []gemini.Tool
	ToolConfig  *gemini.ToolConfig
	DisplayName string
	// TTL 为空时使用配置中的 caching.default_ttl
	TTL        string
	ExpireTime string
}

// Cache 把已设置的 History 与 Prompt 创建为 cachedContents，返回资源名
func (b *Builder[R]) Cache(ctx context.Context, co CacheOptions) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	contents := make([]gemini.Content, 0, len(b.opts.History)+1)
	contents = append(contents, b.opts.History...)
	if b.opts.Prompt != "" {
		contents = append(contents, gemini.Content{
			Role:  "user",
			Parts: []gemini.Part{{Text: b.opts.Prompt}},
		})
	}

	ttl := co.TTL
	if ttl == "" {
		ttl = b.provider.Config().Caching.DefaultTTL
	}
	resp, err := b.provider.CreateCachedContent(ctx, gemini.CacheRequest{
		Model:             b.opts.Model,
		Contents:          contents,
		SystemInstruction: b.opts.System,
		Tools:             co.Tools,
		ToolConfig:        co.ToolConfig,
		DisplayName:       co.DisplayName,
		TTL:               ttl,
		ExpireTime:        co.ExpireTime,
	})
	if err != nil {
		return "", err
	}
	return resp.Name(), nil
}

// GetCache 读取 cachedContents 资源
func (b *Builder[R]) GetCache(ctx context.Context, name string) (*gemini.CacheResponse, error) {
	if name == "" {
		return nil, types.NewValidationError("Cache name is required.")
	}
	return b.provider.GetCachedContent(ctx, name)
}
