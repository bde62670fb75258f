package providers

import "time"

// BaseProviderConfig 所有 Provider 共享的基础配置字段。
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key" env:"API_KEY"`
	BaseURL string        `json:"base_url" yaml:"base_url" env:"BASE_URL"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty" env:"MODEL"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" env:"TIMEOUT"`
}

// GeminiConfig Gemini Provider 配置。
// 由调用方在构造时显式传入，Provider 内部不做任何全局查找。
type GeminiConfig struct {
	BaseProviderConfig `yaml:",inline"`

	APIVersion     string             `json:"api_version" yaml:"api_version" env:"API_VERSION"`
	Retry          RetryConfig        `json:"retry" yaml:"retry" env:"RETRY"`
	RateLimit      RateLimitConfig    `json:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT"`
	SafetySettings []SafetySetting    `json:"safety_settings,omitempty" yaml:"safety_settings,omitempty"` // nil 取默认，空切片表示不发送
	Speech         SpeechConfig       `json:"speech" yaml:"speech" env:"SPEECH"`
	Capabilities   CapabilityDefaults `json:"capabilities" yaml:"capabilities" env:"CAPABILITIES"`
	Caching        CachingConfig      `json:"caching" yaml:"caching" env:"CACHING"`
	Stream         StreamConfig       `json:"stream" yaml:"stream" env:"STREAM"`
	Operation      OperationConfig    `json:"operation" yaml:"operation" env:"OPERATION"`
	EmbeddingModel string             `json:"embedding_model" yaml:"embedding_model" env:"EMBEDDING_MODEL"`
}

// RetryConfig 传输层重试：≥500 或 429 时重试，429 优先使用 Retry-After。
// 整体为零值时使用默认值；MaxRetries < 0 关闭重试；Delay <= 0 按 1s 处理。
type RetryConfig struct {
	MaxRetries int           `json:"max_retries" yaml:"max_retries" env:"MAX_RETRIES"`
	Delay      time.Duration `json:"delay" yaml:"delay" env:"DELAY"`
}

// RateLimitConfig 客户端侧限流，RPS <= 0 表示不限流。
type RateLimitConfig struct {
	RPS   float64 `json:"rps" yaml:"rps" env:"RPS"`
	Burst int     `json:"burst" yaml:"burst" env:"BURST"`
}

// SafetySetting 单条安全设置。
type SafetySetting struct {
	Category  string `json:"category" yaml:"category"`
	Threshold string `json:"threshold" yaml:"threshold"`
}

// SpeechConfig 音频生成的默认语音。
type SpeechConfig struct {
	VoiceName    string `json:"voice_name" yaml:"voice_name" env:"VOICE_NAME"`
	LanguageCode string `json:"language_code,omitempty" yaml:"language_code,omitempty" env:"LANGUAGE_CODE"`
}

// ModelMethod 某个能力的默认模型与调用方法。
type ModelMethod struct {
	Model  string `json:"model" yaml:"model" env:"MODEL"`
	Method string `json:"method" yaml:"method" env:"METHOD"`
}

// CapabilityDefaults 各能力（text/image/video/audio）的默认模型与方法。
type CapabilityDefaults struct {
	Text  ModelMethod `json:"text" yaml:"text" env:"TEXT"`
	Image ModelMethod `json:"image" yaml:"image" env:"IMAGE"`
	Video ModelMethod `json:"video" yaml:"video" env:"VIDEO"`
	Audio ModelMethod `json:"audio" yaml:"audio" env:"AUDIO"`
}

// CachingConfig cachedContents 默认值。
type CachingConfig struct {
	DefaultTTL      string `json:"default_ttl" yaml:"default_ttl" env:"DEFAULT_TTL"`
	DefaultPageSize int    `json:"default_page_size" yaml:"default_page_size" env:"DEFAULT_PAGE_SIZE"`
}

// StreamConfig 流式读取的单次读取块大小（字节）。
type StreamConfig struct {
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" env:"CHUNK_SIZE"`
}

// OperationConfig 长任务轮询参数。
// Timeout 为 0 时使用默认上限，< 0 表示只受 ctx 约束。
type OperationConfig struct {
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" env:"POLL_INTERVAL"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

const (
	DefaultGeminiBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultGeminiAPIVersion = "v1beta"
)

// DefaultGeminiConfig 返回默认 Gemini 配置（不含 API Key）。
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseProviderConfig: BaseProviderConfig{
			BaseURL: DefaultGeminiBaseURL,
			Timeout: 60 * time.Second,
		},
		APIVersion: DefaultGeminiAPIVersion,
		Retry: RetryConfig{
			MaxRetries: 3,
			Delay:      time.Second,
		},
		SafetySettings: []SafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		},
		Speech: SpeechConfig{VoiceName: "Kore"},
		Capabilities: CapabilityDefaults{
			Text:  ModelMethod{Model: "gemini-2.5-flash", Method: "generateContent"},
			Image: ModelMethod{Model: "gemini-2.5-flash-image-preview", Method: "generateContent"},
			Video: ModelMethod{Model: "veo-3.0-generate-001", Method: "predictLongRunning"},
			Audio: ModelMethod{Model: "gemini-2.5-flash-preview-tts", Method: "generateContent"},
		},
		Caching: CachingConfig{
			DefaultTTL:      "3600s",
			DefaultPageSize: 50,
		},
		Stream:    StreamConfig{ChunkSize: 1024},
		Operation: OperationConfig{PollInterval: 5 * time.Second, Timeout: 10 * time.Minute},

		EmbeddingModel: "gemini-embedding-001",
	}
}
