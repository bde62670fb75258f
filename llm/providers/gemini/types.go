package gemini

import "github.com/BaSui01/geminiflow/llm/providers"

// Content 一轮对话内容。Role 为空时服务端按 user 处理。
type Content struct {
	Role  string `json:"role,omitempty"` // user, model
	Parts []Part `json:"parts"`
}

// Part 内容分片：文本、内联数据、远程文件引用或函数调用。
type Part struct {
	Text             string            `json:"text,omitempty"`
	InlineData       *InlineData       `json:"inlineData,omitempty"`
	FileData         *FileData         `json:"fileData,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
}

// InlineData base64 编码的内联数据
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData 已上传文件的 URI 引用
type FileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// FunctionDeclaration 函数声明，Parameters 为 JSON Schema
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

type ToolConfig struct {
	FunctionCallingConfig *FunctionCallingConfig `json:"functionCallingConfig,omitempty"`
}

// FunctionCallingConfig Mode: AUTO / ANY / NONE
type FunctionCallingConfig struct {
	Mode                 string   `json:"mode,omitempty"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

// SafetySetting 与配置层共用同一结构
type SafetySetting = providers.SafetySetting

// SpeechConfig voiceConfig 与 multiSpeakerVoiceConfig 二选一
type SpeechConfig struct {
	VoiceConfig             *VoiceConfig             `json:"voiceConfig,omitempty"`
	MultiSpeakerVoiceConfig *MultiSpeakerVoiceConfig `json:"multiSpeakerVoiceConfig,omitempty"`
	LanguageCode            string                   `json:"languageCode,omitempty"`
}

type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type MultiSpeakerVoiceConfig struct {
	SpeakerVoiceConfigs []SpeakerVoiceConfig `json:"speakerVoiceConfigs"`
}

type SpeakerVoiceConfig struct {
	Speaker     string      `json:"speaker"`
	VoiceConfig VoiceConfig `json:"voiceConfig"`
}

// NewSpeaker 便捷构造：speaker 使用预置音色 voice
func NewSpeaker(speaker, voice string) SpeakerVoiceConfig {
	return SpeakerVoiceConfig{
		Speaker:     speaker,
		VoiceConfig: VoiceConfig{PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: voice}},
	}
}

// GenerationConfig temperature 与 maxOutputTokens 总是输出
type GenerationConfig struct {
	Temperature        float64        `json:"temperature"`
	MaxOutputTokens    int            `json:"maxOutputTokens"`
	ResponseMimeType   string         `json:"responseMimeType,omitempty"`
	ResponseSchema     map[string]any `json:"responseSchema,omitempty"`
	ResponseModalities []string       `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig  `json:"speechConfig,omitempty"`
}

// GenerateContentRequest generateContent / streamGenerateContent 请求体
type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	ToolConfig        *ToolConfig       `json:"toolConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	CachedContent     string            `json:"cachedContent,omitempty"`
}

// PredictRequest predict / predictLongRunning 请求体。
// Instances 中历史轮次为 Content，当前轮为 PredictInstance。
type PredictRequest struct {
	Instances  []any             `json:"instances"`
	Parameters PredictParameters `json:"parameters"`
}

type PredictInstance struct {
	Prompt     string      `json:"prompt"`
	InlineData *InlineData `json:"inlineData,omitempty"`
	FileData   *FileData   `json:"fileData,omitempty"`
}

type PredictParameters struct {
	Temperature          float64               `json:"temperature"`
	MaxOutputTokens      int                   `json:"maxOutputTokens"`
	SafetySettings       []SafetySetting       `json:"safetySettings,omitempty"`
	SystemInstruction    *Content              `json:"systemInstruction,omitempty"`
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	ResponseMimeType     string                `json:"responseMimeType,omitempty"`
	ResponseSchema       map[string]any        `json:"responseSchema,omitempty"`
	AspectRatio          string                `json:"aspectRatio,omitempty"`
	NegativePrompt       string                `json:"negativePrompt,omitempty"`
	DurationSeconds      int                   `json:"durationSeconds,omitempty"`
	SampleCount          int                   `json:"sampleCount,omitempty"`
}

// CacheRequest cachedContents 创建参数
type CacheRequest struct {
	Model             string
	Contents          []Content
	SystemInstruction string
	Tools             []Tool
	ToolConfig        *ToolConfig
	DisplayName       string
	// TTL 形如 "3600s"；ExpireTime 为 RFC3339，二者同时存在时 ExpireTime 优先
	TTL        string
	ExpireTime string
}

type cachedContentPayload struct {
	Model             string      `json:"model"`
	Contents          []Content   `json:"contents"`
	SystemInstruction *Content    `json:"systemInstruction,omitempty"`
	Tools             []Tool      `json:"tools,omitempty"`
	ToolConfig        *ToolConfig `json:"toolConfig,omitempty"`
	DisplayName       string      `json:"displayName,omitempty"`
	TTL               string      `json:"ttl,omitempty"`
	ExpireTime        string      `json:"expireTime,omitempty"`
}

type cacheExpirationPayload struct {
	TTL        string `json:"ttl,omitempty"`
	ExpireTime string `json:"expireTime,omitempty"`
}

// EmbedRequest embedContent 参数
type EmbedRequest struct {
	Model                string
	Texts                []string
	TaskType             string // RETRIEVAL_QUERY, RETRIEVAL_DOCUMENT, SEMANTIC_SIMILARITY ...
	Title                string
	OutputDimensionality int
}

type embedContentRequest struct {
	Model                string  `json:"model,omitempty"`
	Content              Content `json:"content"`
	TaskType             string  `json:"taskType,omitempty"`
	Title                string  `json:"title,omitempty"`
	OutputDimensionality int     `json:"outputDimensionality,omitempty"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// Model /v1beta/models 列表项
type Model struct {
	Name                       string   `json:"name"`
	BaseModelID                string   `json:"baseModelId,omitempty"`
	Version                    string   `json:"version,omitempty"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	InputTokenLimit            int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int      `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

type listModelsResponse struct {
	Models        []Model `json:"models"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type countTokensResponse struct {
	TotalTokens             int `json:"totalTokens"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
}
