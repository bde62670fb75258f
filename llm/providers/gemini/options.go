package gemini

import (
	"strings"

	"github.com/BaSui01/geminiflow/types"
)

// Capability 生成能力
type Capability string

const (
	CapabilityText  Capability = "text"
	CapabilityImage Capability = "image"
	CapabilityVideo Capability = "video"
	CapabilityAudio Capability = "audio"
)

func (c Capability) Valid() bool {
	switch c {
	case CapabilityText, CapabilityImage, CapabilityVideo, CapabilityAudio:
		return true
	}
	return false
}

// Method API 调用方法
type Method string

const (
	MethodGenerateContent    Method = "generateContent"
	MethodPredict            Method = "predict"
	MethodPredictLongRunning Method = "predictLongRunning"
)

// ParseMethod 只接受三个已知方法
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", types.NewValidationError("Invalid method: %s. Allowed methods are: generateContent, predict, predictLongRunning", s)
	}
	return m, nil
}

func (m Method) Valid() bool {
	switch m {
	case MethodGenerateContent, MethodPredict, MethodPredictLongRunning:
		return true
	}
	return false
}

// IsPredictFamily predict 与 predictLongRunning 共用 instances/parameters 结构
func (m Method) IsPredictFamily() bool {
	return m == MethodPredict || m == MethodPredictLongRunning
}

// FileType 附件类别
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeDocument FileType = "document"
)

func (f FileType) Valid() bool {
	_, ok := mimeTypes[f]
	return ok
}

// Attachment 待附加的本地文件
type Attachment struct {
	Type FileType
	Path string
}

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// RequestOptions 一次生成调用的全部参数
type RequestOptions struct {
	Capability Capability
	Model      string
	Method     Method

	Prompt string
	System string
	// History 按顺序置于当前轮之前
	History []Content
	// Contents 非空时直接作为 contents，忽略 Prompt/History 的拼装
	Contents []Content

	Temperature    *float64
	MaxTokens      int
	SafetySettings []SafetySetting
	Functions      []FunctionDeclaration
	ToolConfig     *ToolConfig
	Schema         map[string]any
	Attachment     *Attachment
	CachedContent  string

	VoiceName    string
	MultiSpeaker bool
	Speakers     []SpeakerVoiceConfig

	// predict 族参数（Imagen / Veo）
	AspectRatio     string
	NegativePrompt  string
	DurationSeconds int
	SampleCount     int
}

// Validate 检查生成调用的前置条件，全部在网络请求之前完成
func (o *RequestOptions) Validate() error {
	if o.Capability == "" {
		o.Capability = CapabilityText
	}
	if !o.Capability.Valid() {
		return types.NewValidationError("Invalid capability: %s", o.Capability)
	}
	if strings.TrimSpace(o.Model) == "" {
		return types.NewValidationError("Model is required")
	}
	if o.Method == "" {
		return types.NewValidationError("Method is required")
	}
	if !o.Method.Valid() {
		_, err := ParseMethod(string(o.Method))
		return err
	}
	if o.Attachment != nil {
		if !o.Attachment.Type.Valid() {
			return types.NewValidationError("Invalid file type: %s", o.Attachment.Type)
		}
		if o.Attachment.Path == "" {
			return types.NewValidationError("File path is required")
		}
	}
	if o.MultiSpeaker && len(o.Speakers) == 0 {
		return types.NewValidationError("Multi-speaker mode requires at least one speaker")
	}
	return nil
}

func (o *RequestOptions) temperature() float64 {
	if o.Temperature != nil {
		return *o.Temperature
	}
	return DefaultTemperature
}

func (o *RequestOptions) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return DefaultMaxTokens
}
