package gemini

import (
	"context"
	"encoding/base64"
	"os"
	"strings"

	"github.com/BaSui01/geminiflow/types"
)

// uploadFunc 将本地文件上传并返回远程 URI
type uploadFunc func(ctx context.Context, fileType FileType, path string) (string, error)

// bodyDefaults 请求体构建时使用的配置默认值
type bodyDefaults struct {
	SafetySettings []SafetySetting
	VoiceName      string
	LanguageCode   string
}

// buildRequestBody 按方法族构建请求体。
// 除附件读取/上传外无副作用，每次调用产生全新的值。
func buildRequestBody(ctx context.Context, opts *RequestOptions, defaults bodyDefaults, upload uploadFunc) (any, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Method.IsPredictFamily() {
		return buildPredictBody(ctx, opts, upload)
	}
	return buildGenerateContentBody(ctx, opts, defaults, upload)
}

func buildPredictBody(ctx context.Context, opts *RequestOptions, upload uploadFunc) (*PredictRequest, error) {
	instance := PredictInstance{Prompt: opts.Prompt}
	if opts.Attachment != nil {
		inline, file, err := attachmentData(ctx, opts.Attachment, upload)
		if err != nil {
			return nil, err
		}
		instance.InlineData = inline
		instance.FileData = file
	}

	instances := make([]any, 0, len(opts.History)+1)
	for _, h := range cloneContents(opts.History) {
		instances = append(instances, h)
	}
	instances = append(instances, instance)

	params := PredictParameters{
		Temperature:          opts.temperature(),
		MaxOutputTokens:      opts.maxTokens(),
		SafetySettings:       opts.SafetySettings,
		FunctionDeclarations: opts.Functions,
		AspectRatio:          opts.AspectRatio,
		NegativePrompt:       opts.NegativePrompt,
		DurationSeconds:      opts.DurationSeconds,
		SampleCount:          opts.SampleCount,
	}
	if opts.System != "" {
		params.SystemInstruction = textContent("", opts.System)
	}
	if opts.Schema != nil {
		params.ResponseMimeType = "application/json"
		params.ResponseSchema = opts.Schema
	}

	return &PredictRequest{Instances: instances, Parameters: params}, nil
}

func buildGenerateContentBody(ctx context.Context, opts *RequestOptions, defaults bodyDefaults, upload uploadFunc) (*GenerateContentRequest, error) {
	hasPrompt := strings.TrimSpace(opts.Prompt) != ""
	if opts.Capability == CapabilityAudio && !hasPrompt {
		return nil, types.NewValidationError("Prompt is required for audio generation")
	}
	if len(opts.Contents) == 0 && !hasPrompt {
		return nil, types.NewValidationError("Prompt is required")
	}

	var contents []Content
	switch {
	case len(opts.Contents) > 0:
		contents = cloneContents(opts.Contents)
	case len(opts.History) > 0:
		contents = append(cloneContents(opts.History), *textContent("user", opts.Prompt))
	default:
		contents = []Content{*textContent("", opts.Prompt)}
	}

	if opts.Attachment != nil {
		inline, file, err := attachmentData(ctx, opts.Attachment, upload)
		if err != nil {
			return nil, err
		}
		current := &contents[len(contents)-1]
		current.Parts = append(current.Parts, Part{InlineData: inline, FileData: file})
	}

	req := &GenerateContentRequest{
		Contents:       contents,
		SafetySettings: opts.SafetySettings,
		GenerationConfig: &GenerationConfig{
			Temperature:     opts.temperature(),
			MaxOutputTokens: opts.maxTokens(),
		},
		ToolConfig:    opts.ToolConfig,
		CachedContent: opts.CachedContent,
	}
	if len(req.SafetySettings) == 0 {
		req.SafetySettings = defaults.SafetySettings
	}
	if opts.System != "" {
		req.SystemInstruction = textContent("", opts.System)
	}
	if len(opts.Functions) > 0 {
		req.Tools = []Tool{{FunctionDeclarations: opts.Functions}}
	}
	if opts.Schema != nil {
		req.GenerationConfig.ResponseMimeType = "application/json"
		req.GenerationConfig.ResponseSchema = opts.Schema
	}
	if opts.Capability == CapabilityAudio {
		sc, err := speechConfig(opts, defaults)
		if err != nil {
			return nil, err
		}
		req.GenerationConfig.ResponseModalities = []string{"AUDIO"}
		req.GenerationConfig.SpeechConfig = sc
	}

	return req, nil
}

func speechConfig(opts *RequestOptions, defaults bodyDefaults) (*SpeechConfig, error) {
	sc := &SpeechConfig{LanguageCode: defaults.LanguageCode}
	if opts.MultiSpeaker {
		sc.MultiSpeakerVoiceConfig = &MultiSpeakerVoiceConfig{SpeakerVoiceConfigs: opts.Speakers}
		return sc, nil
	}

	voice := opts.VoiceName
	if voice == "" {
		voice = defaults.VoiceName
	}
	if voice == "" {
		return nil, types.NewValidationError("Voice name is required for audio generation")
	}
	sc.VoiceConfig = &VoiceConfig{PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: voice}}
	return sc, nil
}

// attachmentData 图片内联为 base64，其余类别先上传再引用 URI
func attachmentData(ctx context.Context, att *Attachment, upload uploadFunc) (*InlineData, *FileData, error) {
	mime, err := MimeType(att.Type, att.Path)
	if err != nil {
		return nil, nil, err
	}

	if att.Type == FileTypeImage {
		data, err := readLocalFile(att.Path)
		if err != nil {
			return nil, nil, err
		}
		return &InlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}, nil, nil
	}

	if upload == nil {
		return nil, nil, types.NewValidationError("%s attachments require an uploader", att.Type)
	}
	uri, err := upload(ctx, att.Type, att.Path)
	if err != nil {
		return nil, nil, err
	}
	return nil, &FileData{MimeType: mime, FileURI: uri}, nil
}

// checkLocalFile 存在、非目录、可读
func checkLocalFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewValidationError("File does not exist: %s", path)
		}
		return nil, types.NewValidationError("File is not readable: %s", path).WithCause(err)
	}
	if info.IsDir() {
		return nil, types.NewValidationError("File is a directory: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewValidationError("File is not readable: %s", path).WithCause(err)
	}
	_ = f.Close()
	return info, nil
}

func readLocalFile(path string) ([]byte, error) {
	if _, err := checkLocalFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewValidationError("File is not readable: %s", path).WithCause(err)
	}
	return data, nil
}

func textContent(role, text string) *Content {
	return &Content{Role: role, Parts: []Part{{Text: text}}}
}

// cloneContents 复制到 Parts 层，避免修改调用方的切片
func cloneContents(in []Content) []Content {
	if in == nil {
		return nil
	}
	out := make([]Content, len(in))
	for i, c := range in {
		out[i] = Content{Role: c.Role, Parts: append([]Part(nil), c.Parts...)}
	}
	return out
}
