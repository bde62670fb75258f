package gemini

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/BaSui01/geminiflow/types"
)

// ResponseKind 响应类型，封闭枚举
type ResponseKind int

const (
	KindText ResponseKind = iota
	KindImage
	KindVideo
	KindAudio
	KindFile
	KindCache
)

func (k ResponseKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindFile:
		return "file"
	case KindCache:
		return "cache"
	}
	return "unknown"
}

// KindFor 生成能力对应的响应类型
func KindFor(c Capability) ResponseKind {
	switch c {
	case CapabilityImage:
		return KindImage
	case CapabilityVideo:
		return KindVideo
	case CapabilityAudio:
		return KindAudio
	}
	return KindText
}

// Response 所有响应值对象的公共接口
type Response interface {
	Kind() ResponseKind
	Raw() []byte
}

// parseResponse kind → 解析函数，未知 kind 视为调用方错误
func parseResponse(kind ResponseKind, raw []byte) (Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, types.NewAPIError("invalid JSON in %s response", kind)
	}
	switch kind {
	case KindText:
		return &TextResponse{generation{newBase(raw)}}, nil
	case KindImage:
		return &ImageResponse{generation{newBase(raw)}}, nil
	case KindVideo:
		return &VideoResponse{baseResponse: newBase(raw)}, nil
	case KindAudio:
		return &AudioResponse{generation{newBase(raw)}}, nil
	case KindFile:
		return newFileResponse(raw), nil
	case KindCache:
		return &CacheResponse{newBase(raw)}, nil
	}
	return nil, types.NewValidationError("unknown response kind %d", int(kind))
}

// =============================================================================
// 基础
// =============================================================================

type baseResponse struct {
	raw []byte
	doc gjson.Result
}

func newBase(raw []byte) baseResponse {
	return baseResponse{raw: raw, doc: gjson.ParseBytes(raw)}
}

// Raw 原始 JSON
func (b baseResponse) Raw() []byte { return b.raw }

// Get 按 gjson 路径读取任意字段
func (b baseResponse) Get(path string) gjson.Result { return b.doc.Get(path) }

// ToMap 解码为 map
func (b baseResponse) ToMap() map[string]any {
	m := map[string]any{}
	_ = json.Unmarshal(b.raw, &m)
	return m
}

// Blob 解码后的二进制内容
type Blob struct {
	MimeType string
	Data     []byte
}

// Usage usageMetadata
type Usage struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
	CachedTokens     int
}

// generation generateContent 系列响应的公共访问器
type generation struct {
	baseResponse
}

func (g generation) FinishReason() string {
	return g.doc.Get("candidates.0.finishReason").String()
}

func (g generation) ModelVersion() string {
	return g.doc.Get("modelVersion").String()
}

// Parts 第一个候选的全部分片
func (g generation) Parts() []Part {
	raw := g.doc.Get("candidates.0.content.parts")
	if !raw.Exists() {
		return nil
	}
	var parts []Part
	_ = json.Unmarshal([]byte(raw.Raw), &parts)
	return parts
}

func (g generation) Usage() Usage {
	u := g.doc.Get("usageMetadata")
	return Usage{
		PromptTokens:     int(u.Get("promptTokenCount").Int()),
		CandidatesTokens: int(u.Get("candidatesTokenCount").Int()),
		TotalTokens:      int(u.Get("totalTokenCount").Int()),
		CachedTokens:     int(u.Get("cachedContentTokenCount").Int()),
	}
}

// Text 拼接非 thought 文本分片
func (g generation) Text() string {
	var sb strings.Builder
	g.doc.Get("candidates.0.content.parts").ForEach(func(_, p gjson.Result) bool {
		if !p.Get("thought").Bool() {
			sb.WriteString(p.Get("text").String())
		}
		return true
	})
	return sb.String()
}

func (g generation) inlineBlobs() []Blob {
	var blobs []Blob
	g.doc.Get("candidates.0.content.parts").ForEach(func(_, p gjson.Result) bool {
		if d := p.Get("inlineData"); d.Exists() {
			if data, err := base64.StdEncoding.DecodeString(d.Get("data").String()); err == nil {
				blobs = append(blobs, Blob{MimeType: d.Get("mimeType").String(), Data: data})
			}
		}
		return true
	})
	return blobs
}

// =============================================================================
// Text
// =============================================================================

// TextResponse 文本生成响应
type TextResponse struct {
	generation
}

func (*TextResponse) Kind() ResponseKind { return KindText }

// FunctionCalls 第一个候选中的函数调用
func (r *TextResponse) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range r.Parts() {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// Decode 将结构化输出（responseSchema）解码到 v
func (r *TextResponse) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.Text()), v); err != nil {
		return types.NewAPIError("structured output is not valid JSON").WithCause(err)
	}
	return nil
}

// =============================================================================
// Image
// =============================================================================

// ImageResponse 图像生成响应，兼容 generateContent 与 predict（Imagen）两种形态
type ImageResponse struct {
	generation
}

func (*ImageResponse) Kind() ResponseKind { return KindImage }

// Images 返回全部解码后的图片
func (r *ImageResponse) Images() []Blob {
	blobs := r.inlineBlobs()
	r.doc.Get("predictions").ForEach(func(_, p gjson.Result) bool {
		if data, err := base64.StdEncoding.DecodeString(p.Get("bytesBase64Encoded").String()); err == nil && len(data) > 0 {
			mime := p.Get("mimeType").String()
			if mime == "" {
				mime = "image/png"
			}
			blobs = append(blobs, Blob{MimeType: mime, Data: data})
		}
		return true
	})
	return blobs
}

// =============================================================================
// Audio
// =============================================================================

// AudioResponse TTS 响应（通常为 audio/L16 PCM）
type AudioResponse struct {
	generation
}

func (*AudioResponse) Kind() ResponseKind { return KindAudio }

// Audio 第一个内联音频分片
func (r *AudioResponse) Audio() (Blob, bool) {
	blobs := r.inlineBlobs()
	if len(blobs) == 0 {
		return Blob{}, false
	}
	return blobs[0], true
}

// =============================================================================
// Video
// =============================================================================

// VideoResponse 长任务完成后的视频结果。
// JSON 为最终资源（若其为 JSON）或完成态的 operation；Media 为下载到的视频字节。
type VideoResponse struct {
	baseResponse
	media     []byte
	mediaType string
}

func (*VideoResponse) Kind() ResponseKind { return KindVideo }

var videoURIPaths = []string{
	"response.generateVideoResponse.generatedSamples.0.video.uri",
	"response.generatedSamples.0.video.uri",
	"response.generatedSamples.0.uri",
	"video.uri",
	"uri",
}

// URI 生成视频的下载地址
func (r *VideoResponse) URI() string {
	for _, p := range videoURIPaths {
		if v := r.doc.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// OperationName 对应的长任务名
func (r *VideoResponse) OperationName() string {
	return r.doc.Get("name").String()
}

// Media 下载到的视频字节，未下载时为 nil
func (r *VideoResponse) Media() Blob {
	return Blob{MimeType: r.mediaType, Data: r.media}
}

// =============================================================================
// File
// =============================================================================

// FileResponse 远程文件资源。上传响应包在 "file" 下，get 响应位于顶层。
type FileResponse struct {
	baseResponse
	file gjson.Result
}

func newFileResponse(raw []byte) *FileResponse {
	b := newBase(raw)
	file := b.doc
	if f := b.doc.Get("file"); f.IsObject() {
		file = f
	}
	return &FileResponse{baseResponse: b, file: file}
}

func (*FileResponse) Kind() ResponseKind { return KindFile }

func (r *FileResponse) Name() string        { return r.file.Get("name").String() }
func (r *FileResponse) URI() string         { return r.file.Get("uri").String() }
func (r *FileResponse) MimeType() string    { return r.file.Get("mimeType").String() }
func (r *FileResponse) DisplayName() string { return r.file.Get("displayName").String() }
func (r *FileResponse) State() string       { return r.file.Get("state").String() }
func (r *FileResponse) SizeBytes() int64    { return r.file.Get("sizeBytes").Int() }
func (r *FileResponse) CreateTime() string  { return r.file.Get("createTime").String() }
func (r *FileResponse) ExpirationTime() string {
	return r.file.Get("expirationTime").String()
}

// Files list 响应中的文件
func (r *FileResponse) Files() []*FileResponse {
	var out []*FileResponse
	r.doc.Get("files").ForEach(func(_, f gjson.Result) bool {
		out = append(out, newFileResponse([]byte(f.Raw)))
		return true
	})
	return out
}

func (r *FileResponse) NextPageToken() string {
	return r.doc.Get("nextPageToken").String()
}

// =============================================================================
// Cache
// =============================================================================

// CacheResponse cachedContents 资源
type CacheResponse struct {
	baseResponse
}

func (*CacheResponse) Kind() ResponseKind { return KindCache }

func (r *CacheResponse) Name() string        { return r.doc.Get("name").String() }
func (r *CacheResponse) Model() string       { return r.doc.Get("model").String() }
func (r *CacheResponse) DisplayName() string { return r.doc.Get("displayName").String() }
func (r *CacheResponse) ExpireTime() string  { return r.doc.Get("expireTime").String() }
func (r *CacheResponse) CreateTime() string  { return r.doc.Get("createTime").String() }
func (r *CacheResponse) UpdateTime() string  { return r.doc.Get("updateTime").String() }
func (r *CacheResponse) TotalTokenCount() int {
	return int(r.doc.Get("usageMetadata.totalTokenCount").Int())
}

// CachedContents list 响应中的缓存
func (r *CacheResponse) CachedContents() []*CacheResponse {
	var out []*CacheResponse
	r.doc.Get("cachedContents").ForEach(func(_, c gjson.Result) bool {
		out = append(out, &CacheResponse{newBase([]byte(c.Raw))})
		return true
	})
	return out
}

func (r *CacheResponse) NextPageToken() string {
	return r.doc.Get("nextPageToken").String()
}
