package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Response 已完成的 HTTP 交换。
// 非流式响应的 body 已被完整读取；流式成功响应通过 Reader 暴露原始字节流。
type Response struct {
	StatusCode int
	Header     http.Header

	body   []byte
	stream io.ReadCloser
}

// NewResponse 构造一个已读取完毕的响应（测试与离线解析使用）。
func NewResponse(status int, header http.Header, body []byte) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{StatusCode: status, Header: header, body: body}
}

// Successful 2xx。
func (r *Response) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Failed 非 2xx。
func (r *Response) Failed() bool {
	return !r.Successful()
}

func (r *Response) retryable() bool {
	return r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests
}

// Body 原始响应体；流式响应返回 nil。
func (r *Response) Body() []byte {
	return r.body
}

// JSON 将响应体解码到 v。
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.body, v)
}

// HeaderValue 返回首个同名响应头。
func (r *Response) HeaderValue(key string) string {
	return r.Header.Get(key)
}

// IsStream 响应体是否仍是未读取的字节流。
func (r *Response) IsStream() bool {
	return r.stream != nil
}

// Reader 返回响应体字节流。调用方负责 Close。
func (r *Response) Reader() io.ReadCloser {
	if r.stream != nil {
		return r.stream
	}
	return io.NopCloser(bytes.NewReader(r.body))
}

// Close 关闭未读取的字节流。
func (r *Response) Close() error {
	if r.stream == nil {
		return nil
	}
	return r.stream.Close()
}

// RetryAfter 解析 Retry-After 响应头。
func (r *Response) RetryAfter() (time.Duration, bool) {
	return ParseRetryAfter(r.Header.Get("Retry-After"), time.Now())
}

// ParseRetryAfter 支持秒数与 HTTP-date 两种格式，负值视为 0。
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
