package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest 服务端收到的一次请求快照
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// JSON 将请求体解析为 map
func (r RecordedRequest) JSON(t *testing.T) map[string]any {
	t.Helper()
	return MustParseJSON(t, r.Body)
}

// RecordingServer 记录所有请求的 httptest 服务器
type RecordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewRecordingServer 启动服务器，测试结束时自动关闭
func NewRecordingServer(t *testing.T, handler http.HandlerFunc) *RecordingServer {
	t.Helper()

	s := &RecordingServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		s.mu.Unlock()

		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests 返回已记录请求的副本
func (s *RecordingServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Count 已记录请求数
func (s *RecordingServer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Last 最后一次请求；没有请求时 Fatal
func (s *RecordingServer) Last(t *testing.T) RecordedRequest {
	t.Helper()

	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatalf("no request recorded")
	}
	return reqs[len(reqs)-1]
}

// JSONHandler 固定返回 status + JSON body
func JSONHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	}
}

// WriteJSON 写 JSON 响应。body 为 string 时原样输出。
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch b := body.(type) {
	case string:
		_, _ = io.WriteString(w, b)
	case []byte:
		_, _ = w.Write(b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}

// Sequence 依次使用 handlers，超出后重复最后一个
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	i := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[min(i, len(handlers)-1)]
		i++
		mu.Unlock()
		h(w, r)
	}
}
