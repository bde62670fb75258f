package geminiflow

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/geminiflow/config"
	"github.com/BaSui01/geminiflow/llm/providers"
	"github.com/BaSui01/geminiflow/llm/providers/gemini"
	"github.com/BaSui01/geminiflow/testutil"
	"github.com/BaSui01/geminiflow/types"
)

const helloResponse = `{
	"candidates": [{"content": {"role": "model", "parts": [{"text": "Hello"}]}, "finishReason": "STOP"}],
	"usageMetadata": {"promptTokenCount": 2, "candidatesTokenCount": 1, "totalTokenCount": 3}
}`

func testConfig(baseURL string) providers.GeminiConfig {
	cfg := providers.DefaultGeminiConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	cfg.Retry.MaxRetries = 1
	cfg.Retry.Delay = time.Millisecond
	cfg.Operation.PollInterval = 5 * time.Millisecond
	cfg.Operation.Timeout = 2 * time.Second
	return cfg
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *testutil.RecordingServer) {
	t.Helper()
	srv := testutil.NewRecordingServer(t, handler)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return New(testConfig(srv.URL), opts...), srv
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_TextGenerate(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(helloResponse))

	resp, err := c.Text().
		Prompt("Hi").
		System("Be brief").
		Temperature(0.2).
		MaxTokens(64).
		Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Text())

	req := srv.Last(t)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", req.Path)
	assert.Equal(t, "test-key", req.Header.Get(gemini.APIKeyHeader))

	body := req.JSON(t)
	gen := body["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.2, gen["temperature"], 0.0001)
	assert.EqualValues(t, 64, gen["maxOutputTokens"])
	assert.Contains(t, string(req.Body), "Be brief")
}

func TestClient_CapabilityDefaults(t *testing.T) {
	c := New(testConfig("http://127.0.0.1:0"))

	assert.Equal(t, "gemini-2.5-flash", c.Text().Options().Model)
	assert.Equal(t, gemini.MethodPredictLongRunning, c.Video().Options().Method)
	assert.Equal(t, gemini.CapabilityAudio, c.Audio().Options().Capability)
	assert.Equal(t, "gemini-2.5-flash-image-preview", c.Image().Options().Model)
}

func TestNew_MinimalConfigFillsDefaults(t *testing.T) {
	pcm := base64.StdEncoding.EncodeToString([]byte{1, 2})
	var textCalls atomic.Int32
	srv := testutil.NewRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "tts") {
			jsonHandler(`{"candidates": [{"content": {"parts": [{"inlineData": {"mimeType": "audio/L16", "data": "` + pcm + `"}}]}}]}`)(w, r)
			return
		}
		if textCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		jsonHandler(helloResponse)(w, r)
	})

	c := New(providers.GeminiConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: "k", BaseURL: srv.URL},
	}, WithLogger(zaptest.NewLogger(t)))

	def := providers.DefaultGeminiConfig()
	cfg := c.Provider().Config()
	assert.Equal(t, def.Retry, cfg.Retry)
	assert.Equal(t, def.SafetySettings, cfg.SafetySettings)
	assert.Equal(t, "Kore", cfg.Speech.VoiceName)
	assert.Equal(t, "3600s", cfg.Caching.DefaultTTL)
	assert.Equal(t, 10*time.Minute, cfg.Operation.Timeout)

	resp, err := c.Text().Prompt("Hi").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Text())
	assert.EqualValues(t, 2, textCalls.Load())
	assert.Contains(t, string(srv.Last(t).Body), "HARM_CATEGORY_HARASSMENT")

	_, err = c.Audio().Prompt("Say hi").Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(srv.Last(t).Body), `"voiceName":"Kore"`)
}

func TestClient_MissingCapabilityMethod(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.Capabilities.Image = providers.ModelMethod{Model: "imagen-4.0-generate-001"}
	c := New(cfg)

	_, err := c.Image().Prompt("fox").Generate(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
	assert.Contains(t, err.Error(), "Default method for image not found in configuration.")
}

func TestBuilder_InvalidMethodDeferred(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(helloResponse))

	b := c.Text().Method("chat").Prompt("Hi")
	require.Error(t, b.Err())

	_, err := b.Generate(context.Background())
	assert.True(t, types.IsValidation(err))
	assert.Equal(t, 0, srv.Count())

	// 第一个错误保留
	b.Method("nope")
	assert.Contains(t, b.Err().Error(), "chat")
}

func TestBuilder_ModelOverride(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(helloResponse))

	_, err := c.Text().Model("gemini-2.5-pro").Model("").Prompt("Hi").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-2.5-pro:generateContent", srv.Last(t).Path)
}

func TestBuilder_Stream(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}]}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"b\"}]}}]}\n\n"))
	})

	var sb strings.Builder
	err := c.Text().Prompt("Hi").Stream(context.Background(), func(p gemini.Part) error {
		sb.WriteString(p.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ab", sb.String())

	req := srv.Last(t)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:streamGenerateContent", req.Path)
	assert.Contains(t, req.RawQuery, "alt=sse")
}

func TestBuilder_Cache(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(`{"name": "cachedContents/abc"}`))

	name, err := c.Text().
		History([]gemini.Content{UserText("Earlier"), ModelText("Reply")}).
		Prompt("Now").
		System("sys").
		Cache(context.Background(), CacheOptions{DisplayName: "demo"})
	require.NoError(t, err)
	assert.Equal(t, "cachedContents/abc", name)

	req := srv.Last(t)
	assert.Equal(t, "/v1beta/cachedContents", req.Path)
	body := req.JSON(t)
	assert.Equal(t, "models/gemini-2.5-flash", body["model"])
	assert.Equal(t, "3600s", body["ttl"])
	assert.Equal(t, "demo", body["displayName"])

	contents := body["contents"].([]any)
	require.Len(t, contents, 3)
	last := contents[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
}

func TestBuilder_GetCacheRequiresName(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(`{}`))

	_, err := c.Text().GetCache(context.Background(), "")
	assert.True(t, types.IsValidation(err))
	assert.Equal(t, 0, srv.Count())
}

func TestBuilder_CountTokens(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(`{"totalTokens": 17}`))

	n, err := c.Text().Prompt("count me").CountTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 17, n)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:countTokens", srv.Last(t).Path)
}

func TestClient_WithAPIKey(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(helloResponse))

	other := c.WithAPIKey("other-key")
	_, err := other.Text().Prompt("Hi").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "other-key", srv.Last(t).Header.Get(gemini.APIKeyHeader))

	_, err = c.Text().Prompt("Hi").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", srv.Last(t).Header.Get(gemini.APIKeyHeader))
}

func TestClient_WithAPIKeyOption(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(helloResponse), WithAPIKey("opt-key"))

	_, err := c.Text().Prompt("Hi").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opt-key", srv.Last(t).Header.Get(gemini.APIKeyHeader))
}

func TestClient_WithTracer(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c, _ := newTestClient(t, jsonHandler(helloResponse), WithTracer(tp.Tracer("test")))
	_, err := c.Text().Prompt("Hi").Generate(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, exp.GetSpans())
}

func TestClient_ModelsAndEmbeddings(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":embedContent") {
			_, _ = w.Write([]byte(`{"embedding": {"values": [0.1, 0.2]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"models": [{"name": "models/gemini-2.5-flash"}]}`))
	})

	models, err := c.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "models/gemini-2.5-flash", models[0].Name)

	vecs, err := c.Embeddings(context.Background(), gemini.EmbedRequest{Texts: []string{"hi"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}}, vecs)
	assert.Equal(t, "/v1beta/models/gemini-embedding-001:embedContent", srv.Last(t).Path)
}

func TestNewFromConfig(t *testing.T) {
	srv := testutil.NewRecordingServer(t, jsonHandler(helloResponse))

	cfg := config.DefaultConfig()
	cfg.Gemini = testConfig(srv.URL)
	cfg.Metrics.Namespace = "geminiflow_client_test"

	c, err := NewFromConfig(cfg)
	require.NoError(t, err)

	resp, err := c.Text().Prompt("Hi").Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Text())

	// 同一 namespace 再次创建不会重复注册
	_, err = NewFromConfig(cfg)
	require.NoError(t, err)
}

func TestNewFromConfig_Invalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Gemini.Stream.ChunkSize = 0

	_, err := NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestFileBuilder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	var uploadURL string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/upload/v1beta/files":
			w.Header().Set("X-Goog-Upload-URL", uploadURL)
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/resumable":
			_, _ = w.Write([]byte(`{"file": {"name": "files/n1", "uri": "https://files/n1"}}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"message": "gone"}}`))
		case r.URL.Path == "/v1beta/files":
			_, _ = w.Write([]byte(`{"files": [{"name": "files/n1"}], "nextPageToken": "p2"}`))
		default:
			_, _ = w.Write([]byte(`{"name": "files/n1", "state": "ACTIVE"}`))
		}
	})
	uploadURL = srv.URL + "/resumable"
	ctx := context.Background()

	uri, err := c.Files().Upload(ctx, FileTypeDocument, path)
	require.NoError(t, err)
	assert.Equal(t, "https://files/n1", uri)

	f, err := c.Files().Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", f.State())
	assert.Equal(t, "/v1beta/files/n1", srv.Last(t).Path)

	list, err := c.Files().List(ctx, 10, "")
	require.NoError(t, err)
	assert.Len(t, list.Files(), 1)
	assert.Equal(t, "p2", list.NextPageToken())

	ok, err := c.Files().Delete(ctx, "files/n1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileBuilder_Validation(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(`{}`))
	ctx := context.Background()

	_, err := c.Files().Upload(ctx, "", "x")
	assert.True(t, types.IsValidation(err))
	_, err = c.Files().Get(ctx, "")
	assert.True(t, types.IsValidation(err))
	_, err = c.Files().Delete(ctx, "")
	assert.True(t, types.IsValidation(err))
	assert.Equal(t, 0, srv.Count())
}

func TestCacheBuilder(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(`{"name": "cachedContents/c1", "expireTime": "2030-01-01T00:00:00Z"}`))
	ctx := context.Background()

	created, err := c.Caches().Create(ctx, gemini.CacheRequest{
		Model:    "gemini-2.5-flash",
		Contents: []gemini.Content{UserText("doc")},
	})
	require.NoError(t, err)
	assert.Equal(t, "cachedContents/c1", created.Name())
	_, hasTTL := srv.Last(t).JSON(t)["ttl"]
	assert.False(t, hasTTL)

	updated, err := c.Caches().Update(ctx, "c1", "60s", "")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01T00:00:00Z", updated.ExpireTime())
	last := srv.Last(t)
	assert.Equal(t, http.MethodPatch, last.Method)
	assert.Contains(t, last.RawQuery, "updateMask=ttl")

	ok, err := c.Caches().Delete(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheBuilder_Validation(t *testing.T) {
	c, srv := newTestClient(t, jsonHandler(`{}`))
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		msg  string
	}{
		{"create without contents", func() error {
			_, err := c.Caches().Create(ctx, gemini.CacheRequest{Model: "m"})
			return err
		}, "Model and contents are required"},
		{"get without name", func() error {
			_, err := c.Caches().Get(ctx, "")
			return err
		}, "Cache name is required."},
		{"update without expiry", func() error {
			_, err := c.Caches().Update(ctx, "c1", "", "")
			return err
		}, "TTL or expireTime is required for update."},
		{"delete without name", func() error {
			_, err := c.Caches().Delete(ctx, "")
			return err
		}, "Cache name is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, types.IsValidation(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	assert.Equal(t, 0, srv.Count())
}
