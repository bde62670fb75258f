package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/geminiflow/types"
)

func TestParseResponse_Kinds(t *testing.T) {
	tests := []struct {
		kind ResponseKind
		want any
	}{
		{KindText, &TextResponse{}},
		{KindImage, &ImageResponse{}},
		{KindVideo, &VideoResponse{}},
		{KindAudio, &AudioResponse{}},
		{KindFile, &FileResponse{}},
		{KindCache, &CacheResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			r, err := parseResponse(tt.kind, []byte(`{}`))
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
			assert.Equal(t, tt.kind, r.Kind())
		})
	}
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	_, err := parseResponse(KindText, []byte(`{not json`))
	require.Error(t, err)
	assert.True(t, types.IsAPIError(err))

	_, err = parseResponse(ResponseKind(99), []byte(`{}`))
	assert.True(t, types.IsValidation(err))
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindText, KindFor(CapabilityText))
	assert.Equal(t, KindImage, KindFor(CapabilityImage))
	assert.Equal(t, KindVideo, KindFor(CapabilityVideo))
	assert.Equal(t, KindAudio, KindFor(CapabilityAudio))
}

func TestTextResponse_Accessors(t *testing.T) {
	r, err := parseResponse(KindText, []byte(`{
		"candidates": [{
			"content": {"parts": [
				{"text": "thinking...", "thought": true},
				{"text": "{\"city\":\"Paris\"}"},
				{"functionCall": {"name": "lookup", "args": {"q": "x"}}}
			]},
			"finishReason": "STOP"
		}],
		"usageMetadata": {"promptTokenCount": 1, "candidatesTokenCount": 2, "totalTokenCount": 3, "cachedContentTokenCount": 1},
		"modelVersion": "gemini-2.5-flash-001"
	}`))
	require.NoError(t, err)
	text := r.(*TextResponse)

	assert.Equal(t, `{"city":"Paris"}`, text.Text())
	assert.Equal(t, "gemini-2.5-flash-001", text.ModelVersion())
	assert.Equal(t, Usage{PromptTokens: 1, CandidatesTokens: 2, TotalTokens: 3, CachedTokens: 1}, text.Usage())
	assert.Len(t, text.Parts(), 3)

	calls := text.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "lookup", calls[0].Name)

	var out struct {
		City string `json:"city"`
	}
	require.NoError(t, text.Decode(&out))
	assert.Equal(t, "Paris", out.City)
	assert.Equal(t, "STOP", text.Get("candidates.0.finishReason").String())
	assert.Contains(t, text.ToMap(), "candidates")
}

func TestAudioResponse_Audio(t *testing.T) {
	r, err := parseResponse(KindAudio, []byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16;rate=24000","data":"AAEC"}}]}}]}`))
	require.NoError(t, err)

	blob, ok := r.(*AudioResponse).Audio()
	require.True(t, ok)
	assert.Equal(t, "audio/L16;rate=24000", blob.MimeType)
	assert.Equal(t, []byte{0, 1, 2}, blob.Data)

	empty, _ := parseResponse(KindAudio, []byte(`{}`))
	_, ok = empty.(*AudioResponse).Audio()
	assert.False(t, ok)
}

func TestImageResponse_InlineParts(t *testing.T) {
	r, err := parseResponse(KindImage, []byte(`{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"aGk="}}]}}]}`))
	require.NoError(t, err)

	img := r.(*ImageResponse)
	require.Len(t, img.Images(), 1)
	assert.Equal(t, []byte("hi"), img.Images()[0].Data)
	assert.Equal(t, "here", img.Text())
}

func TestFileResponse_UnwrapsFile(t *testing.T) {
	wrapped := newFileResponse([]byte(`{"file":{"name":"files/a","uri":"u","displayName":"a.mp4","expirationTime":"t"}}`))
	assert.Equal(t, "files/a", wrapped.Name())
	assert.Equal(t, "a.mp4", wrapped.DisplayName())
	assert.Equal(t, "t", wrapped.ExpirationTime())

	flat := newFileResponse([]byte(`{"name":"files/b","uri":"u2"}`))
	assert.Equal(t, "files/b", flat.Name())
	assert.Equal(t, "u2", flat.URI())
}

func TestSampleLocation(t *testing.T) {
	raw := []byte(`{"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://x/v.mp4"}}]}}}`)
	assert.Equal(t, "https://x/v.mp4", sampleLocation(raw, KindVideo))

	str := []byte(`{"response":{"generatedSamples":[{"video":"files/v"}]}}`)
	assert.Equal(t, "files/v", sampleLocation(str, KindVideo))

	uri := []byte(`{"response":{"generatedSamples":[{"uri":"files/i"}]}}`)
	assert.Equal(t, "files/i", sampleLocation(uri, KindImage))
	assert.Empty(t, sampleLocation(uri, KindVideo))
}
