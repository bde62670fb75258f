package gemini

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/geminiflow/types"
)

func collect(parts *[]string) StreamCallback {
	return func(p Part) error {
		*parts = append(*parts, p.Text)
		return nil
	}
}

func TestStreamParser_LineSplitAcrossChunks(t *testing.T) {
	var got []string
	p := NewStreamParser(collect(&got))

	require.NoError(t, p.Feed([]byte(`data: {"candidates":[{"content":{"parts":[{"te`)))
	assert.Empty(t, got)
	assert.Positive(t, p.Pending())

	require.NoError(t, p.Feed([]byte(`xt":"Hi"}]}}]}`+"\n")))
	assert.Equal(t, []string{"Hi"}, got)
	assert.Zero(t, p.Pending())
}

func TestStreamParser_SkipsNoise(t *testing.T) {
	var got []string
	p := NewStreamParser(collect(&got))

	input := strings.Join([]string{
		"",
		": keep-alive",
		"data: not json",
		`data: {"candidates":[]}`,
		`data: {"usageMetadata":{"totalTokenCount":3}}`,
		`data: {"candidates":[{"content":{"parts":[{"text":"a"}]}}]}` + "\r",
		`data: {"candidates":[{"content":{"parts":[{"text":"b"},{"text":"ignored"}]}}]}`,
		`data:{"candidates":[{"content":{"parts":[{"text":"no-space"}]}}]}`,
		"",
	}, "\n")
	require.NoError(t, p.Feed([]byte(input)))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestConsumeStream_DropsUnterminatedTail(t *testing.T) {
	body := `data: {"candidates":[{"content":{"parts":[{"text":"one"}]}}]}` + "\n\n" +
		`data: {"candidates":[{"content":{"parts":[{"text":"tail"}]}}]}`

	var got []string
	p := NewStreamParser(collect(&got))
	require.NoError(t, consumeStream(strings.NewReader(body), 16, p))
	assert.Equal(t, []string{"one"}, got)
	assert.Zero(t, p.Pending())
}

func TestConsumeStream_SmallChunks(t *testing.T) {
	body := `data: {"candidates":[{"content":{"parts":[{"text":"one"}]}}]}` + "\n\n" +
		`data: {"candidates":[{"content":{"parts":[{"text":"two"}]}}]}` + "\n\n"

	var got []string
	err := consumeStream(iotest.OneByteReader(strings.NewReader(body)), 7, NewStreamParser(collect(&got)))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestConsumeStream_CallbackErrorIsStreamError(t *testing.T) {
	boom := errors.New("boom")
	body := `data: {"candidates":[{"content":{"parts":[{"text":"one"}]}}]}` + "\n"

	err := consumeStream(strings.NewReader(body), 1024, NewStreamParser(func(Part) error { return boom }))
	require.Error(t, err)
	assert.True(t, types.IsStream(err))
	assert.ErrorIs(t, err, boom)
}

func TestConsumeStream_ReadErrorIsStreamError(t *testing.T) {
	boom := errors.New("connection reset")
	err := consumeStream(iotest.ErrReader(boom), 16, NewStreamParser(func(Part) error { return nil }))
	require.Error(t, err)
	assert.True(t, types.IsStream(err))
	assert.ErrorIs(t, err, boom)
}
