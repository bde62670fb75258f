package gemini

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/geminiflow/testutil"
	"github.com/BaSui01/geminiflow/types"
)

func uploadHandler(t *testing.T, finalize http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload/v1beta/files":
			w.Header().Set("X-Goog-Upload-URL", "http://"+r.Host+"/upload/session/1")
			testutil.WriteJSON(w, 200, `{}`)
		case "/upload/session/1":
			finalize(w, r)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func TestProvider_UploadFile(t *testing.T) {
	path := testutil.WriteTempFile(t, "talk.mp3", []byte("ID3audio"))
	p, srv, m := newTestProvider(t, uploadHandler(t, testutil.JSONHandler(200,
		`{"file":{"name":"files/abc","uri":"https://generativelanguage.googleapis.com/v1beta/files/abc","mimeType":"audio/mp3","state":"ACTIVE"}}`)))

	file, err := p.UploadFile(testutil.TestContext(t), FileTypeAudio, path)
	require.NoError(t, err)
	assert.Equal(t, "files/abc", file.Name())
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/files/abc", file.URI())
	assert.Equal(t, "ACTIVE", file.State())

	reqs := srv.Requests()
	require.Len(t, reqs, 2)

	start := reqs[0]
	assert.Equal(t, "uploadType=resumable", start.RawQuery)
	assert.Equal(t, "resumable", start.Header.Get("X-Goog-Upload-Protocol"))
	assert.Equal(t, "start", start.Header.Get("X-Goog-Upload-Command"))
	assert.Equal(t, "8", start.Header.Get("X-Goog-Upload-Header-Content-Length"))
	assert.Equal(t, "audio/mp3", start.Header.Get("X-Goog-Upload-Header-Content-Type"))
	testutil.AssertJSONEqual(t, `{"file":{"display_name":"talk.mp3"}}`, start.Body)

	fin := reqs[1]
	assert.Equal(t, "bytes 0-7/8", fin.Header.Get("Content-Range"))
	assert.Equal(t, "audio/mp3", fin.Header.Get("Content-Type"))
	assert.Equal(t, "upload, finalize", fin.Header.Get("X-Goog-Upload-Command"))
	assert.Equal(t, []byte("ID3audio"), fin.Body)

	assert.Equal(t, []int64{8}, m.uploads)
}

func TestProvider_UploadFileLocationFallback(t *testing.T) {
	path := testutil.WriteTempFile(t, "a.pdf", []byte("%PDF"))
	p, _, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/upload/v1beta/files" {
			w.Header().Set("Location", "http://"+r.Host+"/upload/session/2")
			testutil.WriteJSON(w, 200, `{}`)
			return
		}
		testutil.WriteJSON(w, 200, `{"file":{"name":"files/d","uri":"uri://d"}}`)
	})

	file, err := p.UploadFile(testutil.TestContext(t), FileTypeDocument, path)
	require.NoError(t, err)
	assert.Equal(t, "uri://d", file.URI())
}

func TestProvider_UploadFileErrors(t *testing.T) {
	ctx := testutil.TestContext(t)

	t.Run("missing upload url", func(t *testing.T) {
		path := testutil.WriteTempFile(t, "a.mp4", []byte("x"))
		p, srv, _ := newTestProvider(t, testutil.JSONHandler(200, `{}`))
		_, err := p.UploadFile(ctx, FileTypeVideo, path)
		require.Error(t, err)
		assert.True(t, types.IsAPIError(err))
		assert.Contains(t, err.Error(), "Upload URL not received from API")
		assert.Equal(t, 1, srv.Count())
	})

	t.Run("finalize failure is not retried", func(t *testing.T) {
		path := testutil.WriteTempFile(t, "a.mp4", []byte("x"))
		p, srv, _ := newTestProvider(t, uploadHandler(t, testutil.JSONHandler(503, `quota`)))
		_, err := p.UploadFile(ctx, FileTypeVideo, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Upload failed: quota")
		assert.Equal(t, 2, srv.Count())
	})

	t.Run("missing uri", func(t *testing.T) {
		path := testutil.WriteTempFile(t, "a.mp4", []byte("x"))
		p, _, _ := newTestProvider(t, uploadHandler(t, testutil.JSONHandler(200, `{"file":{"name":"files/x"}}`)))
		_, err := p.UploadFile(ctx, FileTypeVideo, path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "File URI not found in API response")
	})

	t.Run("local validation", func(t *testing.T) {
		p, srv, _ := newTestProvider(t, testutil.JSONHandler(200, `{}`))

		_, err := p.UploadFile(ctx, FileTypeVideo, "/nonexistent/a.mp4")
		assert.True(t, types.IsValidation(err))

		_, err = p.UploadFile(ctx, "spreadsheet", "a.xls")
		assert.True(t, types.IsValidation(err))

		empty := testutil.WriteTempFile(t, "empty.wav", nil)
		_, err = p.UploadFile(ctx, FileTypeAudio, empty)
		assert.True(t, types.IsValidation(err))

		wrongExt := testutil.WriteTempFile(t, "a.txt", []byte("x"))
		_, err = p.UploadFile(ctx, FileTypeVideo, wrongExt)
		assert.True(t, types.IsValidation(err))

		assert.Zero(t, srv.Count())
	})
}

func TestProvider_GenerateWithVideoAttachmentUploadsFirst(t *testing.T) {
	path := testutil.WriteTempFile(t, "clip.mp4", []byte("frames"))
	p, srv, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload/v1beta/files":
			w.Header().Set("X-Goog-Upload-URL", "http://"+r.Host+"/upload/session/3")
			testutil.WriteJSON(w, 200, `{}`)
		case "/upload/session/3":
			testutil.WriteJSON(w, 200, `{"file":{"name":"files/v","uri":"uri://v"}}`)
		default:
			testutil.WriteJSON(w, 200, helloResponse)
		}
	})

	opts := textOpts("describe")
	opts.Attachment = &Attachment{Type: FileTypeVideo, Path: path}
	_, err := p.GenerateText(testutil.TestContext(t), opts)
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 3)
	testutil.AssertJSONEqual(t, `[{"parts":[{"text":"describe"},{"fileData":{"mimeType":"video/mp4","fileUri":"uri://v"}}]}]`,
		reqs[2].JSON(t)["contents"])
}
