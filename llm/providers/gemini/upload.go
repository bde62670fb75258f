package gemini

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/geminiflow/llm/providers"
	"github.com/BaSui01/geminiflow/llm/transport"
	"github.com/BaSui01/geminiflow/types"
)

type uploadInit struct {
	File struct {
		DisplayName string `json:"display_name"`
	} `json:"file"`
}

// UploadFile 两步可恢复上传：先开会话拿上传地址，再一次性发送全部字节并 finalize。
// 返回远程文件资源，URI() 即后续请求引用的 fileUri。
func (p *Provider) UploadFile(ctx context.Context, fileType FileType, path string) (*FileResponse, error) {
	if !fileType.Valid() {
		return nil, types.NewValidationError("Invalid file type: %s. Allowed types: image, video, audio, document", fileType)
	}
	info, err := checkLocalFile(path)
	if err != nil {
		return nil, err
	}
	mime, err := MimeType(fileType, path)
	if err != nil {
		return nil, err
	}
	data, err := readLocalFile(path)
	if err != nil {
		return nil, err
	}
	size := int64(len(data))
	if size == 0 {
		return nil, types.NewValidationError("File is empty: %s", path)
	}

	start := time.Now()
	uploadURL, err := p.initiateUpload(ctx, filepath.Base(path), mime, size)
	if err != nil {
		return nil, err
	}

	resp, err := p.http.Do(ctx, &transport.Request{
		Method:      http.MethodPost,
		Path:        uploadURL,
		RawBody:     data,
		ContentType: mime,
		Headers: map[string]string{
			"Content-Range":         "bytes 0-" + strconv.FormatInt(size-1, 10) + "/" + strconv.FormatInt(size, 10),
			"X-Goog-Upload-Command": "upload, finalize",
			"X-Goog-Upload-Offset":  "0",
		},
		NoRetry: true,
		Route:   "files.upload.finalize",
	})
	if err != nil {
		return nil, err
	}
	if !resp.Successful() {
		return nil, types.NewAPIError("Upload failed: %s", string(resp.Body())).
			WithHTTPStatus(resp.StatusCode).
			WithProvider(providerName)
	}

	file := newFileResponse(resp.Body())
	if file.URI() == "" {
		return nil, types.NewAPIError("File URI not found in API response").WithProvider(providerName)
	}

	p.metrics.RecordUpload(string(fileType), info.Size())
	p.logger.Info("file uploaded",
		zap.String("name", file.Name()),
		zap.String("mime_type", mime),
		zap.Int64("size", size),
		elapsedSince(start))
	return file, nil
}

// initiateUpload 开启上传会话，返回上传地址
func (p *Provider) initiateUpload(ctx context.Context, displayName, mime string, size int64) (string, error) {
	var body uploadInit
	body.File.DisplayName = displayName

	resp, err := p.http.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/upload/" + p.cfg.APIVersion + "/files",
		Query:  url.Values{"uploadType": {"resumable"}},
		Body:   body,
		Headers: map[string]string{
			"X-Goog-Upload-Protocol":              "resumable",
			"X-Goog-Upload-Command":               "start",
			"X-Goog-Upload-Header-Content-Length": strconv.FormatInt(size, 10),
			"X-Goog-Upload-Header-Content-Type":   mime,
		},
		Route: "files.upload.start",
	})
	if err != nil {
		return "", err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return "", err
	}

	uploadURL := resp.HeaderValue("X-Goog-Upload-URL")
	if uploadURL == "" {
		uploadURL = resp.HeaderValue("Location")
	}
	if uploadURL == "" {
		return "", types.NewAPIError("Upload URL not received from API").WithProvider(providerName)
	}
	return uploadURL, nil
}
