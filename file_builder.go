package geminiflow

import (
	"context"

	"github.com/BaSui01/geminiflow/llm/providers/gemini"
	"github.com/BaSui01/geminiflow/types"
)

// FileBuilder Files API 的薄封装
type FileBuilder struct {
	provider *gemini.Provider
}

// Upload 可恢复上传本地文件，返回文件 URI
func (f *FileBuilder) Upload(ctx context.Context, fileType gemini.FileType, path string) (string, error) {
	if fileType == "" || path == "" {
		return "", types.NewValidationError("File type and path are required for upload.")
	}
	resp, err := f.provider.UploadFile(ctx, fileType, path)
	if err != nil {
		return "", err
	}
	return resp.URI(), nil
}

func (f *FileBuilder) Get(ctx context.Context, name string) (*gemini.FileResponse, error) {
	if name == "" {
		return nil, types.NewValidationError("File name is required.")
	}
	return f.provider.GetFile(ctx, name)
}

// Delete 文件不存在时返回 false 且无错误
func (f *FileBuilder) Delete(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, types.NewValidationError("File name is required.")
	}
	return f.provider.DeleteFile(ctx, name)
}

// List pageSize <= 0 时由服务端决定分页大小
func (f *FileBuilder) List(ctx context.Context, pageSize int, pageToken string) (*gemini.FileResponse, error) {
	return f.provider.ListFiles(ctx, pageSize, pageToken)
}
