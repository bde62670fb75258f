package gemini

import (
	"context"
	"net/http"
	"strings"

	"github.com/BaSui01/geminiflow/llm/providers"
)

func filePath(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "files/") {
		name = "files/" + name
	}
	return name
}

// ListFiles 列出已上传文件；pageSize<=0 时使用服务端默认值
func (p *Provider) ListFiles(ctx context.Context, pageSize int, pageToken string) (*FileResponse, error) {
	resp, err := p.http.Get(ctx, "files.list", p.versionPath("files"), pageQuery(pageSize, pageToken))
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}
	return newFileResponse(resp.Body()), nil
}

// GetFile 获取文件元数据，name 可带或不带 "files/" 前缀
func (p *Provider) GetFile(ctx context.Context, name string) (*FileResponse, error) {
	if err := requireName("File", name); err != nil {
		return nil, err
	}
	resp, err := p.http.Get(ctx, "files.get", p.versionPath(filePath(name)), nil)
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}
	return newFileResponse(resp.Body()), nil
}

// DeleteFile 删除文件。不存在时返回 (false, nil)
func (p *Provider) DeleteFile(ctx context.Context, name string) (bool, error) {
	if err := requireName("File", name); err != nil {
		return false, err
	}
	resp, err := p.http.Delete(ctx, "files.delete", p.versionPath(filePath(name)))
	if err != nil {
		return false, err
	}
	return deleted(resp.StatusCode, providers.CheckResponse(resp, providerName))
}

func deleted(status int, err error) (bool, error) {
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
