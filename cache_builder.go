package geminiflow

import (
	"context"

	"github.com/BaSui01/geminiflow/llm/providers/gemini"
	"github.com/BaSui01/geminiflow/types"
)

// CacheBuilder cachedContents 资源的直接操作入口。
// 与 Builder.Cache 不同，Create 不补默认 TTL，由服务端决定过期时间。
type CacheBuilder struct {
	provider *gemini.Provider
}

func (c *CacheBuilder) Create(ctx context.Context, req gemini.CacheRequest) (*gemini.CacheResponse, error) {
	if req.Model == "" || len(req.Contents) == 0 {
		return nil, types.NewValidationError("Model and contents are required for creating cache.")
	}
	return c.provider.CreateCachedContent(ctx, req)
}

func (c *CacheBuilder) List(ctx context.Context, pageSize int, pageToken string) (*gemini.CacheResponse, error) {
	return c.provider.ListCachedContents(ctx, pageSize, pageToken)
}

func (c *CacheBuilder) Get(ctx context.Context, name string) (*gemini.CacheResponse, error) {
	if name == "" {
		return nil, types.NewValidationError("Cache name is required.")
	}
	return c.provider.GetCachedContent(ctx, name)
}

// Update 修改过期时间，ttl 与 expireTime 同时给出时以 expireTime 为准
func (c *CacheBuilder) Update(ctx context.Context, name, ttl, expireTime string) (*gemini.CacheResponse, error) {
	if name == "" {
		return nil, types.NewValidationError("Cache name is required.")
	}
	if ttl == "" && expireTime == "" {
		return nil, types.NewValidationError("TTL or expireTime is required for update.")
	}
	return c.provider.UpdateCachedContent(ctx, name, ttl, expireTime)
}

func (c *CacheBuilder) Delete(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, types.NewValidationError("Cache name is required.")
	}
	return c.provider.DeleteCachedContent(ctx, name)
}
