package gemini

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/geminiflow/llm/providers"
	"github.com/BaSui01/geminiflow/types"
)

func cachePath(name string) string {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "cachedContents/") {
		name = "cachedContents/" + name
	}
	return name
}

// CreateCachedContent 创建上下文缓存。不附加默认 TTL，由服务端决定过期时间
func (p *Provider) CreateCachedContent(ctx context.Context, req CacheRequest) (*CacheResponse, error) {
	model := normalizeModel(req.Model)
	if model == "" {
		return nil, types.NewValidationError("Model is required")
	}
	if len(req.Contents) == 0 {
		return nil, types.NewValidationError("Contents are required for cached content")
	}

	payload := cachedContentPayload{
		Model:       "models/" + model,
		Contents:    cloneContents(req.Contents),
		Tools:       req.Tools,
		ToolConfig:  req.ToolConfig,
		DisplayName: req.DisplayName,
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = textContent("", req.SystemInstruction)
	}
	if req.ExpireTime != "" {
		payload.ExpireTime = req.ExpireTime
	} else {
		payload.TTL = req.TTL
	}

	resp, err := p.http.Post(ctx, "cachedContents.create", p.versionPath("cachedContents"), payload)
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}
	cache := &CacheResponse{newBase(resp.Body())}
	p.logger.Debug("cached content created", zap.String("name", cache.Name()), zap.String("model", model))
	return cache, nil
}

// ListCachedContents 分页列出缓存；pageSize<=0 使用配置默认值
func (p *Provider) ListCachedContents(ctx context.Context, pageSize int, pageToken string) (*CacheResponse, error) {
	if pageSize <= 0 {
		pageSize = p.cfg.Caching.DefaultPageSize
	}
	resp, err := p.http.Get(ctx, "cachedContents.list", p.versionPath("cachedContents"), pageQuery(pageSize, pageToken))
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}
	return &CacheResponse{newBase(resp.Body())}, nil
}

func (p *Provider) GetCachedContent(ctx context.Context, name string) (*CacheResponse, error) {
	if err := requireName("Cached content", name); err != nil {
		return nil, err
	}
	resp, err := p.http.Get(ctx, "cachedContents.get", p.versionPath(cachePath(name)), nil)
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}
	return &CacheResponse{newBase(resp.Body())}, nil
}

// UpdateCachedContent 只允许修改过期时间。expireTime 优先于 ttl；两者皆空时不发请求
func (p *Provider) UpdateCachedContent(ctx context.Context, name, ttl, expireTime string) (*CacheResponse, error) {
	if err := requireName("Cached content", name); err != nil {
		return nil, err
	}
	var (
		payload cacheExpirationPayload
		mask    string
	)
	switch {
	case expireTime != "":
		payload.ExpireTime, mask = expireTime, "expireTime"
	case ttl != "":
		payload.TTL, mask = ttl, "ttl"
	default:
		return nil, types.NewValidationError("Either ttl or expireTime is required to update cached content")
	}

	resp, err := p.http.Patch(ctx, "cachedContents.patch", p.versionPath(cachePath(name)),
		url.Values{"updateMask": {mask}}, payload)
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}
	return &CacheResponse{newBase(resp.Body())}, nil
}

// DeleteCachedContent 删除缓存。不存在时返回 (false, nil)
func (p *Provider) DeleteCachedContent(ctx context.Context, name string) (bool, error) {
	if err := requireName("Cached content", name); err != nil {
		return false, err
	}
	resp, err := p.http.Delete(ctx, "cachedContents.delete", p.versionPath(cachePath(name)))
	if err != nil {
		return false, err
	}
	return deleted(resp.StatusCode, providers.CheckResponse(resp, providerName))
}
