package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/BaSui01/geminiflow/llm/providers"
	"github.com/BaSui01/geminiflow/types"
)

// operationStatus 长任务资源
type operationStatus struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// awaitOperation 轮询 predictLongRunning 返回的 operation，完成后拉取生成结果
func (p *Provider) awaitOperation(ctx context.Context, model string, kind ResponseKind, initial []byte) (Response, error) {
	var op operationStatus
	if err := json.Unmarshal(initial, &op); err != nil || op.Name == "" {
		return nil, types.NewAPIError("Operation name not found in API response").WithProvider(providerName)
	}

	final, err := p.pollOperation(ctx, model, op, initial)
	if err != nil {
		return nil, err
	}

	location := sampleLocation(final, kind)
	if location == "" {
		return nil, types.NewAPIError("Generated sample not found in operation %s", op.Name).WithProvider(providerName)
	}
	return p.fetchSample(ctx, kind, final, location)
}

// pollOperation 按 PollInterval 轮询直到 done；受 Operation.Timeout 与 ctx 双重约束
func (p *Provider) pollOperation(ctx context.Context, model string, op operationStatus, raw []byte) ([]byte, error) {
	if p.cfg.Operation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Operation.Timeout)
		defer cancel()
	}

	start := time.Now()
	ticker := time.NewTicker(p.cfg.Operation.PollInterval)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, types.NewAPIError("operation %s did not complete", op.Name).
				WithProvider(providerName).
				WithCause(ctx.Err())
		case <-ticker.C:
		}

		resp, err := p.http.Get(ctx, "operations.get", p.versionPath(op.Name), nil)
		if err != nil {
			return nil, err
		}
		if err := providers.CheckResponse(resp, providerName); err != nil {
			return nil, err
		}
		p.metrics.RecordOperationPoll(model)

		raw = resp.Body()
		if err := json.Unmarshal(raw, &op); err != nil {
			return nil, types.NewAPIError("decode operation status").WithCause(err)
		}
		p.logger.Debug("operation polled",
			zap.String("operation", op.Name),
			zap.Bool("done", op.Done),
			elapsedSince(start))
	}

	if op.Error != nil {
		return nil, types.NewAPIError("operation %s failed: %s", op.Name, op.Error.Message).WithProvider(providerName)
	}
	return raw, nil
}

// sampleLocation 视频取 video（uri 或字符串），其他类型取 uri
func sampleLocation(raw []byte, kind ResponseKind) string {
	samples := []string{
		"response.generateVideoResponse.generatedSamples.0",
		"response.generatedSamples.0",
	}
	for _, s := range samples {
		sample := gjson.GetBytes(raw, s)
		if !sample.Exists() {
			continue
		}
		if kind == KindVideo {
			v := sample.Get("video")
			if v.IsObject() {
				return v.Get("uri").String()
			}
			if v.String() != "" {
				return v.String()
			}
			continue
		}
		if uri := sample.Get("uri").String(); uri != "" {
			return uri
		}
	}
	return ""
}

// fetchSample 拉取生成结果。JSON 资源按 kind 解析；视频二进制附在 VideoResponse 上
func (p *Provider) fetchSample(ctx context.Context, kind ResponseKind, operation []byte, location string) (Response, error) {
	path := location
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		path = p.versionPath(location)
	}

	resp, err := p.http.Get(ctx, "operations.sample", path, nil)
	if err != nil {
		return nil, err
	}
	if err := providers.CheckResponse(resp, providerName); err != nil {
		return nil, err
	}

	body := resp.Body()
	contentType := resp.HeaderValue("Content-Type")
	if strings.Contains(contentType, "json") && gjson.ValidBytes(body) {
		return parseResponse(kind, body)
	}
	if kind != KindVideo {
		return nil, types.NewAPIError("unexpected %s sample content type %q", kind, contentType)
	}
	return &VideoResponse{
		baseResponse: newBase(operation),
		media:        body,
		mediaType:    contentType,
	}, nil
}
