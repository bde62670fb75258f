package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/BaSui01/geminiflow/llm/transport"
	"github.com/BaSui01/geminiflow/types"
)

// MapHTTPError 将失败的 HTTP 状态码映射为 types.Error。
//
//	401 → ErrAuthentication
//	429 → ErrRateLimit（携带 retryAfter）
//	≥500 → ErrAPI
//	400 → ErrValidation
//	其他 → ErrNetwork
func MapHTTPError(status int, msg string, provider string, retryAfter time.Duration) *types.Error {
	var e *types.Error
	switch {
	case status == http.StatusUnauthorized:
		e = types.NewError(types.ErrAuthentication, msg)
	case status == http.StatusTooManyRequests:
		e = types.NewError(types.ErrRateLimit, msg).
			WithRetryable(true).
			WithRetryAfter(retryAfter)
	case status >= 500:
		e = types.NewError(types.ErrAPI, msg).WithRetryable(true)
	case status == http.StatusBadRequest:
		e = types.NewError(types.ErrValidation, msg)
	default:
		e = types.NewError(types.ErrNetwork, msg)
	}
	return e.WithHTTPStatus(status).WithProvider(provider)
}

// ReadErrorMessage 提取错误响应中的 message，解析失败回退到原始文本
func ReadErrorMessage(data []byte) string {
	if msg := gjson.GetBytes(data, "error.message").String(); msg != "" {
		if status := gjson.GetBytes(data, "error.status").String(); status != "" {
			return fmt.Sprintf("%s (status: %s)", msg, status)
		}
		return msg
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "empty error response"
	}
	return text
}

// CheckResponse 成功响应返回 nil，否则返回分类后的错误
func CheckResponse(resp *transport.Response, provider string) error {
	if resp.Successful() {
		return nil
	}
	retryAfter := transport.DefaultRateLimitRetryAfter
	if d, ok := resp.RetryAfter(); ok {
		retryAfter = d
	}
	return MapHTTPError(resp.StatusCode, ReadErrorMessage(resp.Body()), provider, retryAfter)
}
