package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a unified error code across the client.
type ErrorCode string

// Error codes. Each maps to one failure class a caller can react to.
const (
	// ErrValidation 调用方输入错误，在任何网络请求之前抛出
	ErrValidation ErrorCode = "VALIDATION"
	// ErrAuthentication 401
	ErrAuthentication ErrorCode = "AUTHENTICATION"
	// ErrRateLimit 429，携带 RetryAfter
	ErrRateLimit ErrorCode = "RATE_LIMIT"
	// ErrAPI 5xx 或应用层失败（finishReason 非 STOP、上传 URL/URI 缺失等）
	ErrAPI ErrorCode = "API_ERROR"
	// ErrNetwork 其他非成功状态码或传输层故障
	ErrNetwork ErrorCode = "NETWORK"
	// ErrStream 流式读取循环中的失败，Cause 保留原始错误
	ErrStream ErrorCode = "STREAM"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode     `json:"code"`
	Message    string        `json:"message"`
	HTTPStatus int           `json:"http_status,omitempty"`
	Retryable  bool          `json:"retryable"`
	Provider   string        `json:"provider,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Cause      error         `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewValidationError is a shorthand for NewError(ErrValidation, ...).
func NewValidationError(format string, args ...any) *Error {
	return NewError(ErrValidation, fmt.Sprintf(format, args...))
}

// NewAPIError is a shorthand for NewError(ErrAPI, ...).
func NewAPIError(format string, args ...any) *Error {
	return NewError(ErrAPI, fmt.Sprintf(format, args...))
}

// NewStreamError wraps a failure raised while consuming a stream.
func NewStreamError(cause error) *Error {
	return NewError(ErrStream, "stream failed").WithCause(cause)
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// WithRetryAfter sets the server supplied retry hint.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}

// AsError returns the outermost *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether any *Error in err's chain carries code.
// StreamError 包装的原始错误也能被识别。
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

func IsValidation(err error) bool     { return GetErrorCode(err) == ErrValidation }
func IsAuthentication(err error) bool { return GetErrorCode(err) == ErrAuthentication }
func IsRateLimit(err error) bool      { return GetErrorCode(err) == ErrRateLimit }
func IsAPIError(err error) bool       { return GetErrorCode(err) == ErrAPI }
func IsNetwork(err error) bool        { return GetErrorCode(err) == ErrNetwork }
func IsStream(err error) bool         { return GetErrorCode(err) == ErrStream }
