package ai

import (
	"errors"
	"fmt"
)

// 校验失败时返回给调用方的提示。
const (
	MsgInvalidFormat = "无效的消息格式"
	MsgEmptyContent  = "消息内容不能为空"
)

// ErrNotConfigured is returned when no upstream credential was supplied.
var ErrNotConfigured = errors.New("upstream credential not configured")

// ValidationError marks a transcript the relay refuses to forward.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// UpstreamError represents a non-success response from the completion service.
// Detail holds the upstream's own message and must stay server-side.
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API 请求失败: upstream status %d", e.StatusCode)
}

// IsUpstreamFailure reports whether err belongs to the upstream-failure tier.
func IsUpstreamFailure(err error) bool {
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}
