package chat

import (
	"errors"
	"net/http"

	aiService "github.com/zhouzirui/deepseek-chat/internal/service/ai"
	"github.com/zhouzirui/deepseek-chat/pkg/utils"
)

// 错误码与面向用户的通用提示。
const (
	CodeInvalidRequest      = "invalid_request"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodeInternal            = "internal_error"

	MsgUpstreamUnavailable = "AI 服务暂时不可用，请稍后重试"
	MsgInternal            = "服务器内部错误"
)

// decodeError wraps a body that could not be read as a transcript request.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return "decode request body: " + e.err.Error()
}

func (e *decodeError) Unwrap() error {
	return e.err
}

// classifyError maps a relay failure onto its status and response envelope.
// Upstream failures never expose the upstream's own message.
func classifyError(err error) (int, utils.ErrorEnvelope) {
	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadRequest, utils.NewErrorEnvelope(CodeInvalidRequest, aiService.MsgInvalidFormat, aiService.MsgInvalidFormat)
	}

	var validationErr *aiService.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, utils.NewErrorEnvelope(CodeInvalidRequest, validationErr.Message, validationErr.Message)
	}

	if aiService.IsUpstreamFailure(err) {
		return http.StatusBadGateway, utils.NewErrorEnvelope(CodeUpstreamUnavailable, MsgUpstreamUnavailable, err.Error())
	}

	return http.StatusInternalServerError, utils.NewErrorEnvelope(CodeInternal, MsgInternal, err.Error())
}
