package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/zhouzirui/deepseek-chat/internal/config"
	"github.com/zhouzirui/deepseek-chat/internal/model/chat"
)

const maxErrorPayloadBytes = 64 << 10

// completionRequest is the OpenAI-compatible body sent upstream.
type completionRequest struct {
	Model            string         `json:"model"`
	Messages         []chat.Message `json:"messages"`
	Stream           bool           `json:"stream"`
	Temperature      float64        `json:"temperature"`
	MaxTokens        int            `json:"max_tokens"`
	PresencePenalty  float64        `json:"presence_penalty"`
	FrequencyPenalty float64        `json:"frequency_penalty"`
	TopP             float64        `json:"top_p"`
}

// Completion is a successful upstream response whose body has not been read yet.
// The caller owns Body and must close it.
type Completion struct {
	ContentType string
	Body        io.ReadCloser
}

// Service forwards transcripts to the upstream completion API.
type Service struct {
	cfg    config.UpstreamConfig
	client *http.Client
}

// NewService creates a relay service. A nil client falls back to one without
// a timeout, since completions stream for as long as the upstream keeps writing.
func NewService(cfg config.UpstreamConfig, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{}
	}
	return &Service{cfg: cfg, client: client}
}

// Enabled 表示上游凭证是否已配置。
func (s *Service) Enabled() bool {
	return s.cfg.Enabled()
}

// Validate checks the transcript contract: non-empty, known roles, and a final
// message with non-blank content.
func Validate(messages []chat.Message) error {
	if len(messages) == 0 {
		return NewValidationError(MsgInvalidFormat)
	}
	for _, msg := range messages {
		if !msg.Role.Valid() {
			return NewValidationError(MsgInvalidFormat)
		}
	}
	if messages[len(messages)-1].Blank() {
		return NewValidationError(MsgEmptyContent)
	}
	return nil
}

// Stream validates the transcript and opens a streaming completion upstream.
// The upstream call is bound to ctx, so cancelling ctx aborts it.
func (s *Service) Stream(ctx context.Context, messages []chat.Message) (*Completion, error) {
	if err := Validate(messages); err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(s.buildRequest(messages))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upstream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.CompletionsURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorPayloadBytes))
		upstreamErr := &UpstreamError{StatusCode: resp.StatusCode, Detail: extractErrorMessage(body)}
		log.Printf("[relay] upstream rejected request: status=%d detail=%q", upstreamErr.StatusCode, upstreamErr.Detail)
		return nil, upstreamErr
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}

	return &Completion{ContentType: contentType, Body: resp.Body}, nil
}

func (s *Service) buildRequest(messages []chat.Message) completionRequest {
	return completionRequest{
		Model:            s.cfg.Model,
		Messages:         buildMessages(messages),
		Stream:           true,
		Temperature:      Temperature,
		MaxTokens:        MaxTokens,
		PresencePenalty:  PresencePenalty,
		FrequencyPenalty: FrequencyPenalty,
		TopP:             TopP,
	}
}

// extractErrorMessage pulls a human message out of the upstream error payload.
// DeepSeek nests it under error.message; other gateways use message or error.
func extractErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}

	for _, path := range []string{"error.message", "message", "error"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return "API 请求失败"
}
