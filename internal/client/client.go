// Package client talks to the chat relay and decodes its stream into message deltas.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"

	"github.com/zhouzirui/deepseek-chat/internal/model/chat"
	"github.com/zhouzirui/deepseek-chat/pkg/utils"
)

// ChatPath is the relay endpoint, relative to the server base URL.
const ChatPath = "/api/deepseek/chat"

const maxLineBytes = 1 << 20

// APIError is a relay error envelope together with its HTTP status.
type APIError struct {
	StatusCode int
	Envelope   utils.ErrorEnvelope
}

func (e *APIError) Error() string {
	if e.Envelope.Error == "" {
		return fmt.Sprintf("relay error [%d]", e.StatusCode)
	}
	return e.Envelope.Error
}

// StreamError is an error event embedded in an otherwise successful stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// Client posts transcripts to the relay.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the relay at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Stream submits the transcript and returns the assistant reply as a stream of
// content deltas. The caller must Close the reader; cancelling ctx ends the stream.
func (c *Client) Stream(ctx context.Context, messages []chat.Message) (*schema.StreamReader[*schema.Message], error) {
	payload, err := json.Marshal(chat.Request{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr.Envelope); err != nil {
			apiErr.Envelope = utils.ErrorEnvelope{}
		}
		return nil, apiErr
	}

	sr, sw := schema.Pipe[*schema.Message](16)
	go decodeEvents(resp.Body, sw)
	return sr, nil
}

// decodeEvents turns OpenAI-style SSE lines into assistant message deltas.
func decodeEvents(body io.ReadCloser, sw *schema.StreamWriter[*schema.Message]) {
	defer sw.Close()
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return
		}

		delta, err := parseEvent(data)
		if err != nil {
			sw.Send(nil, err)
			return
		}
		if delta == "" {
			continue
		}
		if closed := sw.Send(schema.AssistantMessage(delta, nil), nil); closed {
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
		sw.Send(nil, fmt.Errorf("read stream: %w", err))
	}
}

func parseEvent(data string) (string, error) {
	if !gjson.Valid(data) {
		return "", fmt.Errorf("malformed stream event: %q", data)
	}
	if msg := gjson.Get(data, "error.message"); msg.Exists() {
		return "", &StreamError{Message: msg.String()}
	}
	return gjson.Get(data, "choices.0.delta.content").String(), nil
}
