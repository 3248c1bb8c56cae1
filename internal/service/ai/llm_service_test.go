package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zhouzirui/deepseek-chat/internal/config"
	"github.com/zhouzirui/deepseek-chat/internal/model/chat"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewService(config.UpstreamConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1",
		Model:   "deepseek-chat",
	}, srv.Client())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		messages []chat.Message
		want     string
	}{
		{"empty", nil, MsgInvalidFormat},
		{"unknown role", []chat.Message{{Role: "tool", Content: "hi"}}, MsgInvalidFormat},
		{"blank final", []chat.Message{{Role: chat.RoleUser, Content: "hi"}, {Role: chat.RoleUser, Content: " \n\t"}}, MsgEmptyContent},
		{"ok", []chat.Message{{Role: chat.RoleUser, Content: "hi"}}, ""},
		{"blank earlier turn is fine", []chat.Message{{Role: chat.RoleAssistant, Content: ""}, {Role: chat.RoleUser, Content: "hi"}}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.messages)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Message != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, vErr.Message)
			}
		})
	}
}

func TestStreamBuildsUpstreamRequest(t *testing.T) {
	var got map[string]any
	var auth string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode upstream body: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	transcript := []chat.Message{
		{Role: chat.RoleUser, Content: "你好"},
		{Role: chat.RoleAssistant, Content: "你好！"},
		{Role: chat.RoleUser, Content: "  解释一下 goroutine  "},
	}

	completion, err := svc.Stream(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Stream err: %v", err)
	}
	defer completion.Body.Close()

	if completion.ContentType != "text/event-stream" {
		t.Fatalf("unexpected content type %q", completion.ContentType)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}

	msgs, ok := got["messages"].([]any)
	if !ok || len(msgs) != len(transcript)+1 {
		t.Fatalf("expected %d upstream messages, got %v", len(transcript)+1, got["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != SystemPrompt {
		t.Fatalf("first upstream message is not the system prompt: %v", first)
	}
	for i, want := range transcript {
		m := msgs[i+1].(map[string]any)
		if m["role"] != string(want.Role) || m["content"] != want.Content {
			t.Fatalf("message %d altered: got %v want %+v", i, m, want)
		}
		if m["role"] == "system" {
			t.Fatalf("unexpected extra system message at %d", i+1)
		}
	}

	if got["stream"] != true || got["model"] != "deepseek-chat" {
		t.Fatalf("unexpected stream/model: %v %v", got["stream"], got["model"])
	}
	wantParams := map[string]float64{
		"temperature":       0.8,
		"max_tokens":        3000,
		"presence_penalty":  0.6,
		"frequency_penalty": 0.7,
		"top_p":             0.9,
	}
	for key, want := range wantParams {
		if got[key] != want {
			t.Fatalf("%s: expected %v, got %v", key, want, got[key])
		}
	}
}

func TestStreamUpstreamFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Authentication Fails (sk-leaked)","type":"authentication_error"}}`)
	})

	_, err := svc.Stream(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hi"}})
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", upstreamErr.StatusCode)
	}
	if upstreamErr.Detail != "Authentication Fails (sk-leaked)" {
		t.Fatalf("unexpected detail %q", upstreamErr.Detail)
	}
	if !IsUpstreamFailure(err) {
		t.Fatal("expected upstream failure classification")
	}
}

func TestStreamNotConfigured(t *testing.T) {
	svc := NewService(config.UpstreamConfig{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := svc.Stream(context.Background(), []chat.Message{{Role: chat.RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if !IsUpstreamFailure(err) {
		t.Fatal("expected upstream failure classification")
	}
}

func TestStreamValidatesBeforeCallingUpstream(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := svc.Stream(context.Background(), []chat.Message{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if called {
		t.Fatal("upstream must not be called for invalid input")
	}
}

func TestExtractErrorMessage(t *testing.T) {
	cases := map[string]string{
		`{"error":{"message":"nested"}}`: "nested",
		`{"message":"flat"}`:             "flat",
		`{"error":"plain"}`:              "plain",
		`{"unexpected":true}`:            "API 请求失败",
		"bad gateway":                    "bad gateway",
	}
	for body, want := range cases {
		if got := extractErrorMessage([]byte(body)); got != want {
			t.Fatalf("extractErrorMessage(%q) = %q, want %q", body, got, want)
		}
	}
}
