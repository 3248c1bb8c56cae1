package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/deepseek-chat/internal/handler/stream"
	"github.com/zhouzirui/deepseek-chat/internal/model/chat"
	aiService "github.com/zhouzirui/deepseek-chat/internal/service/ai"
	"github.com/zhouzirui/deepseek-chat/pkg/utils"
)

// Relayer opens an upstream completion stream for a transcript.
type Relayer interface {
	Stream(ctx context.Context, messages []chat.Message) (*aiService.Completion, error)
}

// Handler 聊天中继的HTTP处理器
type Handler struct {
	relay        Relayer
	maxBodyBytes int64
	ws           *WebSocketHandler
}

// New 创建聊天处理器
func New(relay Relayer, maxBodyBytes int64) *Handler {
	return &Handler{
		relay:        relay,
		maxBodyBytes: maxBodyBytes,
		ws:           newWebSocketHandler(relay, maxBodyBytes),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/deepseek/chat", h.handleChat)
	r.Get("/deepseek/chat/ws", h.ws.handleWebSocket)
}

// handleChat 转发对话并以流的形式返回上游输出
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var payload chat.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.fail(w, reqID, &decodeError{err: err})
		return
	}

	completion, err := h.relay.Stream(r.Context(), payload.Messages)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}
	defer completion.Body.Close()

	fw, err := stream.NewFlushWriter(w)
	if err != nil {
		h.fail(w, reqID, err)
		return
	}

	utils.SetupStreamHeaders(w, completion.ContentType)
	w.WriteHeader(http.StatusOK)

	// Headers are committed from here on; failures can only be logged.
	n, err := stream.Relay(r.Context(), fw, completion.Body)
	switch {
	case errors.Is(err, context.Canceled):
		log.Printf("[relay] client went away req=%s after %d bytes", reqID, n)
	case err != nil:
		log.Printf("[relay] stream aborted req=%s after %d bytes: %v", reqID, n, err)
	default:
		log.Printf("[relay] completed req=%s bytes=%d", reqID, n)
	}
}

// fail 记录错误并写出统一的错误响应
func (h *Handler) fail(w http.ResponseWriter, reqID string, err error) {
	status, envelope := classifyError(err)
	log.Printf("[relay] request failed req=%s status=%d: %v", reqID, status, err)
	utils.RespondError(w, status, envelope)
}
