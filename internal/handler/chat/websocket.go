package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/deepseek-chat/internal/handler/stream"
	"github.com/zhouzirui/deepseek-chat/internal/model/chat"
)

// 控制帧类型。上游字节以二进制帧原样下发。
const (
	FrameDone  = "done"
	FrameError = "error"
)

// WebSocketHandler WebSocket中继处理器
type WebSocketHandler struct {
	relay        Relayer
	maxBodyBytes int64
	upgrader     websocket.Upgrader
}

func newWebSocketHandler(relay Relayer, maxBodyBytes int64) *WebSocketHandler {
	return &WebSocketHandler{
		relay:        relay,
		maxBodyBytes: maxBodyBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// ControlFrame is the JSON text frame that ends a turn.
type ControlFrame struct {
	Type      string      `json:"type"`
	Status    int         `json:"status,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type binaryWriter struct {
	conn *websocket.Conn
}

// WriteChunk implements stream.ChunkWriter.
func (b binaryWriter) WriteChunk(p []byte) error {
	return b.conn.WriteMessage(websocket.BinaryMessage, p)
}

// handleWebSocket 处理WebSocket连接，每条文本消息是一轮完整对话
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.maxBodyBytes)

	connID := uuid.NewString()
	log.Printf("[ws] connection opened conn=%s remote=%s", connID, r.RemoteAddr)

	// The reader goroutine owns conn reads; when the peer goes away it cancels
	// ctx, which aborts any upstream call in flight.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	turns := make(chan []byte)
	go func() {
		defer cancel()
		defer close(turns)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("[ws] read failed conn=%s: %v", connID, err)
				}
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			select {
			case turns <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for data := range turns {
		if err := h.serveTurn(ctx, conn, connID, data); err != nil {
			log.Printf("[ws] closing conn=%s: %v", connID, err)
			return
		}
	}
	log.Printf("[ws] connection closed conn=%s", connID)
}

// serveTurn relays one transcript. A returned error means the connection is unusable.
func (h *WebSocketHandler) serveTurn(ctx context.Context, conn *websocket.Conn, connID string, data []byte) error {
	var payload chat.Request
	if err := json.Unmarshal(data, &payload); err != nil {
		return h.sendError(conn, connID, &decodeError{err: err})
	}

	completion, err := h.relay.Stream(ctx, payload.Messages)
	if err != nil {
		return h.sendError(conn, connID, err)
	}
	defer completion.Body.Close()

	n, err := stream.Relay(ctx, binaryWriter{conn: conn}, completion.Body)
	if errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) || errors.Is(err, websocket.ErrCloseSent) {
			return err
		}
		return h.sendError(conn, connID, err)
	}

	log.Printf("[ws] turn completed conn=%s bytes=%d", connID, n)
	return conn.WriteJSON(ControlFrame{Type: FrameDone, Timestamp: time.Now().UnixMilli()})
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, connID string, err error) error {
	status, envelope := classifyError(err)
	log.Printf("[ws] turn failed conn=%s status=%d: %v", connID, status, err)
	return conn.WriteJSON(ControlFrame{
		Type:      FrameError,
		Status:    status,
		Data:      envelope,
		Timestamp: time.Now().UnixMilli(),
	})
}
