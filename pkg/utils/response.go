package utils

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrorEnvelope 统一的错误响应体。
type ErrorEnvelope struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// NewErrorEnvelope stamps an envelope with the current time.
func NewErrorEnvelope(code, message, details string) ErrorEnvelope {
	return ErrorEnvelope{
		Code:      code,
		Error:     message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(TimestampLayout),
	}
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, envelope ErrorEnvelope) {
	RespondJSON(w, status, envelope)
}
