package chat

import "strings"

// Role 标识消息的发送方。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles the upstream accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single transcript turn as exchanged with the relay and the upstream.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Blank 判断消息内容去除空白后是否为空。
func (m Message) Blank() bool {
	return strings.TrimSpace(m.Content) == ""
}

// Request is the inbound relay payload.
type Request struct {
	Messages []Message `json:"messages"`
}
