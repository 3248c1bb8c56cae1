package chat

import "time"

// Entry is a transcript turn held in client memory. ID is only a rendering key.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Pending   bool      `json:"pending,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message strips the client-side bookkeeping.
func (e Entry) Message() Message {
	return Message{Role: e.Role, Content: e.Content}
}
