package chat

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/deepseek-chat/internal/model/chat"
)

var (
	ErrEmptyContent  = errors.New("message content is empty")
	ErrEntryNotFound = errors.New("transcript entry not found")
	ErrNotPending    = errors.New("transcript entry is not pending")
)

// Service encapsulates the client-side transcript. Nothing is persisted.
type Service struct {
	mu      sync.RWMutex
	entries []chat.Entry
}

// NewService returns an empty transcript.
func NewService() *Service {
	return &Service{entries: make([]chat.Entry, 0, 16)}
}

// AppendUser optimistically records a user turn before it is sent.
func (s *Service) AppendUser(content string) (chat.Entry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return chat.Entry{}, ErrEmptyContent
	}
	return s.append(chat.Entry{Role: chat.RoleUser, Content: content}), nil
}

// BeginAssistant opens an empty pending assistant turn for streamed deltas.
func (s *Service) BeginAssistant() chat.Entry {
	return s.append(chat.Entry{Role: chat.RoleAssistant, Pending: true})
}

func (s *Service) append(entry chat.Entry) chat.Entry {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	return entry
}

// AppendDelta extends a pending entry with the next streamed chunk.
func (s *Service) AppendDelta(id, delta string) (chat.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return chat.Entry{}, ErrEntryNotFound
	}
	if !s.entries[idx].Pending {
		return chat.Entry{}, ErrNotPending
	}
	s.entries[idx].Content += delta
	return s.entries[idx], nil
}

// Complete marks a pending entry as finished. An entry that never received
// content is dropped and reported as not kept.
func (s *Service) Complete(id string) (chat.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return chat.Entry{}, false, ErrEntryNotFound
	}
	entry := s.entries[idx]
	if !entry.Pending {
		return chat.Entry{}, false, ErrNotPending
	}

	if entry.Content == "" {
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		return entry, false, nil
	}

	entry.Pending = false
	s.entries[idx] = entry
	return entry, true, nil
}

// Messages returns the completed turns in order, ready to submit to the relay.
func (s *Service) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]chat.Message, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.Pending {
			continue
		}
		messages = append(messages, entry.Message())
	}
	return messages
}

// Entries returns a copy of the transcript.
func (s *Service) Entries() []chat.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Entry, len(s.entries))
	copy(copied, s.entries)
	return copied
}

// Assistant returns the n-th completed assistant turn counted from the most
// recent (n=1 is the latest).
func (s *Service) Assistant(n int) (chat.Entry, bool) {
	if n < 1 {
		return chat.Entry{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if entry.Role != chat.RoleAssistant || entry.Pending {
			continue
		}
		seen++
		if seen == n {
			return entry, true
		}
	}
	return chat.Entry{}, false
}

// Reset clears the transcript.
func (s *Service) Reset() {
	s.mu.Lock()
	s.entries = s.entries[:0]
	s.mu.Unlock()
}

func (s *Service) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
