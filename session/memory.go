package session

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/alfred/core/protocol"
)

type memorySession struct {
	id             string
	conversationID string
	messages       []protocol.Message
	mu             sync.RWMutex
}

// New creates a Session backed by an in-memory slice. The conversation is
// assigned a unique UUIDv7 identifier; id is the caller's session identifier.
func New(id string) Session {
	return &memorySession{
		id:             id,
		conversationID: uuid.Must(uuid.NewV7()).String(),
	}
}

func (s *memorySession) ID() string {
	return s.id
}

func (s *memorySession) ConversationID() string {
	return s.conversationID
}

func (s *memorySession) Append(msgs ...protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

func (s *memorySession) Messages() []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]protocol.Message, len(s.messages))
	for i, msg := range s.messages {
		if am, ok := msg.(protocol.AssistantMessage); ok {
			am.ToolCalls = slices.Clone(am.ToolCalls)
			msg = am
		}
		copied[i] = msg
	}
	return copied
}

func (s *memorySession) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
