package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/local-legends/pkg/chat"
)

// MockResponder is a mock implementation of Responder for testing
type MockResponder struct {
	RespondFunc func(ctx context.Context, npc chat.NPCInfo, message string, history []chat.ChatMessage) (*chat.NPCResponse, error)

	// Track calls for testing
	RespondCalls []RespondCall

	mu sync.Mutex // protects all fields above
}

type RespondCall struct {
	NPC     string
	Message string
	History []chat.ChatMessage
}

var _ Responder = (*MockResponder)(nil)

func NewMockResponder() *MockResponder {
	return &MockResponder{RespondCalls: make([]RespondCall, 0)}
}

func (m *MockResponder) Respond(ctx context.Context, npc chat.NPCInfo, message string, history []chat.ChatMessage) (*chat.NPCResponse, error) {
	m.mu.Lock()
	m.RespondCalls = append(m.RespondCalls, RespondCall{NPC: npc.Name, Message: message, History: history})
	fn := m.RespondFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, npc, message, history)
	}

	// Default behavior - fixed reply
	return &chat.NPCResponse{Text: "Mock response", Options: []string{"Okay", chat.FreeTextOption}}, nil
}

// Calls returns a copy of the recorded calls
func (m *MockResponder) Calls() []RespondCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RespondCall(nil), m.RespondCalls...)
}
