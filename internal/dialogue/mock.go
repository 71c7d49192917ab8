package dialogue

import (
	"context"
	"sync"
	"time"

	"github.com/jwebster45206/local-legends/pkg/chat"
)

// MockClient is an in-memory stand-in for Client. Unset funcs return canned successes.
type MockClient struct {
	HealthFunc           func(ctx context.Context) bool
	ListNPCsFunc         func(ctx context.Context) (*chat.NPCListResponse, error)
	InitSessionFunc      func(ctx context.Context, sessionID string) (*chat.SessionInitResponse, error)
	GetConversationsFunc func(ctx context.Context, sessionID string) (*chat.ConversationsResponse, error)
	SendMessageFunc      func(ctx context.Context, npcName, sessionID, message string) (*chat.InteractionResponse, error)

	// Track calls for testing
	InitSessionCalls      []string
	GetConversationsCalls []string
	SendMessageCalls      []SendMessageCall

	mu sync.Mutex // protects all fields above
}

type SendMessageCall struct {
	NPCName   string
	SessionID string
	Message   string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Health(ctx context.Context) bool {
	m.mu.Lock()
	fn := m.HealthFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return true
}

func (m *MockClient) ListNPCs(ctx context.Context) (*chat.NPCListResponse, error) {
	m.mu.Lock()
	fn := m.ListNPCsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return &chat.NPCListResponse{}, nil
}

func (m *MockClient) InitSession(ctx context.Context, sessionID string) (*chat.SessionInitResponse, error) {
	m.mu.Lock()
	m.InitSessionCalls = append(m.InitSessionCalls, sessionID)
	fn := m.InitSessionFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	now := time.Now()
	return &chat.SessionInitResponse{SessionID: sessionID, CreatedAt: now, LastActive: now, Message: "Session initialized"}, nil
}

func (m *MockClient) GetConversations(ctx context.Context, sessionID string) (*chat.ConversationsResponse, error) {
	m.mu.Lock()
	m.GetConversationsCalls = append(m.GetConversationsCalls, sessionID)
	fn := m.GetConversationsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	return &chat.ConversationsResponse{SessionID: sessionID, Conversations: map[string][]chat.ChatMessage{}}, nil
}

func (m *MockClient) SendMessage(ctx context.Context, npcName, sessionID, message string) (*chat.InteractionResponse, error) {
	m.mu.Lock()
	m.SendMessageCalls = append(m.SendMessageCalls, SendMessageCall{NPCName: npcName, SessionID: sessionID, Message: message})
	fn := m.SendMessageFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, npcName, sessionID, message)
	}
	return &chat.InteractionResponse{
		NPCName:   npcName,
		SessionID: sessionID,
		Response:  chat.NPCResponse{Text: "Hello!", Options: []string{"Hi", chat.FreeTextOption}},
	}, nil
}

// Calls returns copies of the recorded calls.
func (m *MockClient) Calls() (inits, fetches []string, sends []SendMessageCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.InitSessionCalls...),
		append([]string(nil), m.GetConversationsCalls...),
		append([]SendMessageCall(nil), m.SendMessageCalls...)
}
