package conversation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/local-legends/internal/dialogue"
	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/chat"
)

type memoryStore struct {
	id      string
	cleared int
}

func (s *memoryStore) Load() (string, error) { return s.id, nil }
func (s *memoryStore) Save(id string) error  { s.id = id; return nil }
func (s *memoryStore) Clear() error          { s.id = ""; s.cleared++; return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// run executes cmd and feeds its message back into the bridge.
func run(t *testing.T, b *Bridge, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	b.Update(cmd())
}

func newReadyBridge(t *testing.T, mock *dialogue.MockClient) *Bridge {
	t.Helper()
	b := NewBridge(mock, &memoryStore{}, time.Second, testLogger())
	run(t, b, b.Start(true))
	require.True(t, b.Ready())
	return b
}

func tyler() *actor.NPC {
	return &actor.NPC{ID: "Tyler", DisplayName: "Tyler", Neighborhood: "Pacific Beach"}
}

func openWith(t *testing.T, b *Bridge, npc *actor.NPC) {
	t.Helper()
	cmd := b.Open(npc)
	require.Equal(t, StateLoading, b.Status().State())
	run(t, b, cmd)
	require.Equal(t, StateOpen, b.Status().State())
}

func TestBridge_Start(t *testing.T) {
	t.Run("offline keeps a session but is not ready", func(t *testing.T) {
		mock := dialogue.NewMockClient()
		store := &memoryStore{}
		b := NewBridge(mock, store, 0, testLogger())

		assert.Nil(t, b.Start(false))
		assert.NotEmpty(t, b.SessionID())
		assert.Equal(t, b.SessionID(), store.id)
		assert.False(t, b.Ready())
		assert.Nil(t, b.Open(tyler()))
		assert.Equal(t, StateClosed, b.Status().State())
	})

	t.Run("reuses the stored session", func(t *testing.T) {
		mock := dialogue.NewMockClient()
		b := NewBridge(mock, &memoryStore{id: "saved-session"}, 0, testLogger())
		run(t, b, b.Start(true))

		assert.Equal(t, "saved-session", b.SessionID())
		inits, _, _ := mock.Calls()
		assert.Equal(t, []string{"saved-session"}, inits)
		assert.True(t, b.Ready())
	})

	t.Run("init failure leaves the bridge unready", func(t *testing.T) {
		mock := dialogue.NewMockClient()
		mock.InitSessionFunc = func(ctx context.Context, sessionID string) (*chat.SessionInitResponse, error) {
			return nil, errors.New("connection refused")
		}
		b := NewBridge(mock, nil, 0, testLogger())
		run(t, b, b.Start(true))
		assert.False(t, b.Ready())
	})

	t.Run("register retries a failed init", func(t *testing.T) {
		mock := dialogue.NewMockClient()
		fail := true
		mock.InitSessionFunc = func(ctx context.Context, sessionID string) (*chat.SessionInitResponse, error) {
			if fail {
				fail = false
				return nil, errors.New("connection refused")
			}
			return &chat.SessionInitResponse{SessionID: sessionID}, nil
		}
		b := NewBridge(mock, nil, 0, testLogger())
		run(t, b, b.Start(true))
		require.False(t, b.Ready())

		run(t, b, b.Register())
		assert.True(t, b.Ready())
		assert.Nil(t, b.Register(), "nothing to do once ready")

		inits, _, _ := mock.Calls()
		assert.Len(t, inits, 2)
	})

	t.Run("register waits for the backend", func(t *testing.T) {
		b := NewBridge(dialogue.NewMockClient(), nil, 0, testLogger())
		assert.Nil(t, b.Start(false))
		assert.Nil(t, b.Register())
	})

	t.Run("coming online registers the session", func(t *testing.T) {
		mock := dialogue.NewMockClient()
		b := NewBridge(mock, nil, 0, testLogger())
		assert.Nil(t, b.Start(false))
		run(t, b, b.SetOnline(true))
		assert.True(t, b.Ready())
		assert.Nil(t, b.SetOnline(true))
	})
}

func TestBridge_OpenWelcome(t *testing.T) {
	b := newReadyBridge(t, dialogue.NewMockClient())
	npc := tyler()

	openWith(t, b, npc)

	v := b.View()
	assert.Equal(t, "Tyler", v.NPCName)
	assert.True(t, v.InputEnabled)
	require.Len(t, v.Messages, 1)
	assert.Equal(t, chat.ChatRoleSystem, v.Messages[0].Role)
	assert.Contains(t, v.Messages[0].Content, "Pacific Beach")
	require.Len(t, v.Choices, 3)
	assert.Equal(t, chat.FreeTextOption, v.Choices[2])
	assert.True(t, b.InConversation())
}

func TestBridge_OpenWithHistory(t *testing.T) {
	mock := dialogue.NewMockClient()
	mock.GetConversationsFunc = func(ctx context.Context, sessionID string) (*chat.ConversationsResponse, error) {
		return &chat.ConversationsResponse{
			SessionID: sessionID,
			Conversations: map[string][]chat.ChatMessage{
				"tyler": {
					{Role: chat.ChatRoleUser, Content: "hi"},
					{Role: chat.ChatRoleAgent, Content: "Yo dude", Options: []string{"Surf's up?", chat.FreeTextOption}},
				},
			},
		}, nil
	}
	b := newReadyBridge(t, mock)

	openWith(t, b, tyler())

	v := b.View()
	require.Len(t, v.Messages, 2)
	assert.Equal(t, "Yo dude", v.Messages[1].Content)
	assert.Equal(t, []string{"Surf's up?", chat.FreeTextOption}, v.Choices)

	reply, ok := b.LastReply()
	assert.True(t, ok)
	assert.Equal(t, "Yo dude", reply)
}

func TestBridge_OpenFetchFails(t *testing.T) {
	mock := dialogue.NewMockClient()
	mock.GetConversationsFunc = func(ctx context.Context, sessionID string) (*chat.ConversationsResponse, error) {
		return nil, errors.New("timeout")
	}
	b := newReadyBridge(t, mock)

	openWith(t, b, tyler())

	v := b.View()
	require.Len(t, v.Messages, 1)
	assert.Contains(t, v.Messages[0].Content, "foggy")
	assert.NotEmpty(t, v.Choices)
	assert.True(t, v.InputEnabled)
}

func TestBridge_OpenGuards(t *testing.T) {
	b := newReadyBridge(t, dialogue.NewMockClient())

	assert.Nil(t, b.Open(nil))
	assert.Equal(t, StateClosed, b.Status().State())
	assert.Nil(t, b.Status().NPC())

	openWith(t, b, tyler())
	assert.Nil(t, b.Open(&actor.NPC{ID: "Maria"}), "one conversation at a time")
	assert.Equal(t, "Tyler", b.Status().NPC().ID)
}

func TestBridge_SendReply(t *testing.T) {
	mock := dialogue.NewMockClient()
	mock.SendMessageFunc = func(ctx context.Context, npcName, sessionID, message string) (*chat.InteractionResponse, error) {
		return &chat.InteractionResponse{
			NPCName:   npcName,
			SessionID: sessionID,
			Response:  chat.NPCResponse{Text: "Hey!", Options: []string{"Cool", "Bye"}},
		}, nil
	}
	b := newReadyBridge(t, mock)
	npc := tyler()
	openWith(t, b, npc)

	cmd := b.Send("  what's up  ")
	require.NotNil(t, cmd)
	assert.Equal(t, StateSending, b.Status().State())
	v := b.View()
	assert.False(t, v.InputEnabled)
	assert.Empty(t, v.Choices)
	assert.Equal(t, "what's up", v.Messages[len(v.Messages)-1].Content)
	assert.Nil(t, b.Send("again"), "no sends while one is in flight")

	run(t, b, cmd)

	assert.Equal(t, StateOpen, b.Status().State())
	v = b.View()
	assert.True(t, v.InputEnabled)
	require.Len(t, v.Messages, 3)
	last := v.Messages[2]
	assert.Equal(t, chat.ChatRoleAgent, last.Role)
	assert.Equal(t, "Hey!", last.Content)
	assert.Equal(t, []string{"Cool", "Bye"}, last.Options)
	assert.Equal(t, []string{"Cool", "Bye"}, v.Choices)
	assert.True(t, npc.Engaged)

	_, _, sends := mock.Calls()
	require.Len(t, sends, 1)
	assert.Equal(t, dialogue.SendMessageCall{NPCName: "Tyler", SessionID: b.SessionID(), Message: "what's up"}, sends[0])
}

func TestBridge_SendFails(t *testing.T) {
	mock := dialogue.NewMockClient()
	mock.SendMessageFunc = func(ctx context.Context, npcName, sessionID, message string) (*chat.InteractionResponse, error) {
		return nil, errors.New("network unreachable")
	}
	b := newReadyBridge(t, mock)
	npc := tyler()
	openWith(t, b, npc)

	run(t, b, b.Send("hello"))

	assert.Equal(t, StateOpen, b.Status().State())
	v := b.View()
	assert.True(t, v.InputEnabled)
	require.Len(t, v.Messages, 3)
	assert.Equal(t, chat.ChatRoleUser, v.Messages[1].Role)
	assert.Equal(t, "hello", v.Messages[1].Content)
	assert.Equal(t, chat.ChatRoleError, v.Messages[2].Role)
	assert.False(t, npc.Engaged)

	errs := 0
	for _, m := range v.Messages {
		if m.Role == chat.ChatRoleError {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}

func TestBridge_SelectChoice(t *testing.T) {
	mock := dialogue.NewMockClient()
	b := newReadyBridge(t, mock)
	openWith(t, b, tyler())

	assert.Nil(t, b.SelectChoice(-1))
	assert.Nil(t, b.SelectChoice(99))

	assert.Nil(t, b.SelectChoice(2), "free text choice only focuses the input")
	assert.True(t, b.View().FocusInput)
	assert.Equal(t, StateOpen, b.Status().State())

	cmd := b.SelectChoice(1)
	require.NotNil(t, cmd)
	assert.Equal(t, StateSending, b.Status().State())
	assert.False(t, b.View().FocusInput)
	run(t, b, cmd)

	_, _, sends := mock.Calls()
	require.Len(t, sends, 1)
	assert.Equal(t, "Tell me about yourself", sends[0].Message)
}

func TestBridge_CloseMakesLateRepliesInert(t *testing.T) {
	mock := dialogue.NewMockClient()
	b := newReadyBridge(t, mock)
	var engaged []string
	b.OnEngaged(func(id string) { engaged = append(engaged, id) })
	npc := tyler()
	openWith(t, b, npc)

	cmd := b.Send("hello")
	b.Close()
	assert.Equal(t, StateClosed, b.Status().State())
	assert.Nil(t, b.Status().NPC())
	assert.Empty(t, b.View().Choices)

	run(t, b, cmd)
	assert.Equal(t, StateClosed, b.Status().State())
	assert.Empty(t, b.View().Messages)
	assert.True(t, npc.Engaged, "the exchange still happened")
	assert.Equal(t, []string{"Tyler"}, engaged)

	// the dropped reply invalidates the cached history, so reopening refetches
	openWith(t, b, npc)
	_, fetches, _ := mock.Calls()
	assert.Len(t, fetches, 2)
}

func TestBridge_StaleReplyAfterReopen(t *testing.T) {
	b := newReadyBridge(t, dialogue.NewMockClient())
	npc := tyler()
	openWith(t, b, npc)

	stale := b.Send("first")
	b.Close()
	openWith(t, b, npc)
	before := b.View()

	run(t, b, stale)

	assert.Equal(t, StateOpen, b.Status().State())
	assert.Equal(t, before.Messages, b.View().Messages)
}

func TestBridge_StaleHistoryIgnored(t *testing.T) {
	b := newReadyBridge(t, dialogue.NewMockClient())
	cmd := b.Open(tyler())
	b.Close()

	run(t, b, cmd)
	assert.Equal(t, StateClosed, b.Status().State())
	assert.Empty(t, b.View().Messages)
}

func TestBridge_ReadThroughCache(t *testing.T) {
	mock := dialogue.NewMockClient()
	b := newReadyBridge(t, mock)
	npc := tyler()

	openWith(t, b, npc)
	run(t, b, b.Send("hello"))
	b.Close()

	openWith(t, b, npc)
	_, fetches, _ := mock.Calls()
	assert.Len(t, fetches, 1, "second open is served from cache")

	v := b.View()
	require.Len(t, v.Messages, 2)
	assert.Equal(t, "hello", v.Messages[0].Content)
	assert.Equal(t, "Hello!", v.Messages[1].Content)
}

func TestBridge_ResetSession(t *testing.T) {
	mock := dialogue.NewMockClient()
	store := &memoryStore{}
	b := NewBridge(mock, store, time.Second, testLogger())
	run(t, b, b.Start(true))
	npc := tyler()
	openWith(t, b, npc)
	run(t, b, b.Send("hello"))
	require.True(t, npc.Engaged)

	old := b.SessionID()
	pending := b.Send("still there?")

	cmd := b.ResetSession()
	assert.Equal(t, StateClosed, b.Status().State())
	assert.NotEqual(t, old, b.SessionID())
	assert.Equal(t, b.SessionID(), store.id)
	assert.Equal(t, 1, store.cleared)
	assert.False(t, b.Ready(), "not ready until the new session is registered")

	run(t, b, cmd)
	assert.True(t, b.Ready())
	assert.True(t, npc.Engaged, "engaged flags survive a reset")

	npc.Engaged = false
	run(t, b, pending)
	assert.False(t, npc.Engaged, "replies from the old session are ignored")

	openWith(t, b, npc)
	_, fetches, _ := mock.Calls()
	assert.Len(t, fetches, 2, "cache was dropped")
	assert.Equal(t, b.SessionID(), fetches[1])
}

func TestBridge_ResetOffline(t *testing.T) {
	b := NewBridge(dialogue.NewMockClient(), nil, 0, testLogger())
	assert.Nil(t, b.Start(false))
	old := b.SessionID()

	assert.Nil(t, b.ResetSession())
	assert.NotEqual(t, old, b.SessionID())
}

func TestStatus(t *testing.T) {
	var s Status
	assert.True(t, s.Closed())
	assert.Nil(t, s.NPC())

	assert.True(t, activeStatus(StateOpen, nil).Closed())
	assert.True(t, activeStatus(StateClosed, tyler()).Closed())
	assert.Equal(t, StateSending, activeStatus(StateSending, tyler()).State())
	assert.Equal(t, "sending", StateSending.String())
}
