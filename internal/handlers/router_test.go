package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/local-legends/internal/dialogue"
	"github.com/jwebster45206/local-legends/internal/services"
	internalstorage "github.com/jwebster45206/local-legends/internal/storage"
	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/state"
	"github.com/jwebster45206/local-legends/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testRoster() []chat.NPCInfo {
	return []chat.NPCInfo{
		{Name: "Tyler", Image: "pacific_beach.png", Neighborhood: "Pacific Beach", Position: &chat.GridPosition{X: 22, Y: 30},
			Description: strings.Repeat("surf ", 60)},
		{Name: "Maria", Image: "little_italy.png", Position: &chat.GridPosition{X: 48, Y: 58}},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *storage.MockStorage, *services.MockResponder) {
	t.Helper()
	store := storage.NewMockStorage()
	store.SetNPCs(testRoster())
	responder := services.NewMockResponder()
	return NewRouter(store, responder, testLogger()), store, responder
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h, store, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, rec).Status)

	store.SetPingError(errors.New("connection refused"))
	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["storage"])
}

func TestListNPCs(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/npcs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[chat.NPCListResponse](t, rec)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.NPCs, 2)
	assert.Equal(t, "Tyler", resp.NPCs[0].Name)
	assert.Len(t, []rune(resp.NPCs[0].Description), MaxDescriptionLength+3)
	assert.True(t, strings.HasSuffix(resp.NPCs[0].Description, "..."))
	assert.Equal(t, 58, resp.NPCs[1].Position.Y)
}

func TestSessionInit(t *testing.T) {
	h, store, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/session/init?session_id=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[chat.SessionInitResponse](t, rec)
	assert.Equal(t, "abc", first.SessionID)

	sess, err := store.LoadSession(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, sess)

	rec = do(t, h, http.MethodPost, "/api/session/init?session_id=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[chat.SessionInitResponse](t, rec)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "existing sessions are reused")

	rec = do(t, h, http.MethodPost, "/api/session/init", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[chat.SessionInitResponse](t, rec).SessionID)

	store.SetSaveError(errors.New("disk full"))
	rec = do(t, h, http.MethodPost, "/api/session/init?session_id=xyz", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConversations(t *testing.T) {
	h, store, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/session/missing/conversations", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode[chat.ErrorResponse](t, rec).Error)

	sess := state.NewSession("s1", time.Now())
	sess.AddExchange("Tyler",
		chat.ChatMessage{Role: chat.ChatRoleUser, Content: "hi"},
		chat.ChatMessage{Role: chat.ChatRoleAgent, Content: "yo"})
	require.NoError(t, store.SaveSession(context.Background(), sess))

	rec = do(t, h, http.MethodGet, "/api/session/s1/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[chat.ConversationsResponse](t, rec)
	assert.Equal(t, 1, resp.TotalNPCsTalkedTo)
	require.Len(t, resp.Conversations["Tyler"], 2)
}

func TestInteract(t *testing.T) {
	setup := func(t *testing.T) (http.Handler, *storage.MockStorage, *services.MockResponder) {
		h, store, responder := newTestRouter(t)
		require.NoError(t, store.SaveSession(context.Background(), state.NewSession("s1", time.Now())))
		return h, store, responder
	}

	t.Run("records the exchange", func(t *testing.T) {
		h, store, responder := setup(t)
		responder.RespondFunc = func(ctx context.Context, npc chat.NPCInfo, message string, history []chat.ChatMessage) (*chat.NPCResponse, error) {
			return &chat.NPCResponse{Text: "Hey!", Options: []string{"Cool", "Bye", "Later", "Extra"}}, nil
		}

		rec := do(t, h, http.MethodPost, "/api/npc/tyler/interact", `{"session_id":"s1","message":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[chat.InteractionResponse](t, rec)
		assert.Equal(t, "Tyler", resp.NPCName, "lookup ignores case and answers with the canonical name")
		assert.Equal(t, "Hey!", resp.Response.Text)
		assert.Len(t, resp.Response.Options, services.MaxOptions)

		sess, err := store.LoadSession(context.Background(), "s1")
		require.NoError(t, err)
		history := sess.History("Tyler")
		require.Len(t, history, 2)
		assert.Equal(t, "hi", history[0].Content)
		assert.Equal(t, chat.ChatRoleAgent, history[1].Role)

		calls := responder.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "Tyler", calls[0].NPC)
		assert.Empty(t, calls[0].History)
	})

	t.Run("passes recent history", func(t *testing.T) {
		h, store, responder := setup(t)
		sess, _ := store.LoadSession(context.Background(), "s1")
		for i := 0; i < 7; i++ {
			sess.AddExchange("Maria", chat.ChatMessage{Role: chat.ChatRoleUser, Content: "q"}, chat.ChatMessage{Role: chat.ChatRoleAgent, Content: "a"})
		}

		rec := do(t, h, http.MethodPost, "/api/npc/Maria/interact", `{"session_id":"s1","message":"again"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, responder.Calls()[0].History, chat.HistoryLimit)
	})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"bad json", "/api/npc/Tyler/interact", `{`, http.StatusBadRequest},
		{"empty message", "/api/npc/Tyler/interact", `{"session_id":"s1","message":"  "}`, http.StatusBadRequest},
		{"missing session id", "/api/npc/Tyler/interact", `{"message":"hi"}`, http.StatusBadRequest},
		{"unknown session", "/api/npc/Tyler/interact", `{"session_id":"nope","message":"hi"}`, http.StatusNotFound},
		{"unknown npc", "/api/npc/Nobody/interact", `{"session_id":"s1","message":"hi"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := setup(t)
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode[chat.ErrorResponse](t, rec).Error)
		})
	}

	t.Run("responder failure", func(t *testing.T) {
		h, store, responder := setup(t)
		responder.RespondFunc = func(ctx context.Context, npc chat.NPCInfo, message string, history []chat.ChatMessage) (*chat.NPCResponse, error) {
			return nil, errors.New("model unavailable")
		}
		rec := do(t, h, http.MethodPost, "/api/npc/Tyler/interact", `{"session_id":"s1","message":"hi"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		sess, _ := store.LoadSession(context.Background(), "s1")
		assert.Empty(t, sess.History("Tyler"), "nothing is recorded on failure")
	})
}

func TestMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := do(t, h, http.MethodDelete, "/api/npcs", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// End to end: the HTTP client against the router backed by Redis.
func TestRouter_WithClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	logger := testLogger()
	store, err := internalstorage.NewRedisStorage("redis://"+mr.Addr(), t.TempDir(), time.Hour, logger)
	require.NoError(t, err)
	responder, err := services.NewScriptedResponder(logger)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(store, responder, logger))
	t.Cleanup(srv.Close)

	client := dialogue.NewClient(srv.URL, 5*time.Second, logger)
	ctx := context.Background()

	require.True(t, client.Health(ctx))

	npcs, err := client.ListNPCs(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, npcs.NPCs)
	name := npcs.NPCs[0].Name

	_, err = client.InitSession(ctx, "e2e")
	require.NoError(t, err)

	reply, err := client.SendMessage(ctx, name, "e2e", "Tell me about yourself")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Response.Text)
	assert.Equal(t, chat.FreeTextOption, reply.Response.Options[len(reply.Response.Options)-1])

	convs, err := client.GetConversations(ctx, "e2e")
	require.NoError(t, err)
	assert.Len(t, convs.Conversations[name], 2)
	assert.Equal(t, 1, convs.TotalNPCsTalkedTo)

	_, err = client.GetConversations(ctx, "other")
	var statusErr *dialogue.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}
