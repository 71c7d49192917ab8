package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/local-legends/internal/logger"
	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/chat"
)

// DefaultTimeout bounds every request the bridge makes.
const DefaultTimeout = 30 * time.Second

// Backend is the dialogue service.
type Backend interface {
	InitSession(ctx context.Context, sessionID string) (*chat.SessionInitResponse, error)
	GetConversations(ctx context.Context, sessionID string) (*chat.ConversationsResponse, error)
	SendMessage(ctx context.Context, npcName, sessionID, message string) (*chat.InteractionResponse, error)
}

// SessionStore persists the session identifier between runs.
type SessionStore interface {
	Load() (string, error)
	Save(id string) error
	Clear() error
}

// token captures the state a request was issued under.
type token struct {
	gen     uint64
	session string
	npc     *actor.NPC
}

// SessionReadyMsg reports the result of registering a session with the backend.
type SessionReadyMsg struct {
	token     token
	SessionID string
	Err       error
}

// HistoryLoadedMsg carries an NPC's conversation history.
type HistoryLoadedMsg struct {
	token   token
	History []chat.ChatMessage
	All     map[string][]chat.ChatMessage
	Cached  bool
	Err     error
}

// ReplyMsg carries the NPC's answer to a sent message.
type ReplyMsg struct {
	token token
	Reply *chat.NPCResponse
	Err   error
}

// Bridge is the conversation state machine. It is driven from the bubbletea Update
// loop and must not be shared across goroutines.
type Bridge struct {
	backend Backend
	store   SessionStore
	logger  *slog.Logger
	timeout time.Duration

	online      bool
	sessionID   string
	initialized bool

	status     Status
	gen        uint64
	messages   []chat.ChatMessage
	choices    []string
	focusInput bool

	// history per NPC as last seen from the backend, keyed by lower-cased NPC ID
	cache map[string][]chat.ChatMessage

	onEngaged func(npcID string)
}

// NewBridge creates a closed bridge. store may be nil, in which case the session
// identifier lives only in memory.
func NewBridge(backend Backend, store SessionStore, timeout time.Duration, logger *slog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{
		backend: backend,
		store:   store,
		logger:  logger,
		timeout: timeout,
		cache:   make(map[string][]chat.ChatMessage),
	}
}

// Start loads or creates the session identifier and, when the backend is reachable,
// registers it.
func (b *Bridge) Start(online bool) tea.Cmd {
	b.online = online
	if b.sessionID == "" {
		b.sessionID = b.loadSessionID()
	}
	if !online {
		return nil
	}
	return b.initCmd()
}

// SetOnline records backend reachability. Going online with an unregistered session
// registers it.
func (b *Bridge) SetOnline(online bool) tea.Cmd {
	was := b.online
	b.online = online
	if online && !was {
		return b.Register()
	}
	return nil
}

// Register registers the session with the backend again after a failed attempt. It
// does nothing while offline or once the session is ready.
func (b *Bridge) Register() tea.Cmd {
	if !b.online || b.initialized || b.sessionID == "" {
		return nil
	}
	return b.initCmd()
}

// OnEngaged is called with an NPC's ID whenever the backend records an exchange with
// it. The NPC pointer the bridge holds may belong to a roster that has been replaced.
func (b *Bridge) OnEngaged(fn func(npcID string)) {
	b.onEngaged = fn
}

func (b *Bridge) markEngaged(npc *actor.NPC) {
	npc.Engaged = true
	if b.onEngaged != nil {
		b.onEngaged(npc.ID)
	}
}

func (b *Bridge) loadSessionID() string {
	if b.store != nil {
		id, err := b.store.Load()
		if err != nil {
			b.logger.Warn("Failed to load session id", "error", err)
		} else if id != "" {
			return id
		}
	}
	id := uuid.New().String()
	b.saveSessionID(id)
	return id
}

func (b *Bridge) saveSessionID(id string) {
	if b.store == nil {
		return
	}
	if err := b.store.Save(id); err != nil {
		b.logger.Warn("Failed to save session id", "error", err)
	}
}

func (b *Bridge) initCmd() tea.Cmd {
	tok := b.token()
	backend, timeout := b.backend, b.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := backend.InitSession(ctx, tok.session)
		if err != nil {
			return SessionReadyMsg{token: tok, Err: err}
		}
		return SessionReadyMsg{token: tok, SessionID: resp.SessionID}
	}
}

func (b *Bridge) token() token {
	return token{gen: b.gen, session: b.sessionID, npc: b.status.npc}
}

func (b *Bridge) current(t token) bool {
	return t.gen == b.gen && t.session == b.sessionID && t.npc == b.status.npc
}

// Ready reports whether a conversation can be opened.
func (b *Bridge) Ready() bool {
	return b.online && b.initialized && b.sessionID != ""
}

// InConversation reports whether the overlay owns input.
func (b *Bridge) InConversation() bool {
	return !b.status.Closed()
}

func (b *Bridge) Status() Status {
	return b.status
}

func (b *Bridge) SessionID() string {
	return b.sessionID
}

// Open starts a conversation with npc. The overlay shows a loading state until the
// history arrives. Opening while another conversation is active does nothing.
func (b *Bridge) Open(npc *actor.NPC) tea.Cmd {
	if npc == nil || !b.status.Closed() || !b.Ready() {
		return nil
	}

	b.gen++
	b.status = activeStatus(StateLoading, npc)
	b.messages = nil
	b.choices = nil
	b.focusInput = false
	b.logger.Debug("Opening conversation", "npc", npc.ID, "session_id", b.sessionID)

	tok := b.token()
	if cached, ok := b.cache[cacheKey(npc.ID)]; ok {
		history := append([]chat.ChatMessage(nil), cached...)
		return func() tea.Msg {
			return HistoryLoadedMsg{token: tok, History: history, Cached: true}
		}
	}

	backend, timeout := b.backend, b.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := backend.GetConversations(ctx, tok.session)
		if err != nil {
			return HistoryLoadedMsg{token: tok, Err: err}
		}
		return HistoryLoadedMsg{
			token:   tok,
			History: lookup(resp.Conversations, tok.npc.ID),
			All:     resp.Conversations,
		}
	}
}

// Send appends text to the transcript immediately and sends it. Only valid while Open.
func (b *Bridge) Send(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" || b.status.state != StateOpen {
		return nil
	}

	npc := b.status.npc
	b.messages = append(b.messages, chat.ChatMessage{
		Role:      chat.ChatRoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	b.status = activeStatus(StateSending, npc)
	b.choices = nil
	b.focusInput = false

	tok := b.token()
	backend, timeout := b.backend, b.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := backend.SendMessage(ctx, tok.npc.ID, tok.session, text)
		if err != nil {
			return ReplyMsg{token: tok, Err: err}
		}
		return ReplyMsg{token: tok, Reply: &resp.Response}
	}
}

// SelectChoice sends the i-th offered choice. The free-text choice focuses the input
// instead.
func (b *Bridge) SelectChoice(i int) tea.Cmd {
	if b.status.state != StateOpen || i < 0 || i >= len(b.choices) {
		return nil
	}
	choice := b.choices[i]
	if choice == chat.FreeTextOption {
		b.focusInput = true
		return nil
	}
	return b.Send(choice)
}

// Close hides the overlay. A request still in flight completes, but its result no
// longer touches the overlay.
func (b *Bridge) Close() {
	if b.status.Closed() {
		return
	}
	b.logger.Debug("Closing conversation", "npc", b.status.npc.ID, "state", b.status.state.String())
	b.gen++
	b.status = closedStatus()
	b.messages = nil
	b.choices = nil
	b.focusInput = false
}

// ResetSession abandons the current session and starts a new one. Cached history goes
// with it; engaged flags on NPCs are left alone.
func (b *Bridge) ResetSession() tea.Cmd {
	b.Close()
	b.gen++
	old := b.sessionID
	if b.store != nil {
		if err := b.store.Clear(); err != nil {
			b.logger.Warn("Failed to clear session id", "error", err)
		}
	}
	b.cache = make(map[string][]chat.ChatMessage)
	b.initialized = false
	b.sessionID = uuid.New().String()
	b.saveSessionID(b.sessionID)
	b.logger.Info("Session reset", "old_session_id", old, "session_id", b.sessionID)

	if !b.online {
		return nil
	}
	return b.initCmd()
}

// Update applies a completed request. Messages the bridge does not own are ignored.
func (b *Bridge) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case SessionReadyMsg:
		b.handleSessionReady(msg)
	case HistoryLoadedMsg:
		b.handleHistory(msg)
	case ReplyMsg:
		b.handleReply(msg)
	}
	return nil
}

func (b *Bridge) handleSessionReady(msg SessionReadyMsg) {
	if msg.token.session != b.sessionID {
		return
	}
	if msg.Err != nil {
		logger.WithError(b.logger, msg.Err).Error("Failed to initialize session", "session_id", msg.token.session)
		return
	}
	if msg.SessionID != "" && msg.SessionID != b.sessionID {
		b.logger.Warn("Backend assigned a different session id", "requested", b.sessionID, "assigned", msg.SessionID)
		b.sessionID = msg.SessionID
		b.saveSessionID(msg.SessionID)
	}
	b.initialized = true
	b.logger.Info("Session ready", "session_id", b.sessionID)
}

func (b *Bridge) handleHistory(msg HistoryLoadedMsg) {
	if msg.Err == nil && msg.All != nil && msg.token.session == b.sessionID {
		for name, history := range msg.All {
			b.cache[cacheKey(name)] = append([]chat.ChatMessage(nil), history...)
		}
		if key := cacheKey(msg.token.npc.ID); b.cache[key] == nil {
			b.cache[key] = []chat.ChatMessage{}
		}
	}
	if !b.current(msg.token) || b.status.state != StateLoading {
		return
	}

	npc := b.status.npc
	b.status = activeStatus(StateOpen, npc)

	if msg.Err != nil {
		logger.WithError(b.logger, msg.Err).Error("Failed to load conversation history", "npc", npc.ID)
		b.messages = []chat.ChatMessage{degradedWelcome(npc)}
		b.choices = starterChoices(npc)
		return
	}

	if len(msg.History) == 0 {
		b.messages = []chat.ChatMessage{welcome(npc)}
		b.choices = starterChoices(npc)
		return
	}
	b.messages = append([]chat.ChatMessage(nil), msg.History...)
	b.choices = lastOptions(b.messages)
}

func (b *Bridge) handleReply(msg ReplyMsg) {
	npc := msg.token.npc
	if !b.current(msg.token) || b.status.state != StateSending {
		if msg.Err == nil && msg.token.session == b.sessionID {
			// The backend recorded the exchange even though nobody is looking.
			b.markEngaged(npc)
			delete(b.cache, cacheKey(npc.ID))
			b.logger.Debug("Late reply dropped", "npc", npc.ID)
		}
		return
	}

	b.status = activeStatus(StateOpen, npc)

	if msg.Err != nil {
		logger.WithError(b.logger, msg.Err).Error("Failed to send message", "npc", npc.ID)
		b.messages = append(b.messages, chat.ChatMessage{
			Role:      chat.ChatRoleError,
			Content:   fmt.Sprintf("%s didn't catch that. Try again in a moment.", npc.Name()),
			Timestamp: time.Now(),
		})
		b.choices = lastOptions(b.messages)
		return
	}

	reply := chat.ChatMessage{
		Role:      chat.ChatRoleAgent,
		Content:   msg.Reply.Text,
		Options:   append([]string(nil), msg.Reply.Options...),
		Timestamp: time.Now(),
	}
	user := b.messages[len(b.messages)-1]
	b.messages = append(b.messages, reply)
	b.choices = reply.Options
	b.markEngaged(npc)

	key := cacheKey(npc.ID)
	if cached, ok := b.cache[key]; ok {
		b.cache[key] = append(cached, user, reply)
	}
}

// LastReply is the newest NPC line in the open conversation.
func (b *Bridge) LastReply() (string, bool) {
	for i := len(b.messages) - 1; i >= 0; i-- {
		if b.messages[i].Role == chat.ChatRoleAgent {
			return b.messages[i].Content, true
		}
	}
	return "", false
}

func cacheKey(npcID string) string {
	return strings.ToLower(npcID)
}

// lookup finds an NPC's history; the backend matches names without regard to case.
func lookup(conversations map[string][]chat.ChatMessage, npcID string) []chat.ChatMessage {
	if h, ok := conversations[npcID]; ok {
		return h
	}
	for name, h := range conversations {
		if strings.EqualFold(name, npcID) {
			return h
		}
	}
	return nil
}

func lastOptions(messages []chat.ChatMessage) []string {
	for i := len(messages) - 1; i >= 0; i-- {
		switch messages[i].Role {
		case chat.ChatRoleAgent:
			return messages[i].Options
		case chat.ChatRoleUser:
			return nil
		}
	}
	return nil
}
