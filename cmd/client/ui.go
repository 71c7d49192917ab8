package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/local-legends/internal/config"
	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/conversation"
	"github.com/jwebster45206/local-legends/pkg/engine"
	"github.com/jwebster45206/local-legends/pkg/roster"
	"github.com/jwebster45206/local-legends/pkg/world"
)

const (
	PlaceHolderText = "Say something..."

	// healthRetry is how often an offline client checks whether the backend is back,
	// and how long an online client waits before retrying a failed session init or
	// roster load.
	healthRetry = 10 * time.Second

	noticeDuration = 4 * time.Second
)

// Backend is everything the client asks of the dialogue service.
type Backend interface {
	conversation.Backend
	Health(ctx context.Context) bool
	ListNPCs(ctx context.Context) (*chat.NPCListResponse, error)
}

// movementKeys binds terminal keys to movement controls. Shifted keys also boost.
var movementKeys = map[string][]engine.Key{
	"up":          {engine.KeyUp},
	"w":           {engine.KeyUp},
	"down":        {engine.KeyDown},
	"s":           {engine.KeyDown},
	"left":        {engine.KeyLeft},
	"a":           {engine.KeyLeft},
	"right":       {engine.KeyRight},
	"d":           {engine.KeyRight},
	"shift+up":    {engine.KeyUp, engine.KeyBoost},
	"W":           {engine.KeyUp, engine.KeyBoost},
	"shift+down":  {engine.KeyDown, engine.KeyBoost},
	"S":           {engine.KeyDown, engine.KeyBoost},
	"shift+left":  {engine.KeyLeft, engine.KeyBoost},
	"A":           {engine.KeyLeft, engine.KeyBoost},
	"shift+right": {engine.KeyRight, engine.KeyBoost},
	"D":           {engine.KeyRight, engine.KeyBoost},
}

// WorldUI is the BubbleTea model that runs the client. It owns the Game and the
// Bridge; both are only touched from Update.
type WorldUI struct {
	config  *config.ClientConfig
	backend Backend
	game    *engine.Game
	bridge  *conversation.Bridge
	assets  *AssetManifest
	logger  *slog.Logger

	chatViewport viewport.Model
	textarea     textarea.Model
	chatCount    int

	ready             bool
	width             int
	height            int
	now               time.Time
	started           bool
	rosterFromBackend bool
	debug             bool
	notice            string
	noticeUntil       time.Time
	retryInterval     time.Duration

	// Quit confirmation state
	showQuitModal bool
}

type frameMsg time.Time

type healthMsg struct {
	online bool
}

type healthRetryMsg struct{}

type sessionRetryMsg struct{}

type rosterRetryMsg struct{}

type rosterMsg struct {
	infos []chat.NPCInfo
	err   error
}

type clipboardMsg struct {
	err error
}

func NewWorldUI(cfg *config.ClientConfig, backend Backend, game *engine.Game, bridge *conversation.Bridge, assets *AssetManifest, logger *slog.Logger) WorldUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	chatVp := viewport.New(50, 12)
	chatVp.MouseWheelEnabled = true

	bridge.OnEngaged(game.MarkEngaged)

	return WorldUI{
		config:        cfg,
		backend:       backend,
		game:          game,
		bridge:        bridge,
		assets:        assets,
		logger:        logger,
		chatViewport:  chatVp,
		textarea:      ta,
		chatCount:     -1,
		debug:         cfg.Debug,
		now:           time.Now(),
		retryInterval: healthRetry,
	}
}

func (m WorldUI) Init() tea.Cmd {
	return tea.Batch(m.checkHealth(), frameTick(m.config.FrameInterval()))
}

func (m WorldUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.now = time.Time(msg)
		if m.ready {
			m.game.Tick(m.now)
		}
		if m.notice != "" && m.now.After(m.noticeUntil) {
			m.notice = ""
		}
		m.syncChat()
		return m, frameTick(m.config.FrameInterval())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case healthMsg:
		cmd := m.handleHealth(msg.online)
		return m, cmd

	case healthRetryMsg:
		return m, m.checkHealth()

	case sessionRetryMsg:
		return m, m.bridge.Register()

	case rosterRetryMsg:
		if !m.game.Online || m.rosterFromBackend {
			return m, nil
		}
		return m, m.loadRoster()

	case rosterMsg:
		if msg.err != nil || len(msg.infos) == 0 {
			m.logger.Warn("Using built-in roster", "error", msg.err, "npcs", len(msg.infos))
			if !m.rosterFromBackend {
				m.useFallbackRoster()
			}
			m.setNotice("Couldn't load the neighborhood from the server, using the built-in roster")
			if msg.err != nil && m.game.Online {
				return m, m.retryAfter(rosterRetryMsg{})
			}
			return m, nil
		}
		m.applyRoster(msg.infos, true)
		return m, nil

	case conversation.SessionReadyMsg:
		cmd := m.bridge.Update(msg)
		if msg.Err != nil && !m.bridge.Ready() {
			cmd = tea.Batch(cmd, m.retryAfter(sessionRetryMsg{}))
		}
		return m, cmd

	case conversation.HistoryLoadedMsg, conversation.ReplyMsg:
		cmd := m.bridge.Update(msg)
		m.syncChat()
		return m, cmd

	case clipboardMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to copy reply", "error", msg.err)
			m.setNotice("Copy failed: " + msg.err.Error())
		} else {
			m.setNotice("Copied reply to clipboard")
		}
		return m, nil

	case tea.KeyMsg:
		if m.showQuitModal {
			return m.updateQuitModal(msg)
		}
		if msg.Type == tea.KeyCtrlC {
			m.showQuitModal = true
			return m, nil
		}
		if m.bridge.InConversation() {
			return m.updateChat(msg)
		}
		return m.updateWorld(msg)

	case tea.MouseMsg:
		if m.showQuitModal {
			return m, nil
		}
		if m.bridge.InConversation() {
			var cmd tea.Cmd
			m.chatViewport, cmd = m.chatViewport.Update(msg)
			return m, cmd
		}
		return m.handleClick(msg)
	}

	return m, nil
}

func (m WorldUI) updateWorld(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if keys, ok := movementKeys[key]; ok {
		now := time.Now()
		boost := false
		for _, k := range keys {
			m.game.Input.Press(k, now)
			boost = boost || k == engine.KeyBoost
		}
		if !boost {
			m.game.Input.Release(engine.KeyBoost)
		}
		return m, nil
	}

	switch key {
	case "e", "enter", " ":
		cmd := m.interact()
		return m, cmd
	case "ctrl+r":
		cmd := m.resetSession()
		return m, cmd
	case "f3", "`":
		m.debug = !m.debug
	case "q", "esc":
		m.showQuitModal = true
	}
	return m, nil
}

func (m WorldUI) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.bridge.Close()
		m.textarea.Reset()
		m.textarea.Blur()
		m.syncChat()
		return m, nil
	case "ctrl+y":
		cmd := m.copyReply()
		return m, cmd
	case "ctrl+r":
		cmd := m.resetSession()
		return m, cmd
	case "f3":
		m.debug = !m.debug
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		return m, cmd
	case "tab":
		if m.textarea.Focused() {
			m.textarea.Blur()
			return m, nil
		}
		if m.bridge.View().InputEnabled {
			cmd := m.textarea.Focus()
			return m, cmd
		}
		return m, nil
	case "enter":
		if !m.textarea.Focused() {
			return m, nil
		}
		cmd := m.bridge.Send(m.textarea.Value())
		if cmd != nil {
			m.textarea.Reset()
			m.textarea.Blur()
			m.syncChat()
		}
		return m, cmd
	}

	if !m.textarea.Focused() {
		i, ok := choiceIndex(msg.String())
		if !ok {
			return m, nil
		}
		cmd := m.bridge.SelectChoice(i)
		if m.bridge.View().FocusInput {
			focus := m.textarea.Focus()
			return m, tea.Batch(cmd, focus, textarea.Blink)
		}
		m.syncChat()
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m WorldUI) handleClick(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if !m.ready || msg.Y >= m.worldRows() {
		return m, nil
	}
	target := world.ScreenToWorld(cellCenter(msg.X, msg.Y), m.game.Camera)
	m.game.MoveTo(target, time.Now())
	return m, nil
}

func (m WorldUI) updateQuitModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEnter:
		return m, tea.Quit
	case tea.KeyEsc:
		m.showQuitModal = false
		return m, nil
	}
	switch msg.String() {
	case "y", "Y":
		return m, tea.Quit
	case "n", "N":
		m.showQuitModal = false
	}
	return m, nil
}

func (m *WorldUI) interact() tea.Cmd {
	npc, err := m.game.Interact()
	if err != nil {
		m.setNotice(err.Error())
		return nil
	}
	cmd := m.bridge.Open(npc)
	m.textarea.Reset()
	m.textarea.Blur()
	m.chatCount = -1
	m.syncChat()
	return cmd
}

func (m *WorldUI) resetSession() tea.Cmd {
	cmd := m.bridge.ResetSession()
	m.textarea.Reset()
	m.textarea.Blur()
	m.setNotice("Started a new session")
	return cmd
}

func (m *WorldUI) copyReply() tea.Cmd {
	text, ok := m.bridge.LastReply()
	if !ok {
		m.setNotice("Nothing to copy yet")
		return nil
	}
	return func() tea.Msg {
		return clipboardMsg{err: clipboard.WriteAll(text)}
	}
}

func (m *WorldUI) handleHealth(online bool) tea.Cmd {
	was := m.game.Online
	m.game.Online = online
	var cmds []tea.Cmd

	if !m.started {
		m.started = true
		cmds = append(cmds, m.bridge.Start(online))
		if online {
			cmds = append(cmds, m.loadRoster())
		} else {
			m.logger.Warn("Dialogue service unreachable, starting offline", "api", m.config.APIBaseURL)
			m.useFallbackRoster()
			m.setNotice("Dialogue service offline: exploring with the built-in roster")
		}
	} else {
		cmds = append(cmds, m.bridge.SetOnline(online))
		if online && !was {
			m.logger.Info("Dialogue service is reachable again")
			m.setNotice("Dialogue service is back online")
			if !m.rosterFromBackend {
				cmds = append(cmds, m.loadRoster())
			}
		}
	}

	if !online {
		cmds = append(cmds, tea.Tick(healthRetry, func(time.Time) tea.Msg {
			return healthRetryMsg{}
		}))
	}
	return tea.Batch(cmds...)
}

func (m WorldUI) checkHealth() tea.Cmd {
	backend, timeout := m.backend, m.config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return healthMsg{online: backend.Health(ctx)}
	}
}

// retryAfter delivers msg once the retry interval has passed.
func (m WorldUI) retryAfter(msg tea.Msg) tea.Cmd {
	return tea.Tick(m.retryInterval, func(time.Time) tea.Msg {
		return msg
	})
}

func (m WorldUI) loadRoster() tea.Cmd {
	backend, timeout := m.backend, m.config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := backend.ListNPCs(ctx)
		if err != nil {
			return rosterMsg{err: err}
		}
		return rosterMsg{infos: resp.NPCs}
	}
}

func (m *WorldUI) useFallbackRoster() {
	infos, err := roster.Fallback()
	if err != nil {
		m.logger.Error("Built-in roster is unreadable", "error", err)
		return
	}
	m.applyRoster(infos, false)
}

// applyRoster installs a new roster. Engaged flags carry over by ID; replies that land
// after the swap reach the new roster through Game.MarkEngaged.
func (m *WorldUI) applyRoster(infos []chat.NPCInfo, fromBackend bool) {
	engaged := make(map[string]bool)
	for _, n := range m.game.NPCs {
		if n.Engaged {
			engaged[strings.ToLower(n.ID)] = true
		}
	}
	npcs := roster.Build(infos, m.game.Player.Size, m.logger)
	for _, n := range npcs {
		n.Engaged = engaged[strings.ToLower(n.ID)]
	}
	m.game.SetNPCs(npcs)
	m.rosterFromBackend = fromBackend
}

func (m *WorldUI) setNotice(text string) {
	m.notice = text
	m.noticeUntil = m.now.Add(noticeDuration)
}

// layout sizes the world and the chat overlay to the terminal.
func (m *WorldUI) layout() {
	m.game.Resize(float64(m.width)*CellWidth, float64(m.worldRows())*CellHeight)

	inner := m.chatWidth() - 6 // border and padding
	m.chatViewport.Width = inner
	m.chatViewport.Height = max(3, m.height-16)
	m.textarea.SetWidth(inner - 2)
	m.chatCount = -1
	m.syncChat()
}

func (m WorldUI) worldRows() int {
	return max(1, m.height-1) // status line
}

func (m WorldUI) chatWidth() int {
	return max(30, min(m.width-4, 90))
}

// syncChat refreshes the transcript, following it to the bottom when it grows.
func (m *WorldUI) syncChat() {
	v := m.bridge.View()
	if v.State == conversation.StateClosed {
		m.chatCount = -1
		return
	}
	m.chatViewport.SetContent(chatContent(v, m.chatViewport.Width, progressFrame(m.now)))
	busy := v.State == conversation.StateLoading || v.State == conversation.StateSending
	if busy || len(v.Messages) != m.chatCount {
		m.chatViewport.GotoBottom()
		m.chatCount = len(v.Messages)
	}
}

func (m WorldUI) View() string {
	if !m.ready {
		return "\n  " + titleStyle.Render("LOCAL LEGENDS") + " initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.bridge.InConversation() {
		return m.renderChat()
	}
	return m.renderWorld()
}

// choiceIndex maps "1".."9" to a zero-based choice index.
func choiceIndex(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

func frameTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
