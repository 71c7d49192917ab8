package state

import (
	"strings"
	"time"

	"github.com/jwebster45206/local-legends/pkg/chat"
)

// Session is one visitor's conversations with every NPC, keyed by the NPC's canonical
// name.
type Session struct {
	ID            string                        `json:"session_id"`
	CreatedAt     time.Time                     `json:"created_at"`
	LastActive    time.Time                     `json:"last_active"`
	Conversations map[string][]chat.ChatMessage `json:"conversations"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:            id,
		CreatedAt:     now,
		LastActive:    now,
		Conversations: make(map[string][]chat.ChatMessage),
	}
}

// Touch marks the session as used.
func (s *Session) Touch(now time.Time) {
	s.LastActive = now
}

// History returns the conversation with npc, matching the name without regard to case.
func (s *Session) History(npc string) []chat.ChatMessage {
	if h, ok := s.Conversations[npc]; ok {
		return h
	}
	for name, h := range s.Conversations {
		if strings.EqualFold(name, npc) {
			return h
		}
	}
	return nil
}

// AddExchange records one visitor line and the NPC's answer.
func (s *Session) AddExchange(npc string, user, reply chat.ChatMessage) {
	if s.Conversations == nil {
		s.Conversations = make(map[string][]chat.ChatMessage)
	}
	s.Conversations[npc] = append(s.Conversations[npc], user, reply)
}

// PromptHistory is the recent context handed to a responder.
func (s *Session) PromptHistory(npc string) []chat.ChatMessage {
	return chat.Recent(s.History(npc), chat.HistoryLimit)
}

// TalkedTo is the number of NPCs with at least one message.
func (s *Session) TalkedTo() int {
	n := 0
	for _, h := range s.Conversations {
		if len(h) > 0 {
			n++
		}
	}
	return n
}
