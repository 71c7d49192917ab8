package chat

import (
	"fmt"
	"strings"
	"time"
)

const (
	ChatRoleUser   = "user"      // the visitor
	ChatRoleAgent  = "assistant" // NPC
	ChatRoleSystem = "system"    // welcome and notices
	ChatRoleError  = "error"     // client-side only, never sent to the backend
)

// FreeTextOption is the choice that asks for typed input instead of sending itself.
const FreeTextOption = "[Type your own response]"

// HistoryLimit is how many past messages are handed to a responder as context.
const HistoryLimit = 10

// ChatMessage is a single entry in a conversation with one NPC.
type ChatMessage struct {
	Role      string    `json:"role"` // "user", "assistant", "system", "error"
	Content   string    `json:"content"`
	Options   []string  `json:"options,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NPCResponse is what an NPC says back, plus the choices offered to the visitor.
type NPCResponse struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// InteractionRequest is the body of POST /api/npc/{name}/interact.
type InteractionRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// InteractionResponse is returned from POST /api/npc/{name}/interact.
type InteractionResponse struct {
	NPCName   string      `json:"npc_name"`
	Response  NPCResponse `json:"response"`
	SessionID string      `json:"session_id"`
}

// ConversationsResponse is returned from GET /api/session/{id}/conversations.
type ConversationsResponse struct {
	SessionID         string                   `json:"session_id"`
	Conversations     map[string][]ChatMessage `json:"conversations"`
	TotalNPCsTalkedTo int                      `json:"total_npcs_talked_to"`
}

// SessionInitResponse is returned from POST /api/session/init.
type SessionInitResponse struct {
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Message    string    `json:"message"`
}

func (r *InteractionRequest) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("session_id cannot be empty")
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// Recent returns at most limit trailing messages.
func Recent(history []ChatMessage, limit int) []ChatMessage {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

// ErrorResponse is the body of every non-2xx response from the dialogue service.
type ErrorResponse struct {
	Error string `json:"error"`
}
