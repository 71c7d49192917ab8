package services

import (
	"context"

	"github.com/jwebster45206/local-legends/pkg/chat"
)

// MaxOptions is the most choices a reply may offer, free text included.
const MaxOptions = 3

// Responder produces an NPC's reply to a visitor.
type Responder interface {
	// Respond answers message given the recent conversation with this NPC.
	Respond(ctx context.Context, npc chat.NPCInfo, message string, history []chat.ChatMessage) (*chat.NPCResponse, error)
}

// LimitOptions trims options to MaxOptions and drops empty or repeated entries.
func LimitOptions(options []string) []string {
	out := make([]string, 0, MaxOptions)
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
		if len(out) == MaxOptions {
			break
		}
	}
	return out
}

// Confused is the reply given when an NPC has nothing to say.
func Confused(name string) *chat.NPCResponse {
	return &chat.NPCResponse{
		Text:    "*" + name + " looks confused* Sorry, I can't really talk right now.",
		Options: []string{"Try again later", chat.FreeTextOption},
	}
}
