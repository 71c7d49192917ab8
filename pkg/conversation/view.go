package conversation

import (
	"fmt"

	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/chat"
)

// View is a read-only copy of the overlay for rendering.
type View struct {
	State        State
	NPCID        string
	NPCName      string
	Neighborhood string
	Portrait     string
	AccentColor  string
	Messages     []chat.ChatMessage
	Choices      []string
	InputEnabled bool
	FocusInput   bool
	SessionID    string
	Online       bool
	Ready        bool
}

// View copies the state the render layer reads.
func (b *Bridge) View() View {
	v := View{
		State:     b.status.state,
		SessionID: b.sessionID,
		Online:    b.online,
		Ready:     b.Ready(),
	}
	if npc := b.status.npc; npc != nil {
		v.NPCID = npc.ID
		v.NPCName = npc.Name()
		v.Neighborhood = npc.Neighborhood
		v.Portrait = npc.Portrait
		v.AccentColor = npc.AccentColor
	}
	v.Messages = append([]chat.ChatMessage(nil), b.messages...)
	v.Choices = append([]string(nil), b.choices...)
	v.InputEnabled = b.status.state == StateOpen
	v.FocusInput = b.focusInput
	return v
}

func welcome(npc *actor.NPC) chat.ChatMessage {
	where := "the neighborhood"
	if npc.Neighborhood != "" {
		where = npc.Neighborhood
	}
	return chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf("Hey there, I'm %s. Welcome to %s! What brings you around?", npc.Name(), where),
		Options: starterChoices(npc),
	}
}

func degradedWelcome(npc *actor.NPC) chat.ChatMessage {
	return chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf("*%s waves* My memory's a little foggy right now, but say hi anyway.", npc.Name()),
		Options: starterChoices(npc),
	}
}

func starterChoices(npc *actor.NPC) []string {
	about := "What's good around here?"
	if npc.Neighborhood != "" {
		about = fmt.Sprintf("What's good in %s?", npc.Neighborhood)
	}
	return []string{about, "Tell me about yourself", chat.FreeTextOption}
}
