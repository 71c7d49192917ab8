package engine

import (
	"errors"

	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/world"
)

var (
	ErrNoNearbyNPC     = errors.New("no one is close enough to talk to")
	ErrBackendOffline  = errors.New("dialogue service is offline")
	ErrChatUnavailable = errors.New("chat is not ready yet")
)

// FindNearest returns the closest NPC strictly inside dist of pos, or nil. Ties go to
// the NPC that appears first in npcs.
func FindNearest(pos world.Vec, npcs []*actor.NPC, v *world.Viewport, dist float64) *actor.NPC {
	var nearest *actor.NPC
	best := dist
	for _, n := range npcs {
		d := pos.Dist(n.WorldPos(v))
		if d < best {
			best = d
			nearest = n
		}
	}
	return nearest
}

func (g *Game) updateNearby() {
	next := FindNearest(g.Player.Pos, g.NPCs, g.Viewport, g.Player.InteractionDistance())
	if next == g.Nearby {
		return
	}
	if next != nil {
		g.logger.Debug("NPC in range", "npc", next.ID)
	}
	g.Nearby = next
}

// PromptPosition is where the interaction prompt sits on screen: centered above the
// player. ok is false when no NPC is nearby.
func (g *Game) PromptPosition() (pos world.Vec, ok bool) {
	if g.Nearby == nil || g.inConversation() {
		return world.Vec{}, false
	}
	p := world.WorldToScreen(g.Player.Pos, g.Camera)
	p.Y -= g.Player.Size/2 + PromptMargin
	return p, true
}

// Interact returns the NPC the player can start talking to. Nothing changes on error.
func (g *Game) Interact() (*actor.NPC, error) {
	if g.Nearby == nil {
		return nil, ErrNoNearbyNPC
	}
	if !g.Online {
		return nil, ErrBackendOffline
	}
	if g.conversation == nil || !g.conversation.Ready() || g.conversation.InConversation() {
		return nil, ErrChatUnavailable
	}
	return g.Nearby, nil
}
