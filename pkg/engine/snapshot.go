package engine

import (
	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/world"
)

// NPCView is what the render layer needs to draw one NPC.
type NPCView struct {
	ID          string
	Name        string
	Portrait    string
	AccentColor string
	Screen      world.Vec
	Size        float64
	Engaged     bool
	Nearby      bool
}

// Snapshot is a read-only copy of the simulation for one frame.
type Snapshot struct {
	Tick       uint64
	Screen     world.Size
	Extent     world.Size
	Offset     world.Vec
	Camera     world.Camera
	Player     world.Vec
	PlayerAt   world.Vec
	Size       float64
	Facing     actor.Facing
	Sprite     string
	Animating  bool
	NPCs       []NPCView
	Nearby     string
	Prompt     world.Vec
	ShowPrompt bool
	Online     bool
}

// Snapshot copies the state the render layer reads.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Tick:      g.tick,
		Screen:    g.Viewport.Screen,
		Extent:    g.Viewport.Extent,
		Offset:    g.Viewport.Offset,
		Camera:    g.Camera,
		Player:    g.Player.Pos,
		PlayerAt:  world.WorldToScreen(g.Player.Pos, g.Camera),
		Size:      g.Player.Size,
		Facing:    g.Player.Facing,
		Sprite:    g.Player.Sprite(),
		Animating: g.anim != nil,
		Online:    g.Online,
		NPCs:      make([]NPCView, 0, len(g.NPCs)),
	}
	if g.Nearby != nil {
		s.Nearby = g.Nearby.ID
	}
	s.Prompt, s.ShowPrompt = g.PromptPosition()

	for _, n := range g.NPCs {
		s.NPCs = append(s.NPCs, NPCView{
			ID:          n.ID,
			Name:        n.Name(),
			Portrait:    n.Portrait,
			AccentColor: n.AccentColor,
			Screen:      world.WorldToScreen(n.WorldPos(g.Viewport), g.Camera),
			Size:        n.Size,
			Engaged:     n.Engaged,
			Nearby:      n == g.Nearby,
		})
	}
	return s
}
