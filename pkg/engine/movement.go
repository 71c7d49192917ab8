package engine

import (
	"time"

	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/world"
)

// MovePlayer is the single gate for changing the player's position. The move is
// checked before anything changes and is either applied in full or rejected.
func (g *Game) MovePlayer(target world.Vec) bool {
	if !g.CanOccupy(target) {
		return false
	}

	delta := target.Sub(g.Player.Pos)
	g.Player.Pos = target
	g.Player.Facing = actor.FacingFor(delta, g.Player.Facing)
	g.updateCamera()
	return true
}

// CanOccupy reports whether the player's bounding box fits at pos: inside the map
// interior and clear of every obstacle.
func (g *Game) CanOccupy(pos world.Vec) bool {
	if !g.Viewport.Ready() {
		return false
	}
	half := g.Player.Size / 2
	b := g.Viewport.Bounds()
	if pos.X < b.X+half || pos.X > b.X+b.W-half || pos.Y < b.Y+half || pos.Y > b.Y+b.H-half {
		return false
	}
	box := g.Player.BoundsAt(pos)
	for _, o := range g.Obstacles {
		if box.Intersects(o) {
			return false
		}
	}
	return true
}

// MoveTo starts a glide towards target, replacing any glide in progress. It is
// ignored while a conversation owns input.
func (g *Game) MoveTo(target world.Vec, now time.Time) bool {
	if g.inConversation() || !g.Viewport.Ready() {
		return false
	}
	g.anim = &moveAnimation{
		from:     g.Player.Pos,
		to:       target,
		start:    now,
		duration: g.moveDuration,
	}
	return true
}

// Animating reports whether a glide is in progress.
func (g *Game) Animating() bool {
	return g.anim != nil
}

// stepKeys applies one tick of key-driven movement. It reports whether keys asked
// for movement this tick, in which case they own the tick and cancel any glide.
func (g *Game) stepKeys() bool {
	dx, dy, boost := g.Input.Direction()
	if dx == 0 && dy == 0 {
		return false
	}
	g.anim = nil

	speed := g.Player.Speed
	if boost {
		speed *= actor.BoostMultiplier
	}
	g.MovePlayer(g.Player.Pos.Add(world.Vec{X: dx * speed, Y: dy * speed}))
	return true
}

func (g *Game) stepAnimation(now time.Time) {
	if g.anim == nil {
		return
	}
	pos, done := g.anim.at(now)
	g.MovePlayer(pos)
	if done {
		g.anim = nil
	}
}

func (g *Game) clampToInterior(p world.Vec) world.Vec {
	half := g.Player.Size / 2
	b := g.Viewport.Bounds()
	return world.Vec{
		X: clamp(p.X, b.X+half, b.X+b.W-half),
		Y: clamp(p.Y, b.Y+half, b.Y+b.H-half),
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
