// Package engine runs the client-side simulation: movement and collision, NPC
// proximity, and the periodic size repair pass. A Game is the one writer of player,
// camera and roster state; the render layer only ever sees Snapshots.
package engine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/local-legends/pkg/actor"
	"github.com/jwebster45206/local-legends/pkg/world"
)

const (
	// DefaultConsistencyInterval is how many ticks pass between size repair passes.
	DefaultConsistencyInterval = 60

	// PromptMargin is the gap between the top of the player and the interaction prompt.
	PromptMargin = 60.0
)

// Conversation is the part of the chat bridge the simulation needs to see.
type Conversation interface {
	// InConversation reports whether chat currently owns input (any state but Closed).
	InConversation() bool
	// Ready reports whether the bridge has a session and can open a chat.
	Ready() bool
}

// Options configures a new Game.
type Options struct {
	ScreenW             float64
	ScreenH             float64
	ImageAspect         float64
	Oversize            float64
	Speed               float64
	MoveDuration        time.Duration
	HoldWindow          time.Duration
	ConsistencyInterval int
}

// Game holds the simulation state for one session.
type Game struct {
	Viewport  *world.Viewport
	Camera    world.Camera
	Player    *actor.Player
	NPCs      []*actor.NPC
	Obstacles []world.Rect
	Nearby    *actor.NPC
	Input     *Input
	Online    bool

	conversation        Conversation
	anim                *moveAnimation
	moveDuration        time.Duration
	consistencyInterval int
	tick                uint64
	logger              *slog.Logger
}

// New creates a game with the player standing at the center of the map.
func New(opts Options, logger *slog.Logger) *Game {
	if opts.MoveDuration <= 0 {
		opts.MoveDuration = DefaultMoveDuration
	}
	if opts.ConsistencyInterval <= 0 {
		opts.ConsistencyInterval = DefaultConsistencyInterval
	}

	g := &Game{
		Viewport:            world.NewViewport(opts.ScreenW, opts.ScreenH, opts.ImageAspect, opts.Oversize),
		Player:              actor.NewPlayer(opts.Speed),
		Input:               NewInput(opts.HoldWindow),
		moveDuration:        opts.MoveDuration,
		consistencyInterval: opts.ConsistencyInterval,
		logger:              logger,
	}
	g.Player.Pos = g.Viewport.Center()
	g.syncSizes()
	g.updateCamera()
	return g
}

// AttachConversation connects the chat bridge. Until one is attached the game behaves
// as if chat is permanently closed and unavailable.
func (g *Game) AttachConversation(c Conversation) {
	g.conversation = c
}

func (g *Game) inConversation() bool {
	return g.conversation != nil && g.conversation.InConversation()
}

// TickCount is the number of ticks run so far.
func (g *Game) TickCount() uint64 {
	return g.tick
}

// Resize applies new screen dimensions: map extent, then offset, then character size.
// The player keeps its relative place on the map.
func (g *Game) Resize(screenW, screenH float64) {
	g.relayout(func() { g.Viewport.Resize(screenW, screenH) })
	g.logger.Debug("Viewport resized", "viewport", g.Viewport.String(), "size", g.Player.Size)
}

// SetMapAspect is called once the map image's natural size is known.
func (g *Game) SetMapAspect(aspect float64) {
	if aspect <= 0 {
		g.logger.Warn("Ignoring map with missing dimensions", "aspect", aspect)
		return
	}
	g.relayout(func() {
		g.Viewport.ImageAspect = aspect
		g.Viewport.Resize(g.Viewport.Screen.W, g.Viewport.Screen.H)
	})
}

func (g *Game) relayout(apply func()) {
	oldBounds := g.Viewport.Bounds()
	frac := world.Vec{X: 0.5, Y: 0.5}
	if oldBounds.W > 0 && oldBounds.H > 0 {
		frac = world.Vec{
			X: (g.Player.Pos.X - oldBounds.X) / oldBounds.W,
			Y: (g.Player.Pos.Y - oldBounds.Y) / oldBounds.H,
		}
	}

	apply()

	g.syncSizes()
	g.Player.Pos = g.clampToInterior(g.Viewport.FractionToWorld(frac))
	g.anim = nil
	g.updateCamera()
}

// SetNPCs installs the roster. NPCs are resized to the player's size immediately.
func (g *Game) SetNPCs(npcs []*actor.NPC) {
	g.NPCs = npcs
	g.Nearby = nil
	g.syncSizes()
	g.logger.Info("Roster loaded", "npcs", len(npcs), "size", g.Player.Size)
}

// NPC looks up an NPC by ID.
func (g *Game) NPC(id string) *actor.NPC {
	for _, n := range g.NPCs {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// MarkEngaged flags an NPC as talked to. IDs match without regard to case.
func (g *Game) MarkEngaged(id string) {
	for _, n := range g.NPCs {
		if strings.EqualFold(n.ID, id) {
			n.Engaged = true
		}
	}
}

// AddObstacle adds a blocking rectangle in world space.
func (g *Game) AddObstacle(r world.Rect) {
	g.Obstacles = append(g.Obstacles, r)
}

// Tick advances the simulation one frame: input, movement, proximity, then the
// periodic repair pass. now drives animation progress and key expiry.
func (g *Game) Tick(now time.Time) {
	g.tick++

	if g.inConversation() {
		g.Input.Reset()
		g.anim = nil
	} else {
		g.Input.Expire(now)
		if !g.stepKeys() {
			g.stepAnimation(now)
		}
		g.updateNearby()
	}

	if g.tick%uint64(g.consistencyInterval) == 0 {
		g.EnforceSizes()
	}
}

func (g *Game) syncSizes() {
	g.Player.Size = actor.CharacterSize(g.Viewport.Extent)
	for _, n := range g.NPCs {
		n.Size = g.Player.Size
	}
}

func (g *Game) updateCamera() {
	g.Camera = g.Viewport.Camera(g.Player.Pos)
}
