package actor

import (
	"math"

	"github.com/jwebster45206/local-legends/pkg/world"
)

const (
	// MinSize and MaxSize bound the character size in world pixels.
	MinSize = 24.0
	MaxSize = 96.0

	// SizeRatio is the character size as a fraction of the map's shorter side.
	SizeRatio = 0.06

	// InteractionFactor scales character size into the interaction radius.
	InteractionFactor = 1.5

	// DefaultSpeed is the per-tick displacement in world pixels.
	DefaultSpeed = 5.0

	// BoostMultiplier applies while the boost modifier is held.
	BoostMultiplier = 2.0
)

// CharacterSize derives the shared character size from the map extent.
func CharacterSize(extent world.Size) float64 {
	if extent.Empty() {
		return MinSize
	}
	size := math.Min(extent.W, extent.H) * SizeRatio
	return math.Max(MinSize, math.Min(MaxSize, size))
}

// InteractionDistance is the radius within which an NPC can be engaged.
func InteractionDistance(size float64) float64 {
	return size * InteractionFactor
}

// Player is the avatar controlled by the user.
type Player struct {
	Pos     world.Vec         `json:"pos"`
	Size    float64           `json:"size"`
	Speed   float64           `json:"speed"`
	Facing  Facing            `json:"facing"`
	Sprites map[Facing]string `json:"sprites"`
}

// NewPlayer builds a player with the default sprite set.
func NewPlayer(speed float64) *Player {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	sprites := make(map[Facing]string, 6)
	for _, f := range AllFacings() {
		sprites[f] = "player_" + f.String() + ".png"
	}
	return &Player{
		Size:    MinSize,
		Speed:   speed,
		Facing:  FacingFront,
		Sprites: sprites,
	}
}

// Sprite is the asset for the current facing.
func (p *Player) Sprite() string {
	return p.Sprites[p.Facing]
}

// BoundsAt is the player's bounding box if it stood at pos.
func (p *Player) BoundsAt(pos world.Vec) world.Rect {
	return world.RectAround(pos, p.Size)
}

// InteractionDistance is derived from the current size.
func (p *Player) InteractionDistance() float64 {
	return InteractionDistance(p.Size)
}
