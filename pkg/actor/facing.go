package actor

import "github.com/jwebster45206/local-legends/pkg/world"

// Facing is the sprite variant shown for the player.
type Facing int

const (
	FacingFront Facing = iota
	FacingBack
	FacingLeft
	FacingRight
	FacingFrontLeft
	FacingFrontRight
)

// AllFacings returns every facing in declaration order.
func AllFacings() []Facing {
	return []Facing{FacingFront, FacingBack, FacingLeft, FacingRight, FacingFrontLeft, FacingFrontRight}
}

func (f Facing) String() string {
	switch f {
	case FacingFront:
		return "front"
	case FacingBack:
		return "back"
	case FacingLeft:
		return "left"
	case FacingRight:
		return "right"
	case FacingFrontLeft:
		return "front_left"
	case FacingFrontRight:
		return "front_right"
	default:
		return "unknown"
	}
}

// FacingFor picks a facing from the signs of a movement vector. When both axes move the
// vertical axis wins: moving down picks a front diagonal, moving up picks the back sprite.
// A zero vector keeps the current facing.
func FacingFor(delta world.Vec, current Facing) Facing {
	switch {
	case delta.Y > 0 && delta.X < 0:
		return FacingFrontLeft
	case delta.Y > 0 && delta.X > 0:
		return FacingFrontRight
	case delta.Y > 0:
		return FacingFront
	case delta.Y < 0:
		return FacingBack
	case delta.X < 0:
		return FacingLeft
	case delta.X > 0:
		return FacingRight
	default:
		return current
	}
}
