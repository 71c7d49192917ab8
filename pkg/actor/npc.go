package actor

import "github.com/jwebster45206/local-legends/pkg/world"

// NPC is a stationary character placed by fractions of the map extent, so placement
// survives any screen size.
type NPC struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name,omitempty"`
	Portrait     string    `json:"portrait,omitempty"`     // asset name, e.g. "tyler.png"
	AccentColor  string    `json:"accent_color,omitempty"` // "#rrggbb"
	Neighborhood string    `json:"neighborhood,omitempty"`
	Description  string    `json:"description,omitempty"`
	Fraction     world.Vec `json:"fraction"` // 0..1 on both axes
	Size         float64   `json:"size"`     // always the player's size
	Engaged      bool      `json:"engaged"`  // talked to this session
}

// Name is the display name, falling back to the ID.
func (n *NPC) Name() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.ID
}

// WorldPos converts the fractional position through the viewport.
func (n *NPC) WorldPos(v *world.Viewport) world.Vec {
	return v.FractionToWorld(n.Fraction)
}

// Bounds is the NPC's square in world space.
func (n *NPC) Bounds(v *world.Viewport) world.Rect {
	return world.RectAround(n.WorldPos(v), n.Size)
}
