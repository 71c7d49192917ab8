package world

import "fmt"

const (
	// DefaultOversize is how much larger than the screen-fitted size the map is drawn,
	// so there is always room to scroll.
	DefaultOversize = 1.5

	// DefaultImageAspect matches the bundled 1920x1080 city map.
	DefaultImageAspect = 16.0 / 9.0
)

// ComputeMapExtent fits a map image of the given aspect ratio to the screen along the
// tighter axis, so the map covers the whole screen, then scales both dimensions by
// oversize. The aspect ratio is preserved.
func ComputeMapExtent(screenW, screenH, imageAspect, oversize float64) (float64, float64) {
	if screenW <= 0 || screenH <= 0 || imageAspect <= 0 {
		return 0, 0
	}
	var w, h float64
	if imageAspect > screenW/screenH {
		// Image is wider than the screen: height constrains.
		h = screenH
		w = h * imageAspect
	} else {
		w = screenW
		h = w / imageAspect
	}
	return w * oversize, h * oversize
}

// ComputeOffset centers the map on the screen. The result is negative on any axis where
// the map is larger than the screen, which is the normal case.
func ComputeOffset(screenW, screenH, mapW, mapH float64) Vec {
	return Vec{X: (screenW - mapW) / 2, Y: (screenH - mapH) / 2}
}

// Camera is the world-space position of the screen's top-left corner.
type Camera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UpdateCamera centers the camera on the player and keeps the visible region inside the
// map. On an axis where the map does not exceed the screen the camera is pinned to the
// map offset.
func UpdateCamera(player Vec, screen Size, offset Vec, extent Size) Camera {
	return Camera{
		X: clampAxis(player.X-screen.W/2, offset.X, extent.W, screen.W),
		Y: clampAxis(player.Y-screen.H/2, offset.Y, extent.H, screen.H),
	}
}

func clampAxis(target, offset, extent, screen float64) float64 {
	if extent <= screen {
		return offset
	}
	return clamp(target, offset, offset+extent-screen)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Viewport owns the screen size and the derived map placement. Screen dimensions change
// on resize; everything else is recomputed from them.
type Viewport struct {
	Screen      Size
	ImageAspect float64
	Oversize    float64

	Extent Size
	Offset Vec
}

// NewViewport builds a viewport and computes the initial map placement. An oversize
// factor that is not greater than one is replaced with DefaultOversize.
func NewViewport(screenW, screenH, imageAspect, oversize float64) *Viewport {
	if oversize <= 1 {
		oversize = DefaultOversize
	}
	if imageAspect <= 0 {
		imageAspect = DefaultImageAspect
	}
	v := &Viewport{ImageAspect: imageAspect, Oversize: oversize}
	v.Resize(screenW, screenH)
	return v
}

// Resize records new screen dimensions and recomputes extent then offset.
func (v *Viewport) Resize(screenW, screenH float64) {
	v.Screen = Size{W: screenW, H: screenH}
	w, h := ComputeMapExtent(screenW, screenH, v.ImageAspect, v.Oversize)
	v.Extent = Size{W: w, H: h}
	v.Offset = ComputeOffset(screenW, screenH, w, h)
}

// Ready reports whether the map has usable dimensions.
func (v *Viewport) Ready() bool {
	return !v.Screen.Empty() && !v.Extent.Empty()
}

// Bounds is the map rectangle in world space.
func (v *Viewport) Bounds() Rect {
	return Rect{X: v.Offset.X, Y: v.Offset.Y, W: v.Extent.W, H: v.Extent.H}
}

// Center is the middle of the map in world space.
func (v *Viewport) Center() Vec {
	return v.Bounds().Center()
}

// FractionToWorld maps a 0..1 fraction of the map extent to world coordinates.
func (v *Viewport) FractionToWorld(f Vec) Vec {
	return Vec{X: v.Offset.X + f.X*v.Extent.W, Y: v.Offset.Y + f.Y*v.Extent.H}
}

// Camera returns the camera for the given player position.
func (v *Viewport) Camera(player Vec) Camera {
	return UpdateCamera(player, v.Screen, v.Offset, v.Extent)
}

// WorldToScreen converts a world position to screen pixels through cam.
func WorldToScreen(p Vec, cam Camera) Vec {
	return Vec{X: p.X - cam.X, Y: p.Y - cam.Y}
}

// ScreenToWorld converts screen pixels to a world position through cam.
func ScreenToWorld(p Vec, cam Camera) Vec {
	return Vec{X: p.X + cam.X, Y: p.Y + cam.Y}
}

func (v *Viewport) String() string {
	return fmt.Sprintf("screen=%.0fx%.0f map=%.0fx%.0f offset=(%.0f,%.0f)",
		v.Screen.W, v.Screen.H, v.Extent.W, v.Extent.H, v.Offset.X, v.Offset.Y)
}
