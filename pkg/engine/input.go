package engine

import (
	"time"

	"github.com/zyedidia/generic/mapset"
)

// Key is a movement control, independent of the physical key bound to it.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyBoost
)

// Input tracks which movement keys are held. Terminals never report key release, so
// a key with no press within HoldWindow is treated as released; a zero HoldWindow
// disables expiry for front ends that do deliver releases.
type Input struct {
	HoldWindow time.Duration

	held      mapset.Set[Key]
	pressedAt map[Key]time.Time
}

// NewInput creates an empty input state.
func NewInput(holdWindow time.Duration) *Input {
	return &Input{
		HoldWindow: holdWindow,
		held:       mapset.New[Key](),
		pressedAt:  make(map[Key]time.Time),
	}
}

// Press marks k as held at now. Repeated presses refresh the hold.
func (in *Input) Press(k Key, now time.Time) {
	in.held.Put(k)
	in.pressedAt[k] = now
}

// Release marks k as no longer held.
func (in *Input) Release(k Key) {
	in.held.Remove(k)
	delete(in.pressedAt, k)
}

// Held reports whether k is held.
func (in *Input) Held(k Key) bool {
	return in.held.Has(k)
}

// Active is the number of held keys.
func (in *Input) Active() int {
	return in.held.Size()
}

// Reset releases every key.
func (in *Input) Reset() {
	in.held = mapset.New[Key]()
	in.pressedAt = make(map[Key]time.Time)
}

// Expire releases keys whose last press is older than HoldWindow.
func (in *Input) Expire(now time.Time) {
	if in.HoldWindow <= 0 {
		return
	}
	var stale []Key
	in.held.Each(func(k Key) {
		if now.Sub(in.pressedAt[k]) > in.HoldWindow {
			stale = append(stale, k)
		}
	})
	for _, k := range stale {
		in.Release(k)
	}
}

// Direction returns the unit axis signs of the held keys; opposite keys cancel.
func (in *Input) Direction() (dx, dy float64, boost bool) {
	if in.Held(KeyLeft) {
		dx--
	}
	if in.Held(KeyRight) {
		dx++
	}
	if in.Held(KeyUp) {
		dy--
	}
	if in.Held(KeyDown) {
		dy++
	}
	return dx, dy, in.Held(KeyBoost)
}
