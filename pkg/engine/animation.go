package engine

import (
	"math"
	"time"

	"github.com/jwebster45206/local-legends/pkg/world"
)

// DefaultMoveDuration is how long a click-to-move glide takes.
const DefaultMoveDuration = 500 * time.Millisecond

// EaseOutCubic maps linear progress t in [0,1] to 1-(1-t)^3.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// moveAnimation is a single-shot glide from one point to another. Once started it runs
// until t reaches 1 or it is replaced; it is never rewound.
type moveAnimation struct {
	from     world.Vec
	to       world.Vec
	start    time.Time
	duration time.Duration
}

// at returns the eased position for now and whether the animation has finished.
func (a *moveAnimation) at(now time.Time) (world.Vec, bool) {
	t := 1.0
	if a.duration > 0 {
		t = float64(now.Sub(a.start)) / float64(a.duration)
	}
	if t < 0 {
		t = 0
	}
	done := t >= 1
	if done {
		t = 1
	}
	return a.from.Lerp(a.to, EaseOutCubic(t)), done
}
