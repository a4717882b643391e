// Package clock provides the fixed-step frame clock that drives a match.
//
// All combat timing is expressed in seconds of simulated time, derived from a
// monotonic frame counter. Hitstop is modelled as a "frozen until frame X"
// marker on the same counter.
package clock

import "math"

// FrameClock is a monotonic fixed-step clock with a freeze marker.
// It is owned by the match engine and passed to fighters explicitly.
type FrameClock struct {
	dt          float64
	frame       uint64
	frozenUntil uint64
}

// New creates a clock stepping dt seconds per frame.
func New(dt float64) *FrameClock {
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	return &FrameClock{dt: dt}
}

// Advance moves the clock forward one frame.
func (c *FrameClock) Advance() {
	c.frame++
}

// Frame returns the current frame number.
func (c *FrameClock) Frame() uint64 {
	return c.frame
}

// Now returns simulated time in seconds.
func (c *FrameClock) Now() float64 {
	return float64(c.frame) * c.dt
}

// DeltaTime returns the fixed step in seconds.
func (c *FrameClock) DeltaTime() float64 {
	return c.dt
}

// FreezeFrames freezes the simulation for n frames from now.
// Overlapping requests keep the later end point; they never add up.
func (c *FrameClock) FreezeFrames(n int) {
	if n <= 0 {
		return
	}
	until := c.frame + uint64(n)
	if until > c.frozenUntil {
		c.frozenUntil = until
	}
}

// FreezeSeconds is FreezeFrames for a duration in seconds.
func (c *FrameClock) FreezeSeconds(seconds float64) {
	c.FreezeFrames(c.FramesFor(seconds))
}

// Frozen reports whether the current frame is inside a freeze window.
func (c *FrameClock) Frozen() bool {
	return c.frame < c.frozenUntil
}

// FrozenUntil returns the frame at which the current freeze ends.
func (c *FrameClock) FrozenUntil() uint64 {
	return c.frozenUntil
}

// FramesFor converts seconds to whole frames, rounding up.
func (c *FrameClock) FramesFor(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds/c.dt - 1e-9))
}

// Reset rewinds the clock to frame zero and clears any freeze.
func (c *FrameClock) Reset() {
	c.frame = 0
	c.frozenUntil = 0
}
