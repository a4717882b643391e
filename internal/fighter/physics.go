package fighter

import (
	"math"

	"fight-core/internal/combat"
)

// integrate moves the body. Collision response is limited to the ground
// plane and the arena walls.
func (f *Fighter) integrate(dt float64) {
	if !f.grounded {
		f.vy += f.stats.Gravity * dt
	}

	f.x += (f.vx + f.pushVX) * dt
	f.y += f.vy * dt

	if f.pushVX != 0 {
		f.pushVX *= math.Pow(f.decayBase(), dt)
		if math.Abs(f.pushVX) < 1 {
			f.pushVX = 0
		}
	}

	if !f.grounded && f.y >= f.stats.GroundY {
		f.y = f.stats.GroundY
		f.vy = 0
		f.grounded = true
		f.land()
		if f.machine.IsIn(f.st.airborne) {
			f.vx = 0
		}
	}

	if w := f.cfg.ArenaWidth; w > 0 {
		f.x = math.Max(0, math.Min(w, f.x))
	}
}

func (f *Fighter) decayBase() float64 {
	d := f.stats.PushbackDecay
	if d <= 0 || d >= 1 {
		return 0.02
	}
	return d
}

// faceOpponent turns toward the opponent; only neutral states call it.
func (f *Fighter) faceOpponent() {
	if f.opponent == nil || f.opponent.x == f.x {
		return
	}
	if f.opponent.x > f.x {
		f.facing = 1
	} else {
		f.facing = -1
	}
}

// posture returns the body posture used to gate hurtboxes.
func (f *Fighter) posture() combat.Posture {
	switch {
	case !f.grounded:
		return combat.PostureAirborne
	case f.Crouching():
		return combat.PostureCrouching
	}
	return combat.PostureStanding
}

// refreshBoxes recomputes hurtbox rects and enabled flags and places the
// hitbox for this frame.
func (f *Fighter) refreshBoxes() {
	posture := f.posture()
	upper := f.combat.UpperInvuln > 0
	lower := f.combat.LowerInvuln > 0
	for _, h := range f.hurtboxes {
		h.Refresh(posture, upper, lower, f.x, f.y, f.facing)
	}

	var local combat.Rect
	if f.move != nil {
		local = f.move.Hitbox
	}
	f.hitbox.Place(local, f.x, f.y, f.facing)
	if f.move == nil {
		f.hitbox.Active = false
	}
}

// Separate pushes two overlapping bodies apart so their feet are at least
// MinSeparation apart, splitting the correction evenly. Airborne bodies pass
// over each other.
func Separate(a, b *Fighter) {
	if !a.grounded || !b.grounded {
		return
	}
	dx := b.x - a.x
	gap := math.Abs(dx)
	if gap >= MinSeparation {
		return
	}
	dir := 1.0
	if dx < 0 || (dx == 0 && a.facing < 0) {
		dir = -1
	}
	push := (MinSeparation - gap) / 2
	a.x -= dir * push
	b.x += dir * push

	if w := a.cfg.ArenaWidth; w > 0 {
		// Against a wall the free fighter takes the whole correction.
		switch {
		case a.x < 0:
			b.x += -a.x
			a.x = 0
		case a.x > w:
			b.x -= a.x - w
			a.x = w
		}
		switch {
		case b.x < 0:
			a.x += -b.x
			b.x = 0
		case b.x > w:
			a.x -= b.x - w
			b.x = w
		}
	}
	a.refreshBoxes()
	b.refreshBoxes()
}
