package combat

// CanBlock applies the posture rules for a guard attempt.
// High and Overhead need a standing guard, Low needs a crouching guard,
// Mid is blocked either way. Nothing is blocked unless holding and grounded.
func CanBlock(holding, grounded, crouching bool, level HitLevel) bool {
	if !holding || !grounded {
		return false
	}
	switch level {
	case LevelHigh, LevelOverhead:
		return !crouching
	case LevelLow:
		return crouching
	default:
		return true
	}
}

// GuardTimer tracks how long block has been held and the lockout that
// follows holding it too long without blocking anything.
type GuardTimer struct {
	MaxHold  float64 // seconds of continuous hold before lockout
	Cooldown float64 // seconds the lockout lasts

	holding     bool
	heldFor     float64
	lockRemains float64
}

// NewGuardTimer creates a timer with the given ceiling and lockout.
func NewGuardTimer(maxHold, cooldown float64) *GuardTimer {
	return &GuardTimer{MaxHold: maxHold, Cooldown: cooldown}
}

// Update advances the timer by one frame with the current block input.
// The press edge starts the hold timer and release resets it.
func (g *GuardTimer) Update(holding bool, dt float64) {
	if g.lockRemains > 0 {
		g.lockRemains -= dt
		if g.lockRemains < 0 {
			g.lockRemains = 0
		}
	}

	switch {
	case !holding:
		g.heldFor = 0
	case !g.holding:
		g.heldFor = 0
	case g.lockRemains == 0:
		g.heldFor += dt
	}
	g.holding = holding

	g.checkCeiling()
}

// CanBlockTimed is CanBlock with the hold ceiling and lockout applied.
// The lockout starts the first time the ceiling is found exceeded.
func (g *GuardTimer) CanBlockTimed(holding, grounded, crouching bool, level HitLevel) bool {
	if g.checkCeiling() || g.Locked() {
		return false
	}
	return CanBlock(holding, grounded, crouching, level)
}

// NoteBlocked resets the hold timer after a successful block.
func (g *GuardTimer) NoteBlocked() {
	g.heldFor = 0
}

// Locked reports whether blocking is currently disabled.
func (g *GuardTimer) Locked() bool {
	return g.lockRemains > 0
}

// HeldFor returns the continuous hold duration in seconds.
func (g *GuardTimer) HeldFor() float64 {
	return g.heldFor
}

// LockRemaining returns the seconds left on the lockout.
func (g *GuardTimer) LockRemaining() float64 {
	return g.lockRemains
}

// Reset clears hold and lockout state.
func (g *GuardTimer) Reset() {
	g.holding = false
	g.heldFor = 0
	g.lockRemains = 0
}

// checkCeiling starts the lockout when the hold ceiling is exceeded.
// Returns true if it tripped on this call.
func (g *GuardTimer) checkCeiling() bool {
	if g.MaxHold <= 0 || g.lockRemains > 0 || g.heldFor <= g.MaxHold {
		return false
	}
	g.lockRemains = g.Cooldown
	g.heldFor = 0
	return true
}
