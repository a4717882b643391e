package fighter

// CombatState tracks combo chains, invulnerability and dodge cooldown for a
// fighter. All timers are seconds counted down once per tick.
type CombatState struct {
	// Combo system
	ComboCount int     // Consecutive hits landed while the victim stayed stunned
	ComboTimer float64 // Time left to extend the combo

	// Invulnerability countdowns
	FullInvuln  float64 // Wakeup
	UpperInvuln float64 // Head and torso (e.g. uppercut startup)
	LowerInvuln float64 // Legs (e.g. spin kick startup)

	// Dodge
	DodgeCooldown float64
}

// Combat balance parameters that are not authored per move.
const (
	ComboWindow        = 0.6 // Seconds a combo stays alive without a new hit
	DodgeCooldownTime  = 0.4 // Seconds between dodges
	MinSeparation      = 50  // Closest two bodies may stand
	AirAttackRiseScale = 0.5 // Upward speed kept when an air attack starts
)

// Reset clears combat state (called at round start).
func (c *CombatState) Reset() {
	*c = CombatState{}
}

// UpdateTimers counts every timer down by dt. Called once per tick.
func (c *CombatState) UpdateTimers(dt float64) {
	if c.ComboTimer > 0 {
		c.ComboTimer -= dt
		if c.ComboTimer <= 0 {
			c.ComboTimer = 0
			c.ComboCount = 0
		}
	}
	c.FullInvuln = countDown(c.FullInvuln, dt)
	c.UpperInvuln = countDown(c.UpperInvuln, dt)
	c.LowerInvuln = countDown(c.LowerInvuln, dt)
	c.DodgeCooldown = countDown(c.DodgeCooldown, dt)
}

// CanDodge returns whether a dodge can be initiated.
func (c CombatState) CanDodge() bool {
	return c.DodgeCooldown <= 0
}

// RegisterHit records a landed hit and returns the combo length including
// it. A hit on a victim that was not already stunned starts a new combo.
func (c *CombatState) RegisterHit(victimStunned bool) int {
	if victimStunned && c.ComboCount > 0 {
		c.ComboCount++
	} else {
		c.ComboCount = 1
	}
	c.ComboTimer = ComboWindow
	return c.ComboCount
}

func countDown(v, dt float64) float64 {
	if v <= 0 {
		return 0
	}
	v -= dt
	if v < 0 {
		return 0
	}
	return v
}
