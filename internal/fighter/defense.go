package fighter

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"fight-core/internal/combat"
	"fight-core/internal/moves"
)

// TakeHit is the only cross-actor entry point. It resolves info against the
// fighter's current defense and applies the outcome completely or not at
// all: a rejected hit has no side effects, a resolved one commits exactly
// one transition, one meter award and one damage notification. The caller
// applies the returned hitstop to the shared clock.
func (f *Fighter) TakeHit(attacker *Fighter, info combat.DamageInfo) combat.Resolution {
	return f.takeHit(attacker, info, f.x, f.y-95)
}

func (f *Fighter) takeHit(attacker *Fighter, info combat.DamageInfo, x, y float64) combat.Resolution {
	if f.KnockedOut() {
		return combat.Resolution{Rejected: true}
	}

	res := combat.Resolve(info, combat.Defense{
		FullInvulnerable:  f.Invulnerable(),
		UpperInvulnerable: f.combat.UpperInvuln > 0,
		LowerInvulnerable: f.combat.LowerInvuln > 0,
		Guard:             f.canGuard,
	}, f.cfg.ChipDamageRatio, f.cfg.SpecialsEnabled)

	if res.Rejected {
		for _, fn := range f.rejectObservers {
			fn(attacker, f, res.Reason)
		}
		return res
	}

	stunned := f.machine.IsIn(f.st.hitstun) || f.machine.IsIn(f.st.downed)
	away := float64(-f.facing)
	if attacker != nil && attacker.x != f.x {
		away = math.Copysign(1, f.x-attacker.x)
	}

	f.Health.Add(-res.Damage)
	f.pushVX = away * res.Pushback * f.pushbackRate()
	f.requested = moves.ActionNone
	f.pendingCancel = moves.ActionNone

	if res.Blocked {
		f.guard.NoteBlocked()
		f.stun = res.Stun
		if f.Health.Empty() {
			// Chip KO
			f.knockDown(combat.KnockdownHard)
		} else if f.cmd.Crouch {
			f.machine.Request(f.st.blockCrouch)
		} else {
			f.machine.Request(f.st.blockStand)
		}
	} else {
		f.vx = 0
		f.pushVX += away * res.KnockbackX
		if res.KnockbackY > 0 {
			f.vy = -res.KnockbackY
			f.grounded = false
		}
		switch {
		case f.Health.Empty():
			f.knockDown(combat.KnockdownHard)
		case res.Knockdown != combat.KnockdownNone:
			f.knockDown(res.Knockdown)
		default:
			f.stun = res.Stun
			if f.stun <= 0 {
				f.stun = f.stats.HitstunFallback
			}
			f.machine.Request(f.st.hitstun)
		}
	}

	combo := 0
	action := moves.ActionNone
	if attacker != nil {
		if attacker.move != nil {
			action = attacker.move.ID
		}
		combo = attacker.confirmContact(res, stunned)
	}
	f.machine.Drain()

	ev := DamageEvent{
		Amount:   res.Damage,
		X:        x,
		Y:        y,
		Blocked:  res.Blocked,
		Combo:    combo,
		Hitstop:  res.Hitstop,
		Action:   action,
		Attacker: attacker,
		Victim:   f,
	}
	f.notifyDamage(ev)
	return res
}

// confirmContact is the attacker side of a resolved hit: contact state for
// cancel windows, meter and combo count.
func (f *Fighter) confirmContact(res combat.Resolution, victimStunned bool) int {
	f.contact = res.Contact()
	f.Meter.Add(res.MeterAward)
	if res.Blocked {
		return 0
	}
	return f.combat.RegisterHit(victimStunned)
}

// canGuard is the timed guard check; only neutral and guarding fighters can
// block.
func (f *Fighter) canGuard(level combat.HitLevel) bool {
	if !f.machine.IsIn(f.st.guard) && !f.machine.IsIn(f.st.movement) {
		return false
	}
	return f.guard.CanBlockTimed(f.cmd.Block, f.grounded, f.cmd.Crouch, level)
}

// pushbackRate converts a pushback distance into an initial velocity, so
// that the decaying velocity covers exactly that distance.
func (f *Fighter) pushbackRate() float64 {
	d := f.stats.PushbackDecay
	if d <= 0 || d >= 1 {
		return 1
	}
	return -math.Log(d)
}

func (f *Fighter) knockDown(kind combat.KnockdownKind) {
	f.downTime = f.stats.SoftDownTime
	if kind == combat.KnockdownHard {
		f.downTime = f.stats.HardDownTime
	}
	f.machine.Request(f.st.downed)
}

// =============================================================================
// GUARD
// =============================================================================

func (f *Fighter) tickBlock(dt float64) {
	f.vx = 0
	f.stun = countDown(f.stun, dt)
}

// =============================================================================
// DODGE
// =============================================================================

func (f *Fighter) enterDodge() {
	f.stateTime = 0
	f.combat.DodgeCooldown = f.stats.DodgeDuration + DodgeCooldownTime

	dir := -f.facing
	if sign(f.cmd.Horizontal) == f.facing {
		dir = f.facing
	}
	f.vx = float64(dir) * f.stats.DodgeSpeed
}

func (f *Fighter) tickDodge(dt float64) {
	f.stateTime += dt
	f.dodgeInvuln = f.stateTime+phaseEpsilon >= f.stats.DodgeInvulnStart &&
		f.stateTime <= f.stats.DodgeInvulnEnd+phaseEpsilon
	if f.stateTime+phaseEpsilon >= f.stats.DodgeDuration {
		f.settle()
	}
}

func (f *Fighter) exitDodge() {
	f.dodgeInvuln = false
	f.vx = 0
}

// =============================================================================
// HITSTUN, DOWNED, WAKEUP
// =============================================================================

func (f *Fighter) tickHitstun(dt float64) {
	f.vx = 0
	f.stun -= dt
	if f.stun <= phaseEpsilon {
		f.stun = 0
		f.settle()
	}
}

// tickDowned counts the knockdown only once the body is on the ground. A
// fighter with no health stays down.
func (f *Fighter) tickDowned(dt float64) {
	f.vx = 0
	if !f.grounded || f.Health.Empty() {
		return
	}
	f.downTime -= dt
	if f.downTime <= phaseEpsilon {
		f.machine.Request(f.st.wakeup)
	}
}

// wakeupNudge eases a short roll during the first half of the wakeup
// invulnerability window. It moves the body directly, outside normal
// locomotion, so it works while invulnerable and recovering.
type wakeupNudge struct {
	tween *gween.Tween
	last  float32
}

func (f *Fighter) enterWakeup() {
	f.stateTime = 0
	f.combat.FullInvuln = f.stats.WakeupInvuln
	f.wakeup = wakeupNudge{
		tween: gween.New(0, float32(f.stats.WakeupNudge), float32(f.stats.WakeupInvuln/2), ease.OutQuad),
	}
}

func (f *Fighter) tickWakeup(dt float64) {
	f.vx = 0
	f.stateTime += dt

	if f.wakeup.tween != nil && f.stateTime <= f.stats.WakeupInvuln/2+phaseEpsilon {
		cur, done := f.wakeup.tween.Update(float32(dt))
		step := float64(cur - f.wakeup.last)
		f.wakeup.last = cur
		f.x += float64(sign(f.cmd.Horizontal)) * step
		if done {
			f.wakeup.tween = nil
		}
	}

	if f.stateTime+phaseEpsilon >= f.stats.WakeupDuration {
		f.settle()
	}
}
