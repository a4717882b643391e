package fighter

import (
	"math"

	"fight-core/internal/combat"
	"fight-core/internal/hfsm"
	"fight-core/internal/moves"
)

// begin starts action id from a neutral state. An action the fighter cannot
// pay for is aborted: no move, no deduction, no transition, but observers
// still hear a state notification with an empty move.
func (f *Fighter) begin(id moves.ActionID) bool {
	id = f.resolveVariant(id)
	m := f.table.MoveOrDefault(id)

	if !f.pay(m) {
		f.move = nil
		f.hitbox.Active = false
		f.notifyState()
		return false
	}
	f.startMove(m)
	f.machine.Request(f.stateFor(m))
	return true
}

// pay spends the move's meter cost atomically and reports a denial.
func (f *Fighter) pay(m *moves.Move) bool {
	if m.MeterCost <= 0 || f.Meter.Spend(m.MeterCost) {
		return true
	}
	for _, fn := range f.meterObservers {
		fn(m.ID, m.MeterCost, f.Meter.Current())
	}
	return false
}

// startMove makes m the current move and opens a new attack instance.
func (f *Fighter) startMove(m *moves.Move) {
	f.move = m
	f.timeline.Begin(m)
	f.registry.Begin()
	f.contact = combat.ContactWhiff
	f.pendingCancel = moves.ActionNone
	f.throwResolved = false
	f.stateTime = 0
	f.hitbox.Active = false
	if m.UpperInvuln > 0 {
		f.combat.UpperInvuln = m.UpperInvuln
	}
	if m.LowerInvuln > 0 {
		f.combat.LowerInvuln = m.LowerInvuln
	}
	if m.ID.IsAerial() && f.vy < 0 {
		f.vy *= AirAttackRiseScale
	}
}

// resolveVariant maps a generic button action to the version that fits the
// current situation.
func (f *Fighter) resolveVariant(id moves.ActionID) moves.ActionID {
	switch {
	case id == moves.ActionThrow && !f.grounded:
		return moves.ActionAirThrow
	case id == moves.ActionThrow && f.opponent != nil && f.opponent.machine.IsIn(f.opponent.st.guard):
		return moves.ActionGuardBreakThrow
	case id == moves.ActionLight && !f.grounded:
		return moves.ActionAirLight
	case id == moves.ActionHeavy && !f.grounded:
		return moves.ActionAirHeavy
	}
	return id
}

func (f *Fighter) stateFor(m *moves.Move) hfsm.StateID {
	switch {
	case m.ID == moves.ActionAirThrow:
		return f.st.airThrow
	case m.ID == moves.ActionGuardBreakThrow:
		return f.st.guardBreak
	case m.Kind == moves.KindThrow:
		return f.st.throw
	case m.Kind == moves.KindHeal:
		return f.st.heal
	case m.Super:
		return f.st.super
	}
	return f.st.attack
}

// finishMove clears the move and returns to locomotion.
func (f *Fighter) finishMove() {
	f.move = nil
	f.hitbox.Active = false
	f.settle()
}

func (f *Fighter) exitOffense() {
	f.move = nil
	f.hitbox.Active = false
	f.pendingCancel = moves.ActionNone
}

func (f *Fighter) enterTimed() {
	f.stateTime = 0
}

// =============================================================================
// ATTACK AND SUPER
// =============================================================================

// tickAttack runs the startup/active/recovery timeline. The hitbox is live
// only in the active phase; cancels are honoured in active and recovery.
func (f *Fighter) tickAttack(dt float64) {
	if f.move == nil {
		f.settle()
		return
	}

	phase := f.timeline.Advance(dt)
	f.hitbox.Active = phase == PhaseActive

	if phase == PhaseActive || phase == PhaseRecovery {
		if f.tryCancel() {
			return
		}
	}
	f.pendingCancel = moves.ActionNone

	if phase == PhaseDone {
		f.finishMove()
	}
}

// tryCancel consumes the pending cancel. It is honoured only inside the
// window matching the contact so far and only for allowed targets.
func (f *Fighter) tryCancel() bool {
	target := f.pendingCancel
	f.pendingCancel = moves.ActionNone
	if target == moves.ActionNone {
		return false
	}
	target = f.resolveVariant(target)
	if !f.move.CanCancel(f.contact, f.timeline.Elapsed(), target) {
		return false
	}

	next := f.table.MoveOrDefault(target)
	if !f.pay(next) {
		// The running attack continues.
		return false
	}
	f.startMove(next)

	state := f.stateFor(next)
	if state == f.machine.Current() {
		// Same state: restart the timeline in place.
		f.notifyState()
		return true
	}
	f.machine.Request(state)
	return true
}

// land is called when an aerial attack touches down.
func (f *Fighter) land() {
	if f.move != nil && f.move.ID.IsAerial() && f.machine.IsIn(f.st.attack) {
		f.timeline.Land(f.move.LandingLag)
		f.hitbox.Active = false
	}
}

// =============================================================================
// THROWS
// =============================================================================

func (f *Fighter) enterThrow() {
	f.throwResolved = false
	f.vx = 0
}

// tickThrow waits out startup, resolves once against the opponent, then
// plays recovery whether or not the throw connected.
func (f *Fighter) tickThrow(dt float64) {
	if f.move == nil {
		f.settle()
		return
	}

	phase := f.timeline.Advance(dt)
	if phase != PhaseStartup && !f.throwResolved {
		f.throwResolved = true
		f.resolveThrow()
	}
	if phase == PhaseDone {
		f.finishMove()
	}
}

func (f *Fighter) resolveThrow() {
	o := f.opponent
	if o == nil || !f.throwConnects(o) {
		return
	}

	if o.techs(f.clock.Now(), f.stats.ThrowTechWindow) {
		// Teched: no damage, the thrower is knocked back out of range.
		f.contact = combat.ContactBlock
		f.pushVX = -float64(f.facing) * f.stats.ThrowTechPush * 2
		return
	}

	info := moves.BuildDamageInfo(f.hitbox.Base, f.move)
	f.deliver(o, info, o.x, o.y-80)
}

// throwConnects checks reach and the variant's target condition.
func (f *Fighter) throwConnects(o *Fighter) bool {
	if math.Abs(o.x-f.x) > f.move.Range {
		return false
	}
	if o.machine.IsIn(o.st.hitstun) || o.machine.IsIn(o.st.downed) || o.machine.IsIn(o.st.wakeup) {
		return false
	}
	switch f.move.ID {
	case moves.ActionAirThrow:
		return !o.grounded
	case moves.ActionGuardBreakThrow:
		return o.grounded && o.machine.IsIn(o.st.guard)
	default:
		return o.grounded && !o.machine.IsIn(o.st.guard)
	}
}

// techs reports whether this fighter pressed Throw within window seconds
// before now.
func (f *Fighter) techs(now, window float64) bool {
	return f.lastThrowPress >= 0 && now-f.lastThrowPress <= window+phaseEpsilon
}

// =============================================================================
// HEAL
// =============================================================================

// tickHeal restores health once the full duration has elapsed. Being hit
// before then loses the heal.
func (f *Fighter) tickHeal(dt float64) {
	if f.move == nil {
		f.settle()
		return
	}
	f.vx = 0
	f.stateTime += dt
	if f.stateTime+phaseEpsilon >= f.move.TotalDuration() {
		f.Health.Add(f.move.HealAmount)
		f.finishMove()
	}
}
