package fighter

import (
	"math"

	"fight-core/internal/command"
	"fight-core/internal/hfsm"
	"fight-core/internal/moves"
)

// State names, usable with IsInState.
const (
	StateRoot            = "Root"
	StateMovement        = "Movement"
	StateGrounded        = "Grounded"
	StateIdle            = "Idle"
	StateWalk            = "Walk"
	StateCrouch          = "Crouch"
	StateAirborne        = "Airborne"
	StateJump            = "Jump"
	StateOffense         = "Offense"
	StateAttack          = "Attack"
	StateThrow           = "Throw"
	StateAirThrow        = "AirThrow"
	StateGuardBreakThrow = "GuardBreakThrow"
	StateSuper           = "Super"
	StateHeal            = "Heal"
	StateDefense         = "Defense"
	StateGuard           = "Guard"
	StateBlockStand      = "BlockStand"
	StateBlockCrouch     = "BlockCrouch"
	StateDodge           = "Dodge"
	StateHitstun         = "Hitstun"
	StateDowned          = "Downed"
	StateWakeup          = "Wakeup"
)

type stateIDs struct {
	movement, grounded, idle, walk, crouch, airborne, jump hfsm.StateID

	offense, attack, throw, airThrow, guardBreak, super, heal hfsm.StateID

	defense, guard, blockStand, blockCrouch, dodge, hitstun, downed, wakeup hfsm.StateID
}

// buildMachine lays out the state tree:
//
//	Root
//	├── Movement
//	│   ├── Grounded: Idle, Walk, Crouch
//	│   └── Airborne: Jump
//	├── Offense: Attack, Throw, AirThrow, GuardBreakThrow, Super, Heal
//	└── Defense
//	    ├── Guard: BlockStand, BlockCrouch
//	    └── Dodge, Hitstun, Downed, Wakeup
func (f *Fighter) buildMachine() error {
	b := hfsm.NewBuilder(StateRoot)
	s := &f.st

	s.movement = b.Add(StateMovement, hfsm.Root, hfsm.Hooks{})
	s.grounded = b.Add(StateGrounded, s.movement, hfsm.Hooks{})
	s.idle = b.Add(StateIdle, s.grounded, hfsm.Hooks{Enter: f.enterIdle, Tick: f.tickIdle})
	s.walk = b.Add(StateWalk, s.grounded, hfsm.Hooks{Tick: f.tickWalk})
	s.crouch = b.Add(StateCrouch, s.grounded, hfsm.Hooks{Tick: f.tickIdle})
	s.airborne = b.Add(StateAirborne, s.movement, hfsm.Hooks{})
	s.jump = b.Add(StateJump, s.airborne, hfsm.Hooks{Enter: f.enterJump, Tick: f.tickJump})

	s.offense = b.Add(StateOffense, hfsm.Root, hfsm.Hooks{Exit: f.exitOffense})
	s.attack = b.Add(StateAttack, s.offense, hfsm.Hooks{Tick: f.tickAttack})
	s.throw = b.Add(StateThrow, s.offense, hfsm.Hooks{Enter: f.enterThrow, Tick: f.tickThrow})
	s.airThrow = b.Add(StateAirThrow, s.offense, hfsm.Hooks{Enter: f.enterThrow, Tick: f.tickThrow})
	s.guardBreak = b.Add(StateGuardBreakThrow, s.offense, hfsm.Hooks{Enter: f.enterThrow, Tick: f.tickThrow})
	s.super = b.Add(StateSuper, s.offense, hfsm.Hooks{Tick: f.tickAttack})
	s.heal = b.Add(StateHeal, s.offense, hfsm.Hooks{Enter: f.enterTimed, Tick: f.tickHeal})

	s.defense = b.Add(StateDefense, hfsm.Root, hfsm.Hooks{})
	s.guard = b.Add(StateGuard, s.defense, hfsm.Hooks{})
	s.blockStand = b.Add(StateBlockStand, s.guard, hfsm.Hooks{Tick: f.tickBlock})
	s.blockCrouch = b.Add(StateBlockCrouch, s.guard, hfsm.Hooks{Tick: f.tickBlock})
	s.dodge = b.Add(StateDodge, s.defense, hfsm.Hooks{Enter: f.enterDodge, Exit: f.exitDodge, Tick: f.tickDodge})
	s.hitstun = b.Add(StateHitstun, s.defense, hfsm.Hooks{Tick: f.tickHitstun})
	s.downed = b.Add(StateDowned, s.defense, hfsm.Hooks{Tick: f.tickDowned})
	s.wakeup = b.Add(StateWakeup, s.defense, hfsm.Hooks{Enter: f.enterWakeup, Tick: f.tickWakeup})

	m, err := b.Build(f.cfg.MaxTransitionsPerDrain)
	if err != nil {
		return err
	}
	m.OnChanged(func(from, to hfsm.StateID) { f.notifyState() })
	f.machine = m
	return nil
}

// arbitrate is the root-level decision made once per tick, in strict
// precedence Defense > Offense > Movement. It only requests transitions.
func (f *Fighter) arbitrate() {
	m := f.machine
	switch {
	case f.locked():
		// Stun, knockdown and wakeup are never overridden by input.
		return
	case f.cmd.Block && f.grounded:
		f.requested = moves.ActionNone
		if f.cmd.Crouch {
			m.Request(f.st.blockCrouch)
		} else {
			m.Request(f.st.blockStand)
		}
	case f.cmd.Dodge && f.grounded && !m.IsIn(f.st.dodge) && f.combat.CanDodge():
		f.requested = moves.ActionNone
		m.Request(f.st.dodge)
	case m.IsIn(f.st.offense), m.IsIn(f.st.dodge):
		return
	case !f.grounded && (f.requested == moves.ActionLight || f.requested == moves.ActionHeavy):
		// The single entry point for air attacks.
		id := moves.ActionAirLight
		if f.requested == moves.ActionHeavy {
			id = moves.ActionAirHeavy
		}
		f.requested = moves.ActionNone
		f.begin(id)
	case f.requested != moves.ActionNone:
		id := f.requested
		f.requested = moves.ActionNone
		f.begin(id)
	default:
		m.Request(f.movementTarget())
	}
}

// locked reports defense states that run to completion regardless of input.
func (f *Fighter) locked() bool {
	m := f.machine
	switch {
	case m.IsIn(f.st.hitstun), m.IsIn(f.st.downed), m.IsIn(f.st.wakeup):
		return true
	case m.IsIn(f.st.guard) && f.stun > 0:
		return true
	}
	return false
}

// movementTarget picks the locomotion state matching this frame's commands.
func (f *Fighter) movementTarget() hfsm.StateID {
	switch {
	case !f.grounded:
		return f.st.jump
	case f.cmd.Jump:
		return f.st.jump
	case f.cmd.Crouch:
		return f.st.crouch
	case math.Abs(f.cmd.Horizontal) > command.AxisThreshold:
		return f.st.walk
	}
	return f.st.idle
}

// settle returns to locomotion after a move or defense state ends.
func (f *Fighter) settle() {
	if f.grounded {
		f.machine.Request(f.st.idle)
	} else {
		f.machine.Request(f.st.jump)
	}
}

// =============================================================================
// MOVEMENT STATES
// =============================================================================

func (f *Fighter) enterIdle() {
	f.vx = 0
	f.faceOpponent()
	// Buttons pressed during stun or blockstun start on the first free frame.
	if f.requested != moves.ActionNone {
		return
	}
	if tok, ok := f.queue.TryDequeue(command.ChannelNormal); ok {
		f.requested = actionForToken(tok.Token)
	}
}

func (f *Fighter) tickIdle(dt float64) {
	f.vx = 0
	f.faceOpponent()
}

func (f *Fighter) tickWalk(dt float64) {
	f.faceOpponent()
	dir := sign(f.cmd.Horizontal)
	speed := f.stats.WalkSpeed
	if dir != 0 && dir != f.facing {
		speed = f.stats.BackWalkSpeed
	}
	f.vx = float64(dir) * speed
}

func (f *Fighter) enterJump() {
	if !f.grounded {
		return
	}
	f.grounded = false
	f.vy = -f.stats.JumpVelocity
	f.vx = float64(sign(f.cmd.Horizontal)) * f.stats.WalkSpeed
}

func (f *Fighter) tickJump(dt float64) {
	if f.grounded {
		f.machine.Request(f.st.idle)
	}
}

func actionForToken(tok command.Token) moves.ActionID {
	switch tok {
	case command.TokenLight:
		return moves.ActionLight
	case command.TokenHeavy:
		return moves.ActionHeavy
	case command.TokenThrow:
		return moves.ActionThrow
	}
	return moves.ActionNone
}

func sign(v float64) int {
	switch {
	case v > command.AxisThreshold:
		return 1
	case v < -command.AxisThreshold:
		return -1
	}
	return 0
}
