// Package fighter implements the fighter actor: resources, the hierarchical
// state machine that drives movement, offense and defense, and the damage
// receiver that is the only way one fighter affects another.
package fighter

import (
	"fmt"

	"fight-core/internal/combat"
	"fight-core/internal/command"
	"fight-core/internal/config"
	"fight-core/internal/hfsm"
	"fight-core/internal/moves"
)

// StateObserver receives (state name, current move name or "") after every
// committed transition.
type StateObserver func(state, move string)

// DamageEvent describes one resolved hit, blocked or not.
type DamageEvent struct {
	Amount   int
	X, Y     float64
	Blocked  bool
	Combo    int
	Hitstop  float64
	Action   moves.ActionID
	Attacker *Fighter
	Victim   *Fighter
}

// DamageObserver is fired exactly once per resolved hit.
type DamageObserver func(DamageEvent)

// RejectObserver is fired for hits that were rejected outright. It exists
// for the debug trace only.
type RejectObserver func(attacker, victim *Fighter, reason combat.RejectReason)

// MeterDeniedObserver is fired when an action is aborted for lack of meter.
type MeterDeniedObserver func(action moves.ActionID, cost, have int)

// SpecialObserver is fired when a special sequence completes.
type SpecialObserver func(trigger moves.ActionID)

// Options configures a new fighter.
type Options struct {
	ID     int
	Name   string
	Team   int
	Table  *moves.Table
	Match  config.MatchConfig
	Clock  command.Clock
	X      float64
	Facing int
}

// Fighter is the central mutable combat entity. It exclusively owns its
// resources, boxes, command buffers and state machine. Other fighters reach
// it only through TakeHit.
type Fighter struct {
	id   int
	name string
	team int

	table *moves.Table
	stats moves.FighterStats
	cfg   config.MatchConfig
	clock command.Clock

	Health *Resource
	Meter  *Resource

	// Kinematics
	x, y     float64
	vx, vy   float64
	pushVX   float64
	facing   int
	grounded bool

	// Combat
	combat        CombatState
	guard         *combat.GuardTimer
	registry      *combat.HitRegistry
	hurtboxes     []*combat.Hurtbox
	hitbox        *combat.Hitbox
	move          *moves.Move
	timeline      AttackTimeline
	contact       combat.Contact
	pendingCancel moves.ActionID
	requested     moves.ActionID

	// Defense timers
	stun        float64
	downTime    float64
	stateTime   float64
	dodgeInvuln bool
	wakeup      wakeupNudge

	// Throws
	throwResolved  bool
	lastThrowPress float64

	// Input
	cmd     command.FighterCommands
	edges   command.EdgeDetector
	queue   *command.CommandQueue
	matcher *command.SequenceMatcher[moves.ActionID]
	taps    int

	machine *hfsm.Machine
	st      stateIDs

	opponent *Fighter

	stateObservers   []StateObserver
	damageObservers  []DamageObserver
	rejectObservers  []RejectObserver
	meterObservers   []MeterDeniedObserver
	specialObservers []SpecialObserver
}

// New creates a fighter standing on the ground in Idle.
func New(opts Options) (*Fighter, error) {
	if opts.Table == nil {
		return nil, fmt.Errorf("fighter: %s: nil move table", opts.Name)
	}
	if opts.Clock == nil {
		return nil, fmt.Errorf("fighter: %s: nil clock", opts.Name)
	}
	if opts.Match == (config.MatchConfig{}) {
		opts.Match = config.DefaultMatch()
	}
	facing := opts.Facing
	if facing == 0 {
		facing = 1
	}

	stats := opts.Table.Stats()
	f := &Fighter{
		id:             opts.ID,
		name:           opts.Name,
		team:           opts.Team,
		table:          opts.Table,
		stats:          stats,
		cfg:            opts.Match,
		clock:          opts.Clock,
		Health:         NewResource(stats.MaxHealth, stats.MaxHealth),
		Meter:          NewResource(stats.MaxMeter, 0),
		x:              opts.X,
		y:              stats.GroundY,
		facing:         facing,
		grounded:       true,
		guard:          combat.NewGuardTimer(opts.Match.BlockMaxHoldSeconds, opts.Match.BlockCooldownSeconds),
		registry:       combat.NewHitRegistry(),
		hurtboxes:      combat.DefaultHurtboxes(opts.ID),
		hitbox:         &combat.Hitbox{Owner: opts.ID, Local: combat.Rect{X: 20, Y: 70, W: 60, H: 30}, Base: combat.DefaultDamageInfo()},
		lastThrowPress: -1,
		queue:          command.NewCommandQueue(opts.Clock, opts.Match.NormalWindow, opts.Match.ComboWindow),
		matcher: command.NewSequenceMatcher(command.MatcherConfig{
			Lifetime:      opts.Match.SequenceLifetime,
			DefaultWindow: opts.Match.SequenceDefaultWindow,
			StepBonus:     opts.Match.SequenceStepBonus,
			Cooldown:      opts.Match.SequenceCooldown,
		}, opts.Table.Patterns()),
	}

	f.registerHandlers()
	if err := f.buildMachine(); err != nil {
		return nil, fmt.Errorf("fighter: %s: %w", opts.Name, err)
	}
	f.machine.Start(f.st.idle)
	f.refreshBoxes()
	return f, nil
}

// =============================================================================
// IDENTITY AND LINKS
// =============================================================================

// ID returns the fighter's numeric identity (also the box owner).
func (f *Fighter) ID() int { return f.id }

// Name returns the display name.
func (f *Fighter) Name() string { return f.name }

// Team returns the team number.
func (f *Fighter) Team() int { return f.team }

// SetOpponent links the fighter to the one it faces.
func (f *Fighter) SetOpponent(o *Fighter) { f.opponent = o }

// Opponent returns the linked opponent, or nil.
func (f *Fighter) Opponent() *Fighter { return f.opponent }

// =============================================================================
// OBSERVERS
// =============================================================================

// OnStateChanged registers a state observer.
func (f *Fighter) OnStateChanged(fn StateObserver) {
	if fn != nil {
		f.stateObservers = append(f.stateObservers, fn)
	}
}

// OnDamage registers a damage observer.
func (f *Fighter) OnDamage(fn DamageObserver) {
	if fn != nil {
		f.damageObservers = append(f.damageObservers, fn)
	}
}

// OnRejected registers a debug observer for rejected hits.
func (f *Fighter) OnRejected(fn RejectObserver) {
	if fn != nil {
		f.rejectObservers = append(f.rejectObservers, fn)
	}
}

// OnMeterDenied registers an observer for actions aborted by low meter.
func (f *Fighter) OnMeterDenied(fn MeterDeniedObserver) {
	if fn != nil {
		f.meterObservers = append(f.meterObservers, fn)
	}
}

// OnSpecial registers an observer for completed special sequences.
func (f *Fighter) OnSpecial(fn SpecialObserver) {
	if fn != nil {
		f.specialObservers = append(f.specialObservers, fn)
	}
}

// BindHealth observes health; fn is called immediately.
func (f *Fighter) BindHealth(fn ResourceObserver) { f.Health.Bind(fn) }

// BindMeter observes meter; fn is called immediately.
func (f *Fighter) BindMeter(fn ResourceObserver) { f.Meter.Bind(fn) }

func (f *Fighter) notifyState() {
	state, move := f.StateName(), f.MoveName()
	for _, fn := range f.stateObservers {
		fn(state, move)
	}
}

func (f *Fighter) notifyDamage(ev DamageEvent) {
	for _, fn := range f.damageObservers {
		fn(ev)
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// StateName returns the current leaf state's name.
func (f *Fighter) StateName() string { return f.machine.CurrentName() }

// StatePath returns state names from the root down to the current state.
func (f *Fighter) StatePath() []string { return f.machine.Path() }

// IsInState reports whether the named state or one of its descendants is
// active. Unknown names are never active.
func (f *Fighter) IsInState(name string) bool { return f.machine.IsInNamed(name) }

// Move returns the active move, or nil.
func (f *Fighter) Move() *moves.Move { return f.move }

// MoveName returns the active move's trigger name, or "".
func (f *Fighter) MoveName() string {
	if f.move == nil {
		return ""
	}
	return f.move.ID.String()
}

// Phase returns the active move's phase; PhaseDone when no move is active.
func (f *Fighter) Phase() Phase {
	if f.move == nil {
		return PhaseDone
	}
	return f.timeline.Phase()
}

// Position returns the feet position.
func (f *Fighter) Position() (x, y float64) { return f.x, f.y }

// Velocity returns the current velocity including pushback.
func (f *Fighter) Velocity() (vx, vy float64) { return f.vx + f.pushVX, f.vy }

// Facing returns +1 facing right, -1 facing left.
func (f *Fighter) Facing() int { return f.facing }

// Grounded reports whether the fighter stands on the ground.
func (f *Fighter) Grounded() bool { return f.grounded }

// Crouching reports whether the body is in a crouching posture.
func (f *Fighter) Crouching() bool {
	return f.grounded && (f.machine.IsIn(f.st.crouch) || f.machine.IsIn(f.st.blockCrouch))
}

// Commands returns this frame's command snapshot.
func (f *Fighter) Commands() command.FighterCommands { return f.cmd }

// Hitbox returns the fighter's attack box.
func (f *Fighter) Hitbox() *combat.Hitbox { return f.hitbox }

// Hurtboxes returns the fighter's body regions.
func (f *Fighter) Hurtboxes() []*combat.Hurtbox { return f.hurtboxes }

// Guard exposes the block-hold timer for inspection.
func (f *Fighter) Guard() *combat.GuardTimer { return f.guard }

// Combat returns a copy of the combat timers.
func (f *Fighter) Combat() CombatState { return f.combat }

// Invulnerable reports full invulnerability (dodge window or wakeup).
func (f *Fighter) Invulnerable() bool {
	return f.dodgeInvuln || f.combat.FullInvuln > 0
}

// Contact returns the contact outcome of the current attack instance.
func (f *Fighter) Contact() combat.Contact { return f.contact }

// Table returns the move table in use.
func (f *Fighter) Table() *moves.Table { return f.table }

// KnockedOut reports zero health while downed.
func (f *Fighter) KnockedOut() bool {
	return f.Health.Empty() && f.machine.IsIn(f.st.downed)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Tick advances the fighter one fixed step: timers, root arbitration, the
// state machine, then kinematics and boxes.
func (f *Fighter) Tick(dt float64) {
	f.combat.UpdateTimers(dt)
	f.guard.Update(f.cmd.Block, dt)

	f.arbitrate()
	f.machine.Drain()
	f.machine.Tick(dt)

	f.integrate(dt)
	f.refreshBoxes()
}

// Reset prepares the fighter for a new round at x facing the given way.
// Health is refilled; meter carries over. A non-nil table replaces the
// current one.
func (f *Fighter) Reset(x float64, facing int, table *moves.Table) {
	if table != nil {
		f.table = table
		f.stats = table.Stats()
		f.matcher.SetPatterns(table.Patterns())
	}
	if facing == 0 {
		facing = 1
	}

	f.x, f.y = x, f.stats.GroundY
	f.vx, f.vy, f.pushVX = 0, 0, 0
	f.facing = facing
	f.grounded = true

	f.Health = resetResource(f.Health, f.stats.MaxHealth, f.stats.MaxHealth)
	f.Meter = resetResource(f.Meter, f.stats.MaxMeter, f.Meter.Current())

	f.combat.Reset()
	f.guard.Reset()
	f.registry.Begin()
	f.move = nil
	f.hitbox.Active = false
	f.contact = combat.ContactWhiff
	f.pendingCancel = moves.ActionNone
	f.requested = moves.ActionNone
	f.stun, f.downTime, f.stateTime = 0, 0, 0
	f.dodgeInvuln = false
	f.lastThrowPress = -1

	f.cmd = command.FighterCommands{}
	f.edges.Reset()
	f.queue.Clear()
	f.matcher.Reset()

	f.machine.Start(f.st.idle)
	// Idle entry faces the opponent, whose position may still be last round's.
	f.facing = facing
	f.refreshBoxes()
}

// resetResource keeps observers bound across rounds.
func resetResource(r *Resource, max, value int) *Resource {
	if r.Max() != max {
		nr := NewResource(max, value)
		nr.observers = r.observers
		for _, fn := range nr.observers {
			fn(nr.current, nr.max)
		}
		return nr
	}
	r.Set(value)
	return r
}
