package fighter

import (
	"testing"

	"fight-core/internal/combat"
	"fight-core/internal/command"
	"fight-core/internal/config"
	"fight-core/internal/moves"
)

const dt = 1.0 / 60.0

type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 { return c.now }

func newTestFighter(t *testing.T, clk *fakeClock, id int, x float64, facing int) *Fighter {
	t.Helper()
	f, err := New(Options{
		ID:     id,
		Name:   "P" + string(rune('0'+id)),
		Table:  moves.MustDefaultTable(),
		Match:  config.DefaultMatch(),
		Clock:  clk,
		X:      x,
		Facing: facing,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

// newPair returns two linked fighters 60 units apart and a detector that
// knows both.
func newPair(t *testing.T) (*fakeClock, *combat.Detector, *Fighter, *Fighter) {
	t.Helper()
	clk := &fakeClock{}
	a := newTestFighter(t, clk, 1, 500, 1)
	b := newTestFighter(t, clk, 2, 560, -1)
	a.SetOpponent(b)
	b.SetOpponent(a)

	det := combat.NewDetector(1200, 800, 32)
	a.Register(det)
	b.Register(det)
	return clk, det, a, b
}

// step runs one frame: clock, fighter ticks, then detection.
func step(clk *fakeClock, det *combat.Detector, fs ...*Fighter) []Hit {
	clk.now += dt
	for _, f := range fs {
		f.Tick(dt)
	}
	if det == nil {
		return nil
	}
	return Apply(Detect(det, fs...))
}

func ticks(clk *fakeClock, f *Fighter, n int) {
	for i := 0; i < n; i++ {
		step(clk, nil, f)
	}
}

// TestNewRequiresTableAndClock tests constructor validation
func TestNewRequiresTableAndClock(t *testing.T) {
	if _, err := New(Options{Name: "x", Clock: &fakeClock{}}); err == nil {
		t.Error("Expected error for nil table")
	}
	if _, err := New(Options{Name: "x", Table: moves.MustDefaultTable()}); err == nil {
		t.Error("Expected error for nil clock")
	}
}

// TestNewFighterDefaults tests the initial state
func TestNewFighterDefaults(t *testing.T) {
	f := newTestFighter(t, &fakeClock{}, 1, 300, 0)

	if f.StateName() != StateIdle {
		t.Errorf("Expected Idle, got %s", f.StateName())
	}
	if f.Health.Current() != 1000 || f.Meter.Current() != 0 {
		t.Errorf("Expected 1000 HP and 0 meter, got %d/%d", f.Health.Current(), f.Meter.Current())
	}
	if f.Facing() != 1 {
		t.Errorf("Expected zero facing to default to 1, got %d", f.Facing())
	}
	if !f.Grounded() {
		t.Error("Expected a new fighter on the ground")
	}
	if f.Move() != nil || f.Phase() != PhaseDone {
		t.Error("Expected no active move")
	}
	path := f.StatePath()
	if len(path) != 4 || path[0] != StateRoot || path[1] != StateMovement || path[3] != StateIdle {
		t.Errorf("Unexpected state path %v", path)
	}
}

// TestAttackPhaseTiming tests that a 0.1/0.05/0.15 attack passes through
// its phases on exact frame boundaries at 60 TPS
func TestAttackPhaseTiming(t *testing.T) {
	tests := []struct {
		ticks int
		want  Phase
	}{
		{6, PhaseStartup},
		{7, PhaseActive},
		{9, PhaseActive},
		{10, PhaseRecovery},
		{18, PhaseRecovery},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			clk := &fakeClock{}
			f := newTestFighter(t, clk, 1, 300, 1)
			f.RequestAction(moves.ActionLight)
			ticks(clk, f, tt.ticks)

			if f.StateName() != StateAttack {
				t.Fatalf("Expected Attack after %d ticks, got %s", tt.ticks, f.StateName())
			}
			if got := f.Phase(); got != tt.want {
				t.Errorf("After %d ticks expected %s, got %s", tt.ticks, tt.want, got)
			}
			if active := f.Hitbox().Active; active != (tt.want == PhaseActive) {
				t.Errorf("After %d ticks expected hitbox active=%v", tt.ticks, !active)
			}
		})
	}

	t.Run("done", func(t *testing.T) {
		clk := &fakeClock{}
		f := newTestFighter(t, clk, 1, 300, 1)
		f.RequestAction(moves.ActionLight)
		ticks(clk, f, 19)

		if f.StateName() != StateIdle {
			t.Errorf("Expected Idle after 19 ticks, got %s", f.StateName())
		}
		if f.Move() != nil {
			t.Errorf("Expected move cleared, got %s", f.MoveName())
		}
	})
}

// TestMeterInsufficientAbortsAction tests that an unaffordable action
// deducts nothing and never leaves neutral
func TestMeterInsufficientAbortsAction(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)
	f.Meter.Set(400)

	type notification struct{ state, move string }
	var seen []notification
	f.OnStateChanged(func(state, move string) {
		seen = append(seen, notification{state, move})
	})
	var denied []int
	f.OnMeterDenied(func(action moves.ActionID, cost, have int) {
		denied = append(denied, cost, have)
	})

	f.RequestAction(moves.ActionSuper)
	ticks(clk, f, 1)

	if f.Move() != nil {
		t.Errorf("Expected no move, got %s", f.MoveName())
	}
	if f.Meter.Current() != 400 {
		t.Errorf("Expected meter 400, got %d", f.Meter.Current())
	}
	if f.StateName() != StateIdle {
		t.Errorf("Expected Idle, got %s", f.StateName())
	}
	if len(seen) != 1 || seen[0] != (notification{StateIdle, ""}) {
		t.Errorf("Expected one (Idle, \"\") notification, got %v", seen)
	}
	if len(denied) != 2 || denied[0] != 500 || denied[1] != 400 {
		t.Errorf("Expected denial (500, 400), got %v", denied)
	}
}

// TestSuperSpendsMeter tests that an affordable super pays up front
func TestSuperSpendsMeter(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)
	f.Meter.Set(600)

	f.RequestAction(moves.ActionSuper)
	ticks(clk, f, 1)

	if f.StateName() != StateSuper {
		t.Errorf("Expected Super, got %s", f.StateName())
	}
	if f.Meter.Current() != 100 {
		t.Errorf("Expected meter 100, got %d", f.Meter.Current())
	}
}

// TestOneHitPerAttackInstance tests that an attack connects once no matter
// how many frames or regions overlap
func TestOneHitPerAttackInstance(t *testing.T) {
	clk, det, a, b := newPair(t)

	var events []DamageEvent
	b.OnDamage(func(ev DamageEvent) { events = append(events, ev) })
	var attackerEvents int
	a.OnDamage(func(DamageEvent) { attackerEvents++ })

	a.RequestAction(moves.ActionLight)
	var hits []Hit
	for i := 0; i < 19; i++ {
		hits = append(hits, step(clk, det, a, b)...)
	}

	if len(hits) != 1 || len(events) != 1 {
		t.Fatalf("Expected exactly one hit, got %d hits and %d events", len(hits), len(events))
	}
	if attackerEvents != 0 {
		t.Errorf("Expected no damage event on the attacker, got %d", attackerEvents)
	}
	ev := events[0]
	if ev.Amount != 40 || ev.Blocked {
		t.Errorf("Expected an unblocked 40 damage hit, got %+v", ev)
	}
	if ev.Attacker != a || ev.Victim != b || ev.Action != moves.ActionLight {
		t.Error("Expected the event to name attacker, victim and action")
	}
	if ev.Hitstop != 0.08 {
		t.Errorf("Expected hitstop 0.08, got %v", ev.Hitstop)
	}
	if b.Health.Current() != 960 {
		t.Errorf("Expected 960 HP, got %d", b.Health.Current())
	}
	if a.Meter.Current() != 50 {
		t.Errorf("Expected attacker meter 50, got %d", a.Meter.Current())
	}
	if a.Contact() != combat.ContactHit {
		t.Errorf("Expected contact hit, got %s", a.Contact())
	}
}

// TestNewInstanceCanHitAgain tests that a second attack is a fresh instance
func TestNewInstanceCanHitAgain(t *testing.T) {
	clk, det, a, b := newPair(t)

	count := 0
	b.OnDamage(func(DamageEvent) { count++ })

	for round := 0; round < 2; round++ {
		a.RequestAction(moves.ActionLight)
		for i := 0; i < 19; i++ {
			step(clk, det, a, b)
		}
		// Close the gap the pushback opened.
		a.x, b.x = 500, 560
		a.refreshBoxes()
		b.refreshBoxes()
	}

	if count != 2 {
		t.Errorf("Expected 2 hits from 2 attacks, got %d", count)
	}
}

// TestTradeResolvesBothHits tests that simultaneous hits both land
func TestTradeResolvesBothHits(t *testing.T) {
	clk, det, a, b := newPair(t)

	a.RequestAction(moves.ActionLight)
	b.RequestAction(moves.ActionLight)
	var hits []Hit
	for i := 0; i < 9 && len(hits) == 0; i++ {
		hits = step(clk, det, a, b)
	}

	if len(hits) != 2 {
		t.Fatalf("Expected a trade with 2 hits, got %d", len(hits))
	}
	if a.Health.Current() != 960 || b.Health.Current() != 960 {
		t.Errorf("Expected both at 960, got %d/%d", a.Health.Current(), b.Health.Current())
	}
}

// TestBlockChipDamage tests a blocked hit: chip damage, blockstun, no knockdown
func TestBlockChipDamage(t *testing.T) {
	clk, _, a, b := newPair(t)

	b.SetCommands(command.FighterCommands{Block: true})
	ticks(clk, b, 1)
	if b.StateName() != StateBlockStand {
		t.Fatalf("Expected BlockStand, got %s", b.StateName())
	}

	var ev DamageEvent
	b.OnDamage(func(e DamageEvent) { ev = e })

	info := combat.DefaultDamageInfo()
	info.Damage = 100
	info.Knockdown = combat.KnockdownHard
	res := b.TakeHit(a, info)

	if !res.Blocked || !ev.Blocked {
		t.Fatal("Expected the hit to be blocked")
	}
	if b.Health.Current() != 980 {
		t.Errorf("Expected 20 chip damage, got HP %d", b.Health.Current())
	}
	if b.StateName() != StateBlockStand {
		t.Errorf("Expected to stay in BlockStand, got %s", b.StateName())
	}
	if a.Meter.Current() != info.MeterOnBlock {
		t.Errorf("Expected %d meter on block, got %d", info.MeterOnBlock, a.Meter.Current())
	}
	if a.Contact() != combat.ContactBlock {
		t.Errorf("Expected contact block, got %s", a.Contact())
	}
}

// TestBlockWrongHeight tests that a crouching guard loses to an overhead
func TestBlockWrongHeight(t *testing.T) {
	clk, _, a, b := newPair(t)

	b.SetCommands(command.FighterCommands{Block: true, Crouch: true})
	ticks(clk, b, 1)
	if b.StateName() != StateBlockCrouch {
		t.Fatalf("Expected BlockCrouch, got %s", b.StateName())
	}

	info := combat.DefaultDamageInfo()
	info.Level = combat.LevelOverhead
	res := b.TakeHit(a, info)

	if res.Blocked {
		t.Error("Expected overhead to beat a crouching guard")
	}
	if b.StateName() != StateHitstun {
		t.Errorf("Expected Hitstun, got %s", b.StateName())
	}
}

// TestBlockLockout tests that holding block past the ceiling disables it
func TestBlockLockout(t *testing.T) {
	clk, _, a, b := newPair(t)

	b.SetCommands(command.FighterCommands{Block: true})
	ticks(clk, b, 60)

	if !b.Guard().Locked() {
		t.Fatalf("Expected lockout after 1s of holding, held for %v", b.Guard().HeldFor())
	}

	res := b.TakeHit(a, combat.DefaultDamageInfo())
	if res.Blocked {
		t.Error("Expected a locked-out guard to fail")
	}
	if b.Health.Current() != 950 {
		t.Errorf("Expected full damage, got HP %d", b.Health.Current())
	}
}

// TestCancelOnHit tests a Light into Heavy cancel after contact
func TestCancelOnHit(t *testing.T) {
	clk, det, a, b := newPair(t)

	a.RequestAction(moves.ActionLight)
	for i := 0; i < 7; i++ {
		step(clk, det, a, b)
	}
	if a.Contact() != combat.ContactHit {
		t.Fatalf("Expected Light to have hit by tick 7, contact %s", a.Contact())
	}

	var moveNames []string
	a.OnStateChanged(func(state, move string) { moveNames = append(moveNames, move) })

	a.RequestAction(moves.ActionHeavy)
	step(clk, det, a, b)

	if a.MoveName() != "Heavy" {
		t.Errorf("Expected Heavy after cancel, got %q", a.MoveName())
	}
	if a.Phase() != PhaseStartup {
		t.Errorf("Expected cancelled move to restart in startup, got %s", a.Phase())
	}
	if a.Contact() != combat.ContactWhiff {
		t.Errorf("Expected a fresh instance, got contact %s", a.Contact())
	}
	if len(moveNames) != 1 || moveNames[0] != "Heavy" {
		t.Errorf("Expected one notification for Heavy, got %v", moveNames)
	}
}

// TestCancelOnWhiffDropped tests that a cancel outside its window is dropped
func TestCancelOnWhiffDropped(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)

	f.RequestAction(moves.ActionLight)
	ticks(clk, f, 8)
	f.RequestAction(moves.ActionHeavy)
	ticks(clk, f, 1)

	if f.MoveName() != "Light" {
		t.Errorf("Expected Light to continue, got %q", f.MoveName())
	}

	// The dropped request must not fire later either.
	ticks(clk, f, 11)
	if f.StateName() != StateIdle {
		t.Errorf("Expected Idle after Light ends, got %s", f.StateName())
	}
}

// TestButtonDuringStartupIsCancelRequest tests that a press during an attack is
// handled as a cancel request, not started afterwards
func TestButtonDuringStartupIsCancelRequest(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)

	f.RequestAction(moves.ActionLight)
	ticks(clk, f, 2)

	f.SetCommands(command.FighterCommands{Heavy: true})
	if f.pendingCancel != moves.ActionHeavy {
		t.Errorf("Expected pending Heavy cancel, got %s", f.pendingCancel)
	}
	if f.Queue().Len(command.ChannelNormal) != 0 {
		t.Error("Expected the consumed token removed from the queue")
	}
}

// TestAirAttackVariant tests that Light in the air becomes AirLight
func TestAirAttackVariant(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)

	f.SetCommands(command.FighterCommands{Jump: true})
	ticks(clk, f, 1)
	if f.Grounded() || f.StateName() != StateJump {
		t.Fatalf("Expected airborne Jump, got %s", f.StateName())
	}

	f.SetCommands(command.FighterCommands{})
	f.RequestAction(moves.ActionLight)
	ticks(clk, f, 1)

	if f.MoveName() != "AirLight" {
		t.Errorf("Expected AirLight, got %q", f.MoveName())
	}
}

// TestKnockdownAndWakeup tests Downed -> Wakeup timing and wakeup
// invulnerability
func TestKnockdownAndWakeup(t *testing.T) {
	clk, _, a, b := newPair(t)

	info := combat.DefaultDamageInfo()
	info.Knockdown = combat.KnockdownSoft
	b.TakeHit(a, info)

	if b.StateName() != StateDowned {
		t.Fatalf("Expected Downed, got %s", b.StateName())
	}

	ticks(clk, b, 35)
	if b.StateName() != StateDowned {
		t.Fatalf("Expected still Downed after 35 ticks, got %s", b.StateName())
	}
	ticks(clk, b, 1)
	if b.StateName() != StateWakeup {
		t.Fatalf("Expected Wakeup after 0.6s, got %s", b.StateName())
	}
	if !b.Invulnerable() {
		t.Error("Expected wakeup invulnerability")
	}

	res := b.TakeHit(a, combat.DefaultDamageInfo())
	if !res.Rejected || res.Reason != combat.RejectDodge {
		t.Errorf("Expected hit rejected by invulnerability, got %+v", res)
	}

	ticks(clk, b, 30)
	if b.StateName() != StateIdle {
		t.Errorf("Expected Idle after wakeup, got %s", b.StateName())
	}
}

// TestWakeupIgnoresInput tests that locked defense states run to completion
func TestWakeupIgnoresInput(t *testing.T) {
	clk, _, a, b := newPair(t)

	info := combat.DefaultDamageInfo()
	info.Knockdown = combat.KnockdownSoft
	b.TakeHit(a, info)

	b.SetCommands(command.FighterCommands{Block: true, Dodge: true})
	ticks(clk, b, 10)

	if b.StateName() != StateDowned {
		t.Errorf("Expected Downed to ignore block and dodge, got %s", b.StateName())
	}
}

// TestKnockout tests that a fighter at zero health stays down
func TestKnockout(t *testing.T) {
	clk, _, a, b := newPair(t)

	info := combat.DefaultDamageInfo()
	info.Damage = 5000
	b.TakeHit(a, info)

	if !b.Health.Empty() {
		t.Fatalf("Expected empty health, got %d", b.Health.Current())
	}
	ticks(clk, b, 300)

	if !b.KnockedOut() {
		t.Errorf("Expected knocked out, state %s", b.StateName())
	}
	res := b.TakeHit(a, combat.DefaultDamageInfo())
	if !res.Rejected {
		t.Error("Expected hits on a knocked out fighter to be rejected")
	}
}

// TestChipKnockout tests that chip damage emptying health knocks the
// blocker down for good
func TestChipKnockout(t *testing.T) {
	clk, _, a, b := newPair(t)

	b.SetCommands(command.FighterCommands{Block: true})
	ticks(clk, b, 1)
	if b.StateName() != StateBlockStand {
		t.Fatalf("Expected BlockStand, got %s", b.StateName())
	}
	b.Health.Set(1)

	info := combat.DefaultDamageInfo()
	info.Damage = 100
	res := b.TakeHit(a, info)

	if !res.Blocked {
		t.Fatal("Expected the hit to be blocked")
	}
	if !b.Health.Empty() {
		t.Fatalf("Expected empty health, got %d", b.Health.Current())
	}
	if b.StateName() != StateDowned {
		t.Errorf("Expected Downed after a chip KO, got %s", b.StateName())
	}

	ticks(clk, b, 300)
	if !b.KnockedOut() {
		t.Errorf("Expected knocked out, state %s", b.StateName())
	}
}

// TestKnockdownRecoveryTime tests that soft and hard knockdowns differ only
// in how long the fighter stays down
func TestKnockdownRecoveryTime(t *testing.T) {
	tests := []struct {
		name   string
		kind   combat.KnockdownKind
		frames int
	}{
		{"soft", combat.KnockdownSoft, 36},
		{"hard", combat.KnockdownHard, 72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk, _, a, b := newPair(t)

			info := combat.DefaultDamageInfo()
			info.Knockdown = tt.kind
			b.TakeHit(a, info)
			if b.StateName() != StateDowned {
				t.Fatalf("Expected Downed, got %s", b.StateName())
			}

			ticks(clk, b, tt.frames-1)
			if b.StateName() != StateDowned {
				t.Fatalf("Expected still Downed after %d frames, got %s", tt.frames-1, b.StateName())
			}
			ticks(clk, b, 1)
			if b.StateName() != StateWakeup {
				t.Errorf("Expected Wakeup after %d frames, got %s", tt.frames, b.StateName())
			}
			if !b.Invulnerable() {
				t.Error("Expected wakeup invulnerability")
			}
		})
	}
}

// TestWakeupNudge tests the roll during the first half of wakeup
// invulnerability, in both directions and without input
func TestWakeupNudge(t *testing.T) {
	tests := []struct {
		name       string
		horizontal float64
		minDX      float64
		maxDX      float64
	}{
		{"forward", 1, 60, 100},
		{"back", -1, -100, -60},
		{"none", 0, -5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk, _, a, b := newPair(t)

			info := combat.DefaultDamageInfo()
			info.Knockdown = combat.KnockdownSoft
			b.TakeHit(a, info)
			b.SetCommands(command.FighterCommands{Horizontal: tt.horizontal})

			for i := 0; i < 120 && b.StateName() != StateWakeup; i++ {
				ticks(clk, b, 1)
			}
			if b.StateName() != StateWakeup {
				t.Fatalf("Expected Wakeup, got %s", b.StateName())
			}

			start, _ := b.Position()
			// Nudge covers the first half of the window
			ticks(clk, b, 15)
			end, _ := b.Position()

			if dx := end - start; dx < tt.minDX || dx > tt.maxDX {
				t.Errorf("Expected dx in [%.0f, %.0f], got %.1f", tt.minDX, tt.maxDX, dx)
			}
		})
	}
}

// TestDodgeInvulnerability tests the dodge invulnerability window and cooldown
func TestDodgeInvulnerability(t *testing.T) {
	clk, _, a, b := newPair(t)

	b.SetCommands(command.FighterCommands{Dodge: true})
	ticks(clk, b, 1)
	if b.StateName() != StateDodge {
		t.Fatalf("Expected Dodge, got %s", b.StateName())
	}
	if b.Invulnerable() {
		t.Error("Expected no invulnerability before the window opens")
	}

	ticks(clk, b, 1)
	if !b.Invulnerable() {
		t.Fatal("Expected invulnerability inside the window")
	}
	if res := b.TakeHit(a, combat.DefaultDamageInfo()); !res.Rejected {
		t.Error("Expected the hit to be rejected")
	}

	super := combat.DefaultDamageInfo()
	super.Super = true
	if res := b.TakeHit(a, super); res.Rejected {
		t.Error("Expected a super to ignore dodge invulnerability")
	}
}

// TestDodgeCooldown tests that a second dodge waits for the cooldown
func TestDodgeCooldown(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 600, 1)

	f.SetCommands(command.FighterCommands{Dodge: true})
	ticks(clk, f, 22)
	if f.StateName() == StateDodge {
		t.Fatalf("Expected the dodge to have ended, got %s", f.StateName())
	}
	if f.Combat().CanDodge() {
		t.Error("Expected the dodge on cooldown")
	}

	ticks(clk, f, 30)
	if f.StateName() != StateDodge {
		t.Errorf("Expected a second dodge after the cooldown, got %s", f.StateName())
	}
}

// TestThrowConnects tests a throw that is not teched
func TestThrowConnects(t *testing.T) {
	clk, _, a, b := newPair(t)

	a.RequestAction(moves.ActionThrow)
	ticks(clk, a, 8)

	if b.Health.Current() != 880 {
		t.Errorf("Expected 120 throw damage, got HP %d", b.Health.Current())
	}
	if b.StateName() != StateDowned {
		t.Errorf("Expected soft knockdown, got %s", b.StateName())
	}
}

// TestThrowTech tests that a throw press just before the throw resolves
// breaks it
func TestThrowTech(t *testing.T) {
	clk, _, a, b := newPair(t)

	a.RequestAction(moves.ActionThrow)
	ticks(clk, a, 3)
	b.SetCommands(command.FighterCommands{Light: true, Heavy: true})
	ticks(clk, a, 5)

	if b.Health.Current() != 1000 {
		t.Errorf("Expected no damage from a teched throw, got HP %d", b.Health.Current())
	}
	if a.Contact() != combat.ContactBlock {
		t.Errorf("Expected contact block, got %s", a.Contact())
	}
	if vx, _ := a.Velocity(); vx >= 0 {
		t.Errorf("Expected the thrower pushed back, got vx %v", vx)
	}
}

// TestThrowVariants tests variant selection from situation
func TestThrowVariants(t *testing.T) {
	clk, _, a, b := newPair(t)

	if got := a.resolveVariant(moves.ActionThrow); got != moves.ActionThrow {
		t.Errorf("Expected Throw, got %s", got)
	}

	b.SetCommands(command.FighterCommands{Block: true})
	ticks(clk, b, 1)
	if got := a.resolveVariant(moves.ActionThrow); got != moves.ActionGuardBreakThrow {
		t.Errorf("Expected GuardBreakThrow, got %s", got)
	}

	a.grounded = false
	if got := a.resolveVariant(moves.ActionThrow); got != moves.ActionAirThrow {
		t.Errorf("Expected AirThrow, got %s", got)
	}
}

// TestHeal tests that a heal restores health only after its full duration
func TestHeal(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)
	f.Health.Set(500)
	f.Meter.Set(300)

	f.RequestAction(moves.ActionHeal)
	ticks(clk, f, 59)
	if f.StateName() != StateHeal {
		t.Fatalf("Expected Heal, got %s", f.StateName())
	}
	if f.Health.Current() != 500 {
		t.Errorf("Expected no heal before the duration, got %d", f.Health.Current())
	}

	ticks(clk, f, 1)
	if f.Health.Current() != 650 {
		t.Errorf("Expected 650 HP, got %d", f.Health.Current())
	}
	if f.Meter.Current() != 100 {
		t.Errorf("Expected meter 100, got %d", f.Meter.Current())
	}
}

// TestHealRefusedAtFullHealth tests the heal precondition
func TestHealRefusedAtFullHealth(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)
	f.Meter.Set(300)

	f.RequestAction(moves.ActionHeal)
	ticks(clk, f, 1)

	if f.StateName() != StateIdle {
		t.Errorf("Expected Idle, got %s", f.StateName())
	}
	if f.Meter.Current() != 300 {
		t.Errorf("Expected no meter spent, got %d", f.Meter.Current())
	}
}

// TestHealSequence tests Back, Back, Light triggering a heal
func TestHealSequence(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, 1)
	f.Health.Set(500)
	f.Meter.Set(300)

	for _, cmd := range []command.FighterCommands{
		{Horizontal: -1},
		{},
		{Horizontal: -1},
		{Light: true},
	} {
		f.SetCommands(cmd)
	}
	if f.Taps() != 2 {
		t.Errorf("Expected 2 direction taps, got %d", f.Taps())
	}

	ticks(clk, f, 1)
	if f.StateName() != StateHeal {
		t.Errorf("Expected Heal, got %s", f.StateName())
	}
}

// TestSpecialSequence tests Down, Forward, Heavy starting a fireball
func TestSpecialSequence(t *testing.T) {
	clk := &fakeClock{}
	f := newTestFighter(t, clk, 1, 300, -1)

	for _, cmd := range []command.FighterCommands{
		{Crouch: true},
		{Horizontal: -1},
		{Horizontal: -1, Heavy: true},
	} {
		f.SetCommands(cmd)
	}
	if f.Queue().Len(command.ChannelNormal) != 0 {
		t.Error("Expected the matched Heavy kept out of the queue")
	}

	f.SetCommands(command.FighterCommands{})
	ticks(clk, f, 1)
	if f.MoveName() != "Fireball" {
		t.Errorf("Expected Fireball, got %q", f.MoveName())
	}
}

// TestResetKeepsMeter tests round reset
func TestResetKeepsMeter(t *testing.T) {
	clk, _, a, b := newPair(t)

	b.Meter.Set(350)
	info := combat.DefaultDamageInfo()
	info.Knockdown = combat.KnockdownHard
	b.TakeHit(a, info)

	var lastHP int
	b.BindHealth(func(cur, max int) { lastHP = cur })

	b.Reset(700, -1, nil)
	ticks(clk, b, 1)

	if b.StateName() != StateIdle {
		t.Errorf("Expected Idle after reset, got %s", b.StateName())
	}
	if b.Health.Current() != 1000 || lastHP != 1000 {
		t.Errorf("Expected health refilled and observed, got %d/%d", b.Health.Current(), lastHP)
	}
	if b.Meter.Current() != 350 {
		t.Errorf("Expected meter carried over, got %d", b.Meter.Current())
	}
	if x, _ := b.Position(); x != 700 {
		t.Errorf("Expected x 700, got %v", x)
	}
}

// TestSeparate tests body push-apart
func TestSeparate(t *testing.T) {
	_, _, a, b := newPair(t)
	a.x, b.x = 600, 620

	Separate(a, b)

	if gap := b.x - a.x; gap < MinSeparation-1e-9 {
		t.Errorf("Expected gap >= %d, got %v", MinSeparation, gap)
	}
	if a.x != 585 || b.x != 635 {
		t.Errorf("Expected an even split 585/635, got %v/%v", a.x, b.x)
	}
}

// TestResource tests clamping, atomic spend and observer binding
func TestResource(t *testing.T) {
	r := NewResource(100, 150)
	if r.Current() != 100 {
		t.Errorf("Expected initial clamp to 100, got %d", r.Current())
	}

	var calls []int
	r.Bind(func(cur, max int) { calls = append(calls, cur) })
	if len(calls) != 1 || calls[0] != 100 {
		t.Errorf("Expected an immediate call with 100, got %v", calls)
	}

	if applied := r.Add(-130); applied != -100 || !r.Empty() {
		t.Errorf("Expected clamp at zero applying -100, got %d", applied)
	}
	if r.Spend(10) {
		t.Error("Expected spend on an empty resource to fail")
	}
	r.Set(40)
	if !r.Spend(40) || r.Current() != 0 {
		t.Errorf("Expected exact spend to succeed, got %d", r.Current())
	}
	if r.Ratio() != 0 {
		t.Errorf("Expected ratio 0, got %v", r.Ratio())
	}

	before := len(calls)
	r.Add(0)
	if len(calls) != before {
		t.Error("Expected no notification for a no-op change")
	}
}

// TestAttackTimelineLand tests that landing cuts to landing lag
func TestAttackTimelineLand(t *testing.T) {
	var tl AttackTimeline
	tl.Begin(&moves.Move{Startup: 0.1, Active: 0.1, Recovery: 0.3})
	tl.Advance(0.05)
	tl.Land(0.05)

	if tl.Phase() != PhaseRecovery {
		t.Errorf("Expected recovery after landing, got %s", tl.Phase())
	}
	if r := tl.Remaining(); r > 0.05+1e-9 {
		t.Errorf("Expected at most 0.05s left, got %v", r)
	}
}

// TestComboCount tests combo counting against a stunned victim
func TestComboCount(t *testing.T) {
	var c CombatState
	if n := c.RegisterHit(false); n != 1 {
		t.Errorf("Expected 1, got %d", n)
	}
	if n := c.RegisterHit(true); n != 2 {
		t.Errorf("Expected 2, got %d", n)
	}
	c.UpdateTimers(ComboWindow + 0.01)
	if c.ComboCount != 0 {
		t.Errorf("Expected combo reset after the window, got %d", c.ComboCount)
	}
}
