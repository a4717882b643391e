package fighter

import "fight-core/internal/moves"

// Phase is where an attack is in its lifecycle.
type Phase uint8

const (
	PhaseStartup Phase = iota
	PhaseActive
	PhaseRecovery
	PhaseDone
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseStartup:
		return "startup"
	case PhaseActive:
		return "active"
	case PhaseRecovery:
		return "recovery"
	default:
		return "done"
	}
}

// phaseEpsilon absorbs float drift from summing fixed steps, so that six
// 1/60s ticks count as exactly 0.1s.
const phaseEpsilon = 1e-6

// AttackTimeline advances one move through startup, active and recovery.
// A phase boundary belongs to the earlier phase.
type AttackTimeline struct {
	startup  float64
	active   float64
	recovery float64
	elapsed  float64
}

// Begin restarts the timeline for m.
func (t *AttackTimeline) Begin(m *moves.Move) {
	t.startup = m.Startup
	t.active = m.Active
	t.recovery = m.Recovery
	t.elapsed = 0
}

// Advance adds dt and returns the resulting phase.
func (t *AttackTimeline) Advance(dt float64) Phase {
	t.elapsed += dt
	return t.Phase()
}

// Phase returns the current phase.
func (t *AttackTimeline) Phase() Phase {
	switch e := t.elapsed; {
	case e <= t.startup+phaseEpsilon:
		return PhaseStartup
	case e <= t.startup+t.active+phaseEpsilon:
		return PhaseActive
	case e <= t.startup+t.active+t.recovery+phaseEpsilon:
		return PhaseRecovery
	default:
		return PhaseDone
	}
}

// Elapsed returns seconds since Begin.
func (t *AttackTimeline) Elapsed() float64 {
	return t.elapsed
}

// Remaining returns seconds until the move is done.
func (t *AttackTimeline) Remaining() float64 {
	return max(t.startup+t.active+t.recovery-t.elapsed, 0)
}

// Land cuts an aerial move short: whatever phase it was in, only lag
// seconds of recovery remain.
func (t *AttackTimeline) Land(lag float64) {
	total := t.startup + t.active + t.recovery
	t.elapsed = max(total-max(lag, 0), t.startup+t.active+2*phaseEpsilon)
	if t.elapsed > total {
		t.elapsed = total
	}
}
