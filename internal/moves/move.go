package moves

import (
	"slices"

	"fight-core/internal/combat"
)

// MoveKind selects how the offense domain executes a move.
type MoveKind uint8

const (
	KindStrike MoveKind = iota
	KindThrow
	KindHeal
)

// String returns the kind name
func (k MoveKind) String() string {
	switch k {
	case KindThrow:
		return "throw"
	case KindHeal:
		return "heal"
	default:
		return "strike"
	}
}

// CancelPolicy is one contact-specific cancel window, in seconds since the
// move started.
type CancelPolicy struct {
	Enabled bool
	Start   float64
	End     float64
}

// Contains reports whether elapsed falls inside an enabled window.
func (c CancelPolicy) Contains(elapsed float64) bool {
	return c.Enabled && elapsed >= c.Start && elapsed <= c.End
}

// Move is the static definition of one action. Moves are shared and never
// mutated during a match.
type Move struct {
	ID   ActionID
	Kind MoveKind

	Startup  float64
	Active   float64
	Recovery float64

	Damage        int
	Level         combat.HitLevel
	Hitstun       float64
	Blockstun     float64
	KnockbackX    float64
	KnockbackY    float64
	Blockable     bool
	HitstopHit    float64
	HitstopBlock  float64
	PushbackHit   float64
	PushbackBlock float64
	Knockdown     combat.KnockdownKind
	Super         bool

	MeterCost    int
	MeterOnHit   int
	MeterOnBlock int

	Hitbox combat.Rect

	OnHit      CancelPolicy
	OnBlock    CancelPolicy
	OnWhiff    CancelPolicy
	CancelInto []ActionID // empty allows any target

	UpperInvuln float64 // seconds of upper-body invulnerability from move start
	LowerInvuln float64 // seconds of lower-body invulnerability from move start

	LandingLag float64
	Range      float64 // throw reach
	HealAmount int
}

// TotalDuration is startup + active + recovery.
func (m *Move) TotalDuration() float64 {
	return m.Startup + m.Active + m.Recovery
}

// CancelWindow returns the policy matching the contact so far.
func (m *Move) CancelWindow(contact combat.Contact) CancelPolicy {
	switch contact {
	case combat.ContactHit:
		return m.OnHit
	case combat.ContactBlock:
		return m.OnBlock
	default:
		return m.OnWhiff
	}
}

// AllowsCancelInto reports whether target is a legal cancel destination.
func (m *Move) AllowsCancelInto(target ActionID) bool {
	if len(m.CancelInto) == 0 {
		return target.Valid()
	}
	return slices.Contains(m.CancelInto, target)
}

// CanCancel combines the window and the allow-list.
func (m *Move) CanCancel(contact combat.Contact, elapsed float64, target ActionID) bool {
	return m.CancelWindow(contact).Contains(elapsed) && m.AllowsCancelInto(target)
}

// BuildDamageInfo builds the payload for one contact: base values overridden
// by the active move. A nil move yields the base unchanged.
func BuildDamageInfo(base combat.DamageInfo, m *Move) combat.DamageInfo {
	if m == nil {
		return base
	}
	return combat.DamageInfo{
		Damage:        m.Damage,
		Level:         m.Level,
		Hitstun:       m.Hitstun,
		Blockstun:     m.Blockstun,
		KnockbackX:    m.KnockbackX,
		KnockbackY:    m.KnockbackY,
		Blockable:     m.Blockable,
		HitstopHit:    m.HitstopHit,
		HitstopBlock:  m.HitstopBlock,
		PushbackHit:   m.PushbackHit,
		PushbackBlock: m.PushbackBlock,
		Knockdown:     m.Knockdown,
		MeterOnHit:    m.MeterOnHit,
		MeterOnBlock:  m.MeterOnBlock,
		Super:         m.Super,
	}
}

// DefaultMove returns hard-coded fallback frame data for id, used when a
// table lookup misses so attack states always have valid phases.
func DefaultMove(id ActionID) *Move {
	base := combat.DefaultDamageInfo()
	m := &Move{
		ID:            id,
		Kind:          KindStrike,
		Startup:       0.1,
		Active:        0.05,
		Recovery:      0.15,
		Damage:        base.Damage,
		Level:         base.Level,
		Hitstun:       base.Hitstun,
		Blockstun:     base.Blockstun,
		Blockable:     true,
		HitstopHit:    base.HitstopHit,
		HitstopBlock:  base.HitstopBlock,
		PushbackHit:   base.PushbackHit,
		PushbackBlock: base.PushbackBlock,
		MeterOnHit:    base.MeterOnHit,
		MeterOnBlock:  base.MeterOnBlock,
		Hitbox:        combat.Rect{X: 20, Y: 70, W: 60, H: 30},
	}
	switch {
	case id.IsThrow():
		m.Kind = KindThrow
		m.Blockable = false
		m.Range = 90
		m.Knockdown = combat.KnockdownSoft
	case id == ActionHeal:
		m.Kind = KindHeal
		m.Damage = 0
		m.HealAmount = 100
		m.Startup, m.Active, m.Recovery = 0.5, 0.2, 0.3
	}
	return m
}
