package combat

import "math"

// RejectReason says why a hit had no effect. Only used for tracing.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectDodge
	RejectUpperInvulnerable
	RejectLowerInvulnerable
)

// String returns the reason name
func (r RejectReason) String() string {
	switch r {
	case RejectDodge:
		return "dodge_invulnerable"
	case RejectUpperInvulnerable:
		return "upper_invulnerable"
	case RejectLowerInvulnerable:
		return "lower_invulnerable"
	default:
		return "none"
	}
}

// Defense is the defender's side of a hit at the moment of contact.
// Guard is only called once every invulnerability check has passed, because
// a timed guard check may start a lockout.
type Defense struct {
	FullInvulnerable  bool
	UpperInvulnerable bool
	LowerInvulnerable bool
	Guard             func(level HitLevel) bool
}

// Resolution is the complete effect of one hit. A rejected resolution
// carries no effect at all.
type Resolution struct {
	Rejected bool
	Reason   RejectReason

	Blocked    bool
	Damage     int
	Stun       float64 // hitstun or blockstun seconds
	Hitstop    float64 // global freeze seconds
	Pushback   float64
	KnockbackX float64
	KnockbackY float64
	Knockdown  KnockdownKind
	MeterAward int // meter for the attacker
}

// Contact returns the contact kind the attacker should record.
func (r Resolution) Contact() Contact {
	switch {
	case r.Rejected:
		return ContactWhiff
	case r.Blocked:
		return ContactBlock
	default:
		return ContactHit
	}
}

// Resolve runs the hit pipeline. Rejection order: dodge invulnerability
// (unless super), upper-body invulnerability for High/Overhead, lower-body
// invulnerability for Low, then the guard combined with the blockable flag.
//
// blockMeter disables meter-on-block when the specials subsystem is off.
func Resolve(info DamageInfo, d Defense, chipRatio float64, blockMeter bool) Resolution {
	switch {
	case d.FullInvulnerable && !info.Super:
		return Resolution{Rejected: true, Reason: RejectDodge}
	case d.UpperInvulnerable && info.Level.IsUpper():
		return Resolution{Rejected: true, Reason: RejectUpperInvulnerable}
	case d.LowerInvulnerable && info.Level == LevelLow:
		return Resolution{Rejected: true, Reason: RejectLowerInvulnerable}
	}

	if info.Blockable && d.Guard != nil && d.Guard(info.Level) {
		res := Resolution{
			Blocked:  true,
			Damage:   ChipDamage(info.Damage, chipRatio),
			Stun:     info.Blockstun,
			Hitstop:  info.HitstopBlock,
			Pushback: info.PushbackBlock,
		}
		if blockMeter {
			res.MeterAward = info.MeterOnBlock
		}
		return res
	}

	return Resolution{
		Damage:     max(info.Damage, 0),
		Stun:       info.Hitstun,
		Hitstop:    info.HitstopHit,
		Pushback:   info.PushbackHit,
		KnockbackX: info.KnockbackX,
		KnockbackY: info.KnockbackY,
		Knockdown:  info.Knockdown,
		MeterAward: info.MeterOnHit,
	}
}

// ChipDamage is ceil(damage * ratio). The epsilon keeps float noise such as
// 30*0.1 = 3.0000000000000004 from rounding up a whole point.
func ChipDamage(damage int, ratio float64) int {
	if damage <= 0 || ratio <= 0 {
		return 0
	}
	return int(math.Ceil(float64(damage)*ratio - 1e-9))
}
