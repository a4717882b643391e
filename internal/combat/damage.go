// Package combat holds the per-hit damage model, guard rules, hit/hurt boxes,
// overlap detection and the pure hit resolution pipeline.
package combat

// HitLevel is where an attack must be guarded.
type HitLevel uint8

const (
	LevelMid HitLevel = iota
	LevelHigh
	LevelLow
	LevelOverhead
)

// String returns the level name
func (l HitLevel) String() string {
	switch l {
	case LevelHigh:
		return "High"
	case LevelLow:
		return "Low"
	case LevelOverhead:
		return "Overhead"
	default:
		return "Mid"
	}
}

// IsUpper reports whether the level targets the upper body.
func (l HitLevel) IsUpper() bool {
	return l == LevelHigh || l == LevelOverhead
}

// KnockdownKind selects what an unblocked hit does to the defender.
type KnockdownKind uint8

const (
	KnockdownNone KnockdownKind = iota
	KnockdownSoft
	KnockdownHard
)

// String returns the knockdown name
func (k KnockdownKind) String() string {
	switch k {
	case KnockdownSoft:
		return "Soft"
	case KnockdownHard:
		return "Hard"
	default:
		return "None"
	}
}

// Contact is the outcome an attack instance has produced so far.
type Contact uint8

const (
	ContactWhiff Contact = iota
	ContactHit
	ContactBlock
)

// String returns the contact name
func (c Contact) String() string {
	switch c {
	case ContactHit:
		return "hit"
	case ContactBlock:
		return "block"
	default:
		return "whiff"
	}
}

// DamageInfo is the payload of a single hit. It is built fresh for every
// contact and passed by value.
type DamageInfo struct {
	Damage        int
	Level         HitLevel
	Hitstun       float64 // seconds
	Blockstun     float64 // seconds
	KnockbackX    float64 // world units/s, positive = away from attacker
	KnockbackY    float64
	Blockable     bool
	HitstopHit    float64 // seconds of global freeze on hit
	HitstopBlock  float64 // seconds of global freeze on block
	PushbackHit   float64 // world units, away from attacker
	PushbackBlock float64
	Knockdown     KnockdownKind
	MeterOnHit    int
	MeterOnBlock  int
	Super         bool // ignores dodge invulnerability
}

// DefaultDamageInfo is the base payload of a bare hitbox.
func DefaultDamageInfo() DamageInfo {
	return DamageInfo{
		Damage:        50,
		Level:         LevelMid,
		Hitstun:       0.3,
		Blockstun:     0.2,
		Blockable:     true,
		HitstopHit:    0.08,
		HitstopBlock:  0.05,
		PushbackHit:   20,
		PushbackBlock: 30,
		MeterOnHit:    50,
		MeterOnBlock:  20,
	}
}
