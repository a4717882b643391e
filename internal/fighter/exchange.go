package fighter

import (
	"fight-core/internal/combat"
	"fight-core/internal/moves"
)

// PendingHit is one overlap found by detection. Pending hits are resolved
// after every attacker has been checked so that simultaneous hits trade.
type PendingHit struct {
	Attacker *Fighter
	Victim   *Fighter
	Info     combat.DamageInfo
	X, Y     float64
}

// Hit is a resolved contact.
type Hit struct {
	PendingHit
	Result combat.Resolution
}

// Detect finds at most one pending hit per (attacker, victim) among attack
// instances that have not hit that victim yet. Several overlapping region
// pairs still produce a single pending hit.
func Detect(det *combat.Detector, attackers ...*Fighter) []PendingHit {
	det.Sync()

	var out []PendingHit
	for _, a := range attackers {
		hb := a.hitbox
		if !hb.Active || a.move == nil {
			continue
		}
		for _, hurt := range det.Overlaps(hb) {
			victim := a.opponent
			if victim == nil || hurt.Owner != victim.id {
				continue
			}
			if a.registry.Has(victim.id) {
				break
			}
			cx, cy := center(hb.World, hurt.World)
			out = append(out, PendingHit{
				Attacker: a,
				Victim:   victim,
				Info:     moves.BuildDamageInfo(hb.Base, a.move),
				X:        cx,
				Y:        cy,
			})
			break
		}
	}
	return out
}

// Apply resolves pending hits in order and returns those that were not
// rejected. A rejected hit leaves the attack instance free to connect on a
// later frame.
func Apply(pending []PendingHit) []Hit {
	var out []Hit
	for _, p := range pending {
		res, ok := p.Attacker.deliver(p.Victim, p.Info, p.X, p.Y)
		if !ok {
			continue
		}
		out = append(out, Hit{PendingHit: p, Result: res})
	}
	return out
}

// deliver resolves one hit from f against victim, at most once per attack
// instance.
func (f *Fighter) deliver(victim *Fighter, info combat.DamageInfo, x, y float64) (combat.Resolution, bool) {
	if f.registry.Has(victim.id) {
		return combat.Resolution{Rejected: true}, false
	}
	res := victim.takeHit(f, info, x, y)
	if res.Rejected {
		return res, false
	}
	f.registry.Record(victim.id)
	return res, true
}

// Register adds the fighter's boxes to a detector.
func (f *Fighter) Register(det *combat.Detector) {
	for _, h := range f.hurtboxes {
		det.AddHurtbox(h)
	}
	det.AddHitbox(f.hitbox)
}

func center(a, b combat.Rect) (float64, float64) {
	x0 := max(a.X, b.X)
	y0 := max(a.Y, b.Y)
	x1 := min(a.X+a.W, b.X+b.W)
	y1 := min(a.Y+a.H, b.Y+b.H)
	return (x0 + x1) / 2, (y0 + y1) / 2
}
