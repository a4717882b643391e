package combat

// Rect is an axis-aligned box; X,Y is the top-left corner (y grows downward).
type Rect struct {
	X, Y, W, H float64
}

// Intersects reports strict overlap; touching edges do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Place converts a rect authored relative to a fighter's feet (facing right,
// y up) into world space at origin with the given facing.
func (r Rect) Place(originX, originY float64, facing int) Rect {
	x := originX + r.X
	if facing < 0 {
		x = originX - r.X - r.W
	}
	return Rect{X: x, Y: originY - r.Y - r.H, W: r.W, H: r.H}
}

// Region tags which part of the body a hurtbox covers.
type Region uint8

const (
	RegionHead Region = iota
	RegionTorso
	RegionLegs
)

// String returns the region name
func (r Region) String() string {
	switch r {
	case RegionHead:
		return "Head"
	case RegionTorso:
		return "Torso"
	default:
		return "Legs"
	}
}

// IsUpper reports whether upper-body invulnerability covers the region.
func (r Region) IsUpper() bool {
	return r != RegionLegs
}

// Posture is a bit set of body postures.
type Posture uint8

const (
	PostureStanding Posture = 1 << iota
	PostureCrouching
	PostureAirborne

	PostureAll = PostureStanding | PostureCrouching | PostureAirborne
)

// Hurtbox is a vulnerable body region owned by one fighter.
// Enabled and World are recomputed every frame by Refresh.
type Hurtbox struct {
	Owner    int
	Region   Region
	Local    Rect
	Postures Posture

	World   Rect
	Enabled bool
}

// Refresh recomputes the world rect and the enabled flag for this frame.
func (h *Hurtbox) Refresh(posture Posture, upperInvuln, lowerInvuln bool, originX, originY float64, facing int) {
	h.World = h.Local.Place(originX, originY, facing)

	invulnerable := (h.Region.IsUpper() && upperInvuln) || (!h.Region.IsUpper() && lowerInvuln)
	h.Enabled = h.Postures&posture != 0 && !invulnerable
}

// Hitbox is an attack region owned by one fighter. It is only active during
// the active phase of a move.
type Hitbox struct {
	Owner  int
	Local  Rect
	World  Rect
	Active bool
	Base   DamageInfo
}

// Place positions the hitbox for this frame. A non-empty override replaces
// the authored local rect (moves carry their own reach).
func (h *Hitbox) Place(override Rect, originX, originY float64, facing int) {
	local := h.Local
	if !override.Empty() {
		local = override
	}
	h.World = local.Place(originX, originY, facing)
}

// DefaultHurtboxes returns the standard three-region body for a fighter.
// Crouching drops the head box; the torso shrinks by sharing the legs box.
func DefaultHurtboxes(owner int) []*Hurtbox {
	return []*Hurtbox{
		{Owner: owner, Region: RegionHead, Local: Rect{X: -15, Y: 130, W: 30, H: 30}, Postures: PostureStanding | PostureAirborne},
		{Owner: owner, Region: RegionTorso, Local: Rect{X: -25, Y: 60, W: 50, H: 70}, Postures: PostureAll},
		{Owner: owner, Region: RegionLegs, Local: Rect{X: -25, Y: 0, W: 50, H: 60}, Postures: PostureAll},
	}
}
