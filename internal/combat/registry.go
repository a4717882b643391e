package combat

// HitRegistry remembers which targets an attack instance already hit, so an
// instance damages each target at most once even when several region pairs
// overlap on the same frame.
type HitRegistry struct {
	instance uint64
	hit      map[int]struct{}
}

// NewHitRegistry creates an empty registry.
func NewHitRegistry() *HitRegistry {
	return &HitRegistry{hit: make(map[int]struct{}, 2)}
}

// Begin starts a new attack instance and forgets earlier victims.
func (r *HitRegistry) Begin() uint64 {
	r.instance++
	clear(r.hit)
	return r.instance
}

// Instance returns the current attack instance number.
func (r *HitRegistry) Instance() uint64 {
	return r.instance
}

// Has reports whether target was already hit by the current instance.
func (r *HitRegistry) Has(target int) bool {
	_, ok := r.hit[target]
	return ok
}

// Record marks target as hit. Returns false if it already was.
func (r *HitRegistry) Record(target int) bool {
	if r.Has(target) {
		return false
	}
	r.hit[target] = struct{}{}
	return true
}

// Count returns how many targets the current instance has hit.
func (r *HitRegistry) Count() int {
	return len(r.hit)
}
