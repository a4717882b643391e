package fighter

// ResourceObserver receives (current, max) after every change.
type ResourceObserver func(current, max int)

// Resource is a clamped integer accumulator in [0, max] (health, meter).
type Resource struct {
	current   int
	max       int
	observers []ResourceObserver
}

// NewResource creates a resource starting at initial, clamped to [0, max].
func NewResource(max, initial int) *Resource {
	if max < 0 {
		max = 0
	}
	return &Resource{current: clampInt(initial, 0, max), max: max}
}

// Current returns the current value.
func (r *Resource) Current() int { return r.current }

// Max returns the upper bound.
func (r *Resource) Max() int { return r.max }

// Ratio returns current/max, or 0 for an empty resource.
func (r *Resource) Ratio() float64 {
	if r.max == 0 {
		return 0
	}
	return float64(r.current) / float64(r.max)
}

// Full reports whether the resource is at its maximum.
func (r *Resource) Full() bool { return r.current >= r.max }

// Empty reports whether the resource is at zero.
func (r *Resource) Empty() bool { return r.current <= 0 }

// Add applies delta with clamping and returns the change actually applied.
func (r *Resource) Add(delta int) int {
	before := r.current
	r.set(clampInt(r.current+delta, 0, r.max))
	return r.current - before
}

// Spend removes n atomically. It removes nothing and returns false when the
// resource holds less than n.
func (r *Resource) Spend(n int) bool {
	if n <= 0 {
		return true
	}
	if r.current < n {
		return false
	}
	r.set(r.current - n)
	return true
}

// Set replaces the value, clamped.
func (r *Resource) Set(v int) {
	r.set(clampInt(v, 0, r.max))
}

// Bind registers an observer and calls it immediately with the current
// value, so late subscribers start in sync.
func (r *Resource) Bind(fn ResourceObserver) {
	if fn == nil {
		return
	}
	r.observers = append(r.observers, fn)
	fn(r.current, r.max)
}

func (r *Resource) set(v int) {
	if v == r.current {
		return
	}
	r.current = v
	for _, fn := range r.observers {
		fn(r.current, r.max)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
