package combat

import (
	"github.com/solarlune/resolv"
)

const (
	tagHurtbox = "hurtbox"
	tagHitbox  = "hitbox"
)

// Detector finds hitbox/hurtbox overlaps. A resolv space does the cell-based
// broad phase; candidates are then confirmed with an exact AABB test.
type Detector struct {
	space  *resolv.Space
	width  float64
	height float64

	hurt  map[*Hurtbox]*resolv.Object
	hits  map[*Hitbox]*resolv.Object
	owner map[*resolv.Object]*Hurtbox

	out []*Hurtbox
}

// NewDetector creates a detector covering a width x height world.
func NewDetector(width, height float64, cellSize int) *Detector {
	if cellSize <= 0 {
		cellSize = 32
	}
	return &Detector{
		space:  resolv.NewSpace(int(width), int(height), cellSize, cellSize),
		width:  width,
		height: height,
		hurt:   make(map[*Hurtbox]*resolv.Object),
		hits:   make(map[*Hitbox]*resolv.Object),
		owner:  make(map[*resolv.Object]*Hurtbox),
		out:    make([]*Hurtbox, 0, 6),
	}
}

// AddHurtbox registers a hurtbox with the broad phase.
func (d *Detector) AddHurtbox(h *Hurtbox) {
	if _, ok := d.hurt[h]; ok {
		return
	}
	obj := resolv.NewObject(0, 0, 1, 1, tagHurtbox)
	d.hurt[h] = obj
	d.owner[obj] = h
	d.space.Add(obj)
	d.syncObject(obj, h.World)
}

// AddHitbox registers a hitbox with the broad phase.
func (d *Detector) AddHitbox(h *Hitbox) {
	if _, ok := d.hits[h]; ok {
		return
	}
	obj := resolv.NewObject(0, 0, 1, 1, tagHitbox)
	d.hits[h] = obj
	d.space.Add(obj)
	d.syncObject(obj, h.World)
}

// Remove unregisters every box belonging to owner.
func (d *Detector) Remove(owner int) {
	for h, obj := range d.hurt {
		if h.Owner == owner {
			d.space.Remove(obj)
			delete(d.owner, obj)
			delete(d.hurt, h)
		}
	}
	for h, obj := range d.hits {
		if h.Owner == owner {
			d.space.Remove(obj)
			delete(d.hits, h)
		}
	}
}

// Sync copies the current world rects into the broad phase.
// Call once per frame after fighters have refreshed their boxes.
func (d *Detector) Sync() {
	for h, obj := range d.hurt {
		d.syncObject(obj, h.World)
	}
	for h, obj := range d.hits {
		d.syncObject(obj, h.World)
	}
}

// Overlaps returns the enabled hurtboxes of other owners touched by an active
// hitbox. The returned slice is reused on the next call.
func (d *Detector) Overlaps(hb *Hitbox) []*Hurtbox {
	d.out = d.out[:0]
	if hb == nil || !hb.Active || hb.World.Empty() {
		return d.out
	}
	obj, ok := d.hits[hb]
	if !ok {
		return d.out
	}

	collision := obj.Check(0, 0, tagHurtbox)
	if collision == nil {
		return d.out
	}
	for _, other := range collision.ObjectsByTags(tagHurtbox) {
		h := d.owner[other]
		if h == nil || h.Owner == hb.Owner || !h.Enabled {
			continue
		}
		if hb.World.Intersects(h.World) {
			d.out = append(d.out, h)
		}
	}
	sortByRegion(d.out)
	return d.out
}

// syncObject clamps rect into the space so every box lands in some cell.
func (d *Detector) syncObject(obj *resolv.Object, r Rect) {
	x, y, w, h := r.X, r.Y, r.W, r.H
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x = clamp(x, 0, d.width-w)
	y = clamp(y, 0, d.height-h)
	obj.X, obj.Y, obj.W, obj.H = x, y, w, h
	obj.Update()
}

// sortByRegion orders results head to legs so detection is deterministic
// regardless of map iteration order.
func sortByRegion(boxes []*Hurtbox) {
	for i := 1; i < len(boxes); i++ {
		for j := i; j > 0 && less(boxes[j], boxes[j-1]); j-- {
			boxes[j], boxes[j-1] = boxes[j-1], boxes[j]
		}
	}
}

func less(a, b *Hurtbox) bool {
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	return a.Region < b.Region
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
