package combat

import "testing"

func newBodies(d *Detector, owner int, x, y float64, facing int) []*Hurtbox {
	boxes := DefaultHurtboxes(owner)
	for _, h := range boxes {
		h.Refresh(PostureStanding, false, false, x, y, facing)
		d.AddHurtbox(h)
	}
	return boxes
}

// TestRectPlace tests facing mirroring
func TestRectPlace(t *testing.T) {
	r := Rect{X: 10, Y: 50, W: 40, H: 20}

	right := r.Place(100, 600, 1)
	if right.X != 110 || right.Y != 530 {
		t.Errorf("Expected (110,530), got (%v,%v)", right.X, right.Y)
	}

	left := r.Place(100, 600, -1)
	if left.X != 50 {
		t.Errorf("Expected mirrored x 50, got %v", left.X)
	}
}

// TestHurtboxRefresh tests posture and region gating
func TestHurtboxRefresh(t *testing.T) {
	boxes := DefaultHurtboxes(1)
	head, torso, legs := boxes[0], boxes[1], boxes[2]

	for _, h := range boxes {
		h.Refresh(PostureCrouching, false, false, 0, 600, 1)
	}
	if head.Enabled {
		t.Error("Head should be disabled while crouching")
	}
	if !torso.Enabled || !legs.Enabled {
		t.Error("Torso and legs should stay enabled while crouching")
	}

	for _, h := range boxes {
		h.Refresh(PostureStanding, true, false, 0, 600, 1)
	}
	if head.Enabled || torso.Enabled {
		t.Error("Upper invulnerability should disable head and torso")
	}
	if !legs.Enabled {
		t.Error("Legs should stay enabled under upper invulnerability")
	}
}

// TestDetectorOverlaps tests broad and narrow phase together
func TestDetectorOverlaps(t *testing.T) {
	d := NewDetector(1200, 720, 32)
	newBodies(d, 1, 500, 600, 1)
	newBodies(d, 2, 560, 600, -1)

	hb := &Hitbox{Owner: 1, Local: Rect{X: 20, Y: 80, W: 60, H: 20}, Active: true}
	hb.Place(Rect{}, 500, 600, 1)
	d.AddHitbox(hb)
	d.Sync()

	got := d.Overlaps(hb)
	if len(got) == 0 {
		t.Fatal("Expected overlap with the opponent torso")
	}
	for _, h := range got {
		if h.Owner == 1 {
			t.Error("Hitbox must never report its own hurtboxes")
		}
	}

	hb.Active = false
	if len(d.Overlaps(hb)) != 0 {
		t.Error("Inactive hitbox must not overlap")
	}
}

// TestDetectorMiss tests distant fighters
func TestDetectorMiss(t *testing.T) {
	d := NewDetector(1200, 720, 32)
	newBodies(d, 1, 200, 600, 1)
	newBodies(d, 2, 900, 600, -1)

	hb := &Hitbox{Owner: 1, Local: Rect{X: 20, Y: 80, W: 60, H: 20}, Active: true}
	hb.Place(Rect{}, 200, 600, 1)
	d.AddHitbox(hb)
	d.Sync()

	if n := len(d.Overlaps(hb)); n != 0 {
		t.Errorf("Expected no overlaps, got %d", n)
	}
}

// TestDetectorRemove tests owner removal
func TestDetectorRemove(t *testing.T) {
	d := NewDetector(1200, 720, 32)
	newBodies(d, 1, 500, 600, 1)
	newBodies(d, 2, 540, 600, -1)

	hb := &Hitbox{Owner: 1, Local: Rect{X: 0, Y: 60, W: 80, H: 40}, Active: true}
	hb.Place(Rect{}, 500, 600, 1)
	d.AddHitbox(hb)
	d.Remove(2)
	d.Sync()

	if n := len(d.Overlaps(hb)); n != 0 {
		t.Errorf("Expected removed owner to be invisible, got %d overlaps", n)
	}
}

// TestHitRegistry tests at-most-once recording per instance
func TestHitRegistry(t *testing.T) {
	r := NewHitRegistry()
	r.Begin()

	if !r.Record(2) {
		t.Fatal("First record should succeed")
	}
	if r.Record(2) {
		t.Error("Second record in the same instance must fail")
	}

	r.Begin()
	if !r.Record(2) {
		t.Error("New instance should accept the target again")
	}
	if r.Instance() != 2 {
		t.Errorf("Expected instance 2, got %d", r.Instance())
	}
}
