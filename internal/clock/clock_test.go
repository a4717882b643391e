package clock

import "testing"

// TestFreezeFramesTakesMax tests that overlapping freezes do not add up
func TestFreezeFramesTakesMax(t *testing.T) {
	c := New(1.0 / 60.0)

	c.FreezeFrames(10)
	c.FreezeFrames(4)
	if c.FrozenUntil() != 10 {
		t.Errorf("Expected frozen until 10, got %d", c.FrozenUntil())
	}

	for i := 0; i < 5; i++ {
		c.Advance()
	}
	c.FreezeFrames(8)
	if c.FrozenUntil() != 13 {
		t.Errorf("Expected frozen until 13, got %d", c.FrozenUntil())
	}
}

// TestFrozen tests the freeze window boundaries
func TestFrozen(t *testing.T) {
	c := New(1.0 / 60.0)
	if c.Frozen() {
		t.Fatal("New clock should not be frozen")
	}

	c.FreezeFrames(2)
	if !c.Frozen() {
		t.Error("Expected frozen at frame 0")
	}
	c.Advance()
	if !c.Frozen() {
		t.Error("Expected frozen at frame 1")
	}
	c.Advance()
	if c.Frozen() {
		t.Error("Expected thawed at frame 2")
	}
}

// TestFramesFor tests seconds to frame conversion
func TestFramesFor(t *testing.T) {
	c := New(1.0 / 60.0)

	tests := []struct {
		name    string
		seconds float64
		want    int
	}{
		{"zero", 0, 0},
		{"negative", -1, 0},
		{"exact", 0.1, 6},
		{"rounds up", 0.11, 7},
		{"one frame", 1.0 / 60.0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.FramesFor(tt.seconds); got != tt.want {
				t.Errorf("Expected %d frames, got %d", tt.want, got)
			}
		})
	}
}

// TestNow tests simulated time
func TestNow(t *testing.T) {
	c := New(0.5)
	c.Advance()
	c.Advance()
	if c.Now() != 1.0 {
		t.Errorf("Expected 1.0s, got %v", c.Now())
	}

	c.Reset()
	if c.Frame() != 0 || c.Now() != 0 {
		t.Error("Expected reset clock at zero")
	}
}
