package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"fight-core/internal/config"
	"fight-core/internal/match"
)

func engineSnapshot(t *testing.T) match.MatchSnapshot {
	t.Helper()
	e, err := match.NewEngine(match.Options{Match: config.DefaultMatch()})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	e.Step()
	return e.GetSnapshot()
}

// TestFrameSize tests that the frame matches the requested size
func TestFrameSize(t *testing.T) {
	snap := engineSnapshot(t)

	tests := []struct {
		name string
		opts Options
		w, h int
	}{
		{"default", DefaultOptions(), 960, 540},
		{"custom", Options{Width: 320, Height: 180, WorldWidth: 1200, GroundY: 600}, 320, 180},
		{"zero falls back", Options{}, 960, 540},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Frame(snap, tt.opts).Bounds()
			if b.Dx() != tt.w || b.Dy() != tt.h {
				t.Errorf("Expected %dx%d, got %dx%d", tt.w, tt.h, b.Dx(), b.Dy())
			}
		})
	}
}

// TestFrozenOverlay tests that freeze frames are tinted
func TestFrozenOverlay(t *testing.T) {
	snap := engineSnapshot(t)
	opts := DefaultOptions()
	opts.Labels = false

	plain := Frame(snap, opts).At(41, 530)
	snap.Frozen = true
	tinted := Frame(snap, opts).At(41, 530)

	if colorEqual(plain, tinted) {
		t.Error("Expected the frozen overlay to change the background")
	}
	if !colorEqual(plain, colorBackground) {
		r, g, b, _ := plain.RGBA()
		t.Errorf("Expected background colour, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

// TestActiveHitboxDrawn tests that an active hitbox shows up in red
func TestActiveHitboxDrawn(t *testing.T) {
	snap := engineSnapshot(t)
	snap.Fighters[0].Hitbox = match.BoxSnapshot{X: 100, Y: 300, W: 200, H: 200, Enabled: true}

	opts := DefaultOptions()
	opts.Labels = false
	img := Frame(snap, opts)

	// World (200, 400) maps to screen (160, 500-(600-400)*0.8).
	if got := img.At(160, 340); !colorEqual(got, colorHitbox) {
		r, g, b, _ := got.RGBA()
		t.Errorf("Expected hitbox red, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

// TestPNG tests that the encoded frame decodes
func TestPNG(t *testing.T) {
	data, err := PNG(engineSnapshot(t), DefaultOptions())
	if err != nil {
		t.Fatalf("PNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 960 {
		t.Errorf("Expected width 960, got %d", img.Bounds().Dx())
	}
}

// TestRatio tests bar fill clamping
func TestRatio(t *testing.T) {
	tests := []struct {
		v, total int
		want     float64
	}{
		{500, 1000, 0.5},
		{-10, 1000, 0},
		{2000, 1000, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := ratio(tt.v, tt.total); got != tt.want {
			t.Errorf("ratio(%d, %d): expected %v, got %v", tt.v, tt.total, tt.want, got)
		}
	}
}

func colorEqual(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}
