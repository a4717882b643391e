package command

import (
	"errors"
	"testing"
)

// fakeClock is a settable time source for tests
type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 { return c.now }

// TestParseToken tests name parsing for data files
func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Token
		wantErr bool
	}{
		{"full name", "Forward", TokenForward, false},
		{"lower case", "heavy", TokenHeavy, false},
		{"short alias", "d", TokenDown, false},
		{"padded", "  Light ", TokenLight, false},
		{"unknown", "kick", TokenNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToken(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownToken) {
					t.Errorf("Expected ErrUnknownToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// TestEdgeDetector tests that tokens fire on key-down only
func TestEdgeDetector(t *testing.T) {
	var d EdgeDetector

	got := d.Tokens(FighterCommands{Light: true}, 1)
	if len(got) != 1 || got[0] != TokenLight {
		t.Fatalf("Expected [Light], got %v", got)
	}

	got = d.Tokens(FighterCommands{Light: true}, 1)
	if len(got) != 0 {
		t.Errorf("Expected no tokens while holding, got %v", got)
	}

	got = d.Tokens(FighterCommands{Light: true, Heavy: true}, 1)
	if len(got) != 1 || got[0] != TokenHeavy {
		t.Errorf("Expected [Heavy], got %v", got)
	}
}

// TestEdgeDetectorThrow tests that Light+Heavy together produce Throw
func TestEdgeDetectorThrow(t *testing.T) {
	var d EdgeDetector
	got := d.Tokens(FighterCommands{Light: true, Heavy: true}, 1)
	if len(got) != 1 || got[0] != TokenThrow {
		t.Errorf("Expected [Throw], got %v", got)
	}
}

// TestEdgeDetectorDirections tests facing-relative directions and neutral
func TestEdgeDetectorDirections(t *testing.T) {
	tests := []struct {
		name       string
		horizontal float64
		facing     int
		want       Token
	}{
		{"right facing right", 1, 1, TokenForward},
		{"left facing right", -1, 1, TokenBack},
		{"left facing left", -1, -1, TokenForward},
		{"right facing left", 1, -1, TokenBack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d EdgeDetector
			got := d.Tokens(FighterCommands{Horizontal: tt.horizontal}, tt.facing)
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("Expected [%s], got %v", tt.want, got)
			}
			got = d.Tokens(FighterCommands{}, tt.facing)
			if len(got) != 1 || got[0] != TokenNeutral {
				t.Errorf("Expected [Neutral] on release, got %v", got)
			}
		})
	}
}

// TestCommandExpiry tests the 0.25s window boundaries
func TestCommandExpiry(t *testing.T) {
	clk := &fakeClock{}
	q := NewCommandQueue(clk, 0.25, 0.25)

	q.Enqueue(ChannelNormal, TokenLight)

	clk.now = 0.24
	tok, ok := q.TryPeek(ChannelNormal)
	if !ok || tok.Token != TokenLight {
		t.Fatalf("Expected Light at t=0.24, got %v (ok=%v)", tok, ok)
	}

	clk.now = 0.26
	if _, ok := q.TryPeek(ChannelNormal); ok {
		t.Error("Expected token expired at t=0.26")
	}
	if q.Len(ChannelNormal) != 0 {
		t.Errorf("Expected expired token evicted on peek, len=%d", q.Len(ChannelNormal))
	}
}

// TestCommandQueueLazyEviction tests that expiry only happens on access
func TestCommandQueueLazyEviction(t *testing.T) {
	clk := &fakeClock{}
	q := NewCommandQueue(clk, 0.25, 0.25)
	q.Enqueue(ChannelCombo, TokenDown)

	clk.now = 1.0
	if q.Len(ChannelCombo) != 1 {
		t.Errorf("Expected expired token still stored before access, len=%d", q.Len(ChannelCombo))
	}
	if _, ok := q.TryDequeue(ChannelCombo); ok {
		t.Error("Expected no live token")
	}
	if q.Len(ChannelCombo) != 0 {
		t.Errorf("Expected eviction after dequeue, len=%d", q.Len(ChannelCombo))
	}
}

// TestEnqueueRejectsNone tests that None is never stored
func TestEnqueueRejectsNone(t *testing.T) {
	q := NewCommandQueue(&fakeClock{}, 0, 0)
	tapped := 0
	q.SetTapObserver(func(Channel, TimedToken) { tapped++ })

	q.Enqueue(ChannelNormal, TokenNone)
	if q.Len(ChannelNormal) != 0 {
		t.Error("None must not be enqueued")
	}
	if tapped != 0 {
		t.Error("Observer must not see None")
	}
	if q.Window(ChannelNormal) != DefaultWindow {
		t.Errorf("Expected default window, got %v", q.Window(ChannelNormal))
	}
}

// TestHandlerPriority tests descending priority dispatch with stable ties
func TestHandlerPriority(t *testing.T) {
	q := NewCommandQueue(&fakeClock{}, 0.25, 0.25)
	var order []string

	q.RegisterHandler(ChannelNormal, TokenHeavy, func(TimedToken) bool {
		order = append(order, "low")
		return false
	}, 1)
	q.RegisterHandler(ChannelNormal, TokenHeavy, func(TimedToken) bool {
		order = append(order, "high-a")
		return false
	}, 10)
	q.RegisterHandler(ChannelNormal, TokenHeavy, func(TimedToken) bool {
		order = append(order, "high-b")
		return false
	}, 10)

	q.Enqueue(ChannelNormal, TokenHeavy)

	want := []string{"high-a", "high-b", "low"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, order)
			break
		}
	}
}

// TestHandlerConsumes tests that the first consumer stops dispatch
func TestHandlerConsumes(t *testing.T) {
	q := NewCommandQueue(&fakeClock{}, 0.25, 0.25)
	var tapOrder []string
	lowCalled := false

	q.SetTapObserver(func(Channel, TimedToken) { tapOrder = append(tapOrder, "tap") })
	q.RegisterHandler(ChannelNormal, TokenLight, func(TimedToken) bool {
		tapOrder = append(tapOrder, "handler")
		return true
	}, 5)
	q.RegisterHandler(ChannelNormal, TokenLight, func(TimedToken) bool {
		lowCalled = true
		return true
	}, 0)

	if !q.Enqueue(ChannelNormal, TokenLight) {
		t.Error("Expected token consumed")
	}
	if lowCalled {
		t.Error("Lower priority handler must not run after consumption")
	}
	if len(tapOrder) != 2 || tapOrder[0] != "tap" {
		t.Errorf("Expected observer before handlers, got %v", tapOrder)
	}
	if q.Len(ChannelNormal) != 0 {
		t.Error("Consumed token must be removed from the channel")
	}
}

// TestChannelsIndependent tests that channels do not share tokens
func TestChannelsIndependent(t *testing.T) {
	q := NewCommandQueue(&fakeClock{}, 0.25, 0.5)
	q.Enqueue(ChannelCombo, TokenDown)

	if _, ok := q.TryPeek(ChannelNormal); ok {
		t.Error("Normal channel should be empty")
	}
	tok, ok := q.TryDequeue(ChannelCombo)
	if !ok || tok.Token != TokenDown {
		t.Errorf("Expected Down from combo, got %v", tok)
	}
}

// TestIndexKMP tests the substring search
func TestIndexKMP(t *testing.T) {
	D, F, H, L := TokenDown, TokenForward, TokenHeavy, TokenLight

	tests := []struct {
		name    string
		text    []Token
		pattern []Token
		want    int
	}{
		{"exact", []Token{D, F, H}, []Token{D, F, H}, 0},
		{"suffix", []Token{L, D, F, H}, []Token{D, F, H}, 1},
		{"overlap restart", []Token{D, D, F, D, F, H}, []Token{D, F, H}, 3},
		{"missing", []Token{D, H, F}, []Token{D, F, H}, -1},
		{"too long", []Token{D}, []Token{D, F}, -1},
		{"empty pattern", []Token{D}, nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IndexKMP(tt.text, tt.pattern); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}
