package api

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"fight-core/internal/command"
	"fight-core/internal/match"
	"fight-core/internal/moves"
)

// TestDecodeClientMessage tests inbound websocket message parsing
func TestDecodeClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    clientMessage
		wantErr bool
	}{
		{
			name:  "ping",
			input: `{"type":"ping"}`,
			want:  clientMessage{Type: "ping"},
		},
		{
			name:  "commands",
			input: `{"type":"commands","slot":2,"commands":{"horizontal":-1,"light":true,"block":true}}`,
			want: clientMessage{Type: "commands", Slot: match.SlotP2, Commands: command.FighterCommands{
				Horizontal: -1, Light: true, Block: true,
			}},
		},
		{
			name:  "horizontal clamped",
			input: `{"type":"commands","slot":1,"commands":{"horizontal":7}}`,
			want:  clientMessage{Type: "commands", Slot: match.SlotP1, Commands: command.FighterCommands{Horizontal: 1}},
		},
		{
			name:  "action",
			input: `{"type":"action","slot":1,"action":"super"}`,
			want:  clientMessage{Type: "action", Slot: match.SlotP1, Action: moves.ActionSuper},
		},
		{name: "not json", input: `{"type":`, wantErr: true},
		{name: "unknown type", input: `{"type":"chat","slot":1}`, wantErr: true},
		{name: "unknown action", input: `{"type":"action","slot":1,"action":"Moonwalk"}`, wantErr: true},
		{name: "missing slot", input: `{"type":"commands","commands":{}}`, wantErr: true},
		{name: "commands not object", input: `{"type":"commands","slot":1,"commands":3}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeClientMessage([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

// TestEncodeEnvelope tests the outbound message shape
func TestEncodeEnvelope(t *testing.T) {
	hub := NewWebSocketHub(nil, nil)

	first, err := hub.encodeEnvelope("match:round", map[string]int{"round": 2})
	if err != nil {
		t.Fatalf("encodeEnvelope failed: %v", err)
	}
	second, _ := hub.encodeEnvelope("pong", nil)

	if ev := gjson.GetBytes(first, "event").String(); ev != "match:round" {
		t.Errorf("Expected event match:round, got %s", ev)
	}
	if r := gjson.GetBytes(first, "data.round").Int(); r != 2 {
		t.Errorf("Expected data.round 2, got %d", r)
	}
	if gjson.GetBytes(second, "seq").Uint() <= gjson.GetBytes(first, "seq").Uint() {
		t.Error("Expected increasing sequence numbers")
	}
	if !gjson.GetBytes(second, "data").Exists() {
		t.Error("Expected data key even for nil payload")
	}
}

// TestRemoteInput tests staleness, one-shot actions and slot checks
func TestRemoteInput(t *testing.T) {
	ri := NewRemoteInput(100 * time.Millisecond)
	now := time.Unix(1000, 0)
	ri.now = func() time.Time { return now }

	src := ri.Source(match.SlotP1)
	if !ri.Controls(match.SlotP1) || ri.Controls(match.SlotP2) {
		t.Fatal("Expected only P1 to be remote")
	}

	if err := ri.SetCommands(match.SlotP2, command.FighterCommands{Light: true}); !errors.Is(err, ErrSlotNotRemote) {
		t.Errorf("Expected ErrSlotNotRemote, got %v", err)
	}
	if err := ri.SetCommands(match.Slot(9), command.FighterCommands{}); !errors.Is(err, match.ErrInvalidSlot) {
		t.Errorf("Expected ErrInvalidSlot, got %v", err)
	}
	if err := ri.RequestAction(match.SlotP1, moves.ActionNone); !errors.Is(err, moves.ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}

	// Nothing sent yet
	if in := src.Poll(match.View{}); in.Commands != (command.FighterCommands{}) || in.Action != moves.ActionNone {
		t.Errorf("Expected neutral intent, got %+v", in)
	}

	ri.SetCommands(match.SlotP1, command.FighterCommands{Horizontal: 3, Heavy: true})
	ri.RequestAction(match.SlotP1, moves.ActionThrow)

	in := src.Poll(match.View{})
	if in.Commands.Horizontal != 1 || !in.Commands.Heavy {
		t.Errorf("Expected clamped held commands, got %+v", in.Commands)
	}
	if in.Action != moves.ActionThrow {
		t.Errorf("Expected Throw, got %v", in.Action)
	}

	// Action is delivered once; commands are held
	in = src.Poll(match.View{})
	if in.Action != moves.ActionNone {
		t.Errorf("Expected action to be one-shot, got %v", in.Action)
	}
	if !in.Commands.Heavy {
		t.Error("Expected commands to be held")
	}

	// Stale commands fall back to neutral
	now = now.Add(150 * time.Millisecond)
	if in := src.Poll(match.View{}); !in.Commands.IsNeutral() {
		t.Errorf("Expected stale commands to be dropped, got %+v", in.Commands)
	}
}

// TestControlAuthCheck tests token sources and the disabled guard
func TestControlAuthCheck(t *testing.T) {
	open := NewControlAuth("")
	if open.Enabled() {
		t.Error("Expected empty token to disable auth")
	}
	if !open.Check(httptest.NewRequest("GET", "/", nil)) {
		t.Error("Expected disabled auth to allow everything")
	}

	var nilAuth *ControlAuth
	if nilAuth.Enabled() || nilAuth.Rejected() != 0 {
		t.Error("Expected nil auth to be disabled")
	}

	auth := NewControlAuth("abc")
	tests := []struct {
		name   string
		target string
		header string
		value  string
		want   bool
	}{
		{"none", "/", "", "", false},
		{"query", "/?token=abc", "", "", true},
		{"query wrong", "/?token=abd", "", "", false},
		{"bearer", "/", "Authorization", "Bearer abc", true},
		{"basic ignored", "/", "Authorization", "Basic abc", false},
		{"header", "/", ControlTokenHeader, " abc ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			if got := auth.Check(r); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestIsAllowedOrigin tests the websocket origin allow list
func TestIsAllowedOrigin(t *testing.T) {
	defer SetAllowedOrigins(nil)

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"https://evil.example", false},
		{"https://arcade.example", false},
	}
	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin); got != tt.want {
			t.Errorf("IsAllowedOrigin(%q): expected %v, got %v", tt.origin, tt.want, got)
		}
	}

	SetAllowedOrigins([]string{"https://arcade.example"})
	if !IsAllowedOrigin("https://arcade.example") {
		t.Error("Expected configured origin to be allowed")
	}
}

// TestWebSocketRateLimiter tests per-IP connection slots
func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)

	if !wrl.Allow("1.2.3.4") || !wrl.Allow("1.2.3.4") {
		t.Fatal("Expected two connections to be allowed")
	}
	if wrl.Allow("1.2.3.4") {
		t.Error("Expected third connection to be rejected")
	}
	if !wrl.Allow("5.6.7.8") {
		t.Error("Expected other IP to be allowed")
	}

	wrl.Release("1.2.3.4")
	if got := wrl.GetConnectionCount("1.2.3.4"); got != 1 {
		t.Errorf("Expected 1 connection after release, got %d", got)
	}
}
