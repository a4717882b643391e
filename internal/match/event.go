package match

import (
	"encoding/json"
	"time"
)

// EventType enum for combat trace classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Frame boundary
	EventTypeRoundStart
	EventTypeRoundEnd
	EventTypeStateChange
	EventTypeHit
	EventTypeBlock
	EventTypeHitRejected // Debug only, never surfaced to players
	EventTypeKO
	EventTypeSpecial
	EventTypeMeterDenied
)

// EventVersion for backwards compatibility of trace files
const EventVersion uint8 = 1

// Event is one line of the combat trace
type Event struct {
	Version   uint8           `json:"version"`   // Schema version
	Type      EventType       `json:"type"`      // Event type
	Timestamp int64           `json:"timestamp"` // Unix nano (wall clock)
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	Frame     uint64          `json:"frame"`     // Simulation frame this occurred in
	FighterID string          `json:"fighterId"` // Source fighter (for rate limiting)
	Payload   json.RawMessage `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeRoundStart:
		return "round_start"
	case EventTypeRoundEnd:
		return "round_end"
	case EventTypeStateChange:
		return "state_change"
	case EventTypeHit:
		return "hit"
	case EventTypeBlock:
		return "block"
	case EventTypeHitRejected:
		return "hit_rejected"
	case EventTypeKO:
		return "ko"
	case EventTypeSpecial:
		return "special"
	case EventTypeMeterDenied:
		return "meter_denied"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the type by name so traces stay readable
func (t EventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Typed payloads for different event types

// TickPayload marks a frame boundary
type TickPayload struct {
	Frozen    bool    `json:"frozen"`
	RoundTime float64 `json:"roundTime"`
}

// RoundPayload describes a round starting or ending
type RoundPayload struct {
	Round   int    `json:"round"`
	Outcome string `json:"outcome,omitempty"`
	Winner  int    `json:"winner,omitempty"`
	P1HP    int    `json:"p1Hp"`
	P2HP    int    `json:"p2Hp"`
	P1Wins  int    `json:"p1Wins"`
	P2Wins  int    `json:"p2Wins"`
}

// StatePayload records a committed state transition
type StatePayload struct {
	State string `json:"state"`
	Move  string `json:"move"`
}

// HitPayload contains resolved hit details (blocked or not)
type HitPayload struct {
	Attacker string  `json:"attacker"`
	Victim   string  `json:"victim"`
	Action   string  `json:"action"`
	Damage   int     `json:"damage"`
	VictimHP int     `json:"victimHp"`
	Combo    int     `json:"combo,omitempty"`
	Hitstop  float64 `json:"hitstop"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// RejectPayload explains a hit that had no effect
type RejectPayload struct {
	Attacker string `json:"attacker"`
	Victim   string `json:"victim"`
	Reason   string `json:"reason"`
}

// SpecialPayload names a completed special sequence
type SpecialPayload struct {
	Trigger string `json:"trigger"`
}

// MeterDeniedPayload records an action aborted for lack of meter
type MeterDeniedPayload struct {
	Action string `json:"action"`
	Cost   int    `json:"cost"`
	Have   int    `json:"have"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, frame uint64, fighterID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Frame:     frame,
		FighterID: fighterID,
		Payload:   EncodePayload(payload),
	}
}
