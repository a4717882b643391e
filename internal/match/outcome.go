package match

// Slot identifies one side of the match.
type Slot int

const (
	SlotNone Slot = 0
	SlotP1   Slot = 1
	SlotP2   Slot = 2
)

// Valid reports whether s names a fighter.
func (s Slot) Valid() bool { return s == SlotP1 || s == SlotP2 }

// String returns "p1" or "p2"
func (s Slot) String() string {
	switch s {
	case SlotP1:
		return "p1"
	case SlotP2:
		return "p2"
	default:
		return "none"
	}
}

func (s Slot) index() int { return int(s) - 1 }

// Outcome is the result of a round.
type Outcome uint8

const (
	OutcomeNone Outcome = iota // Round still running
	OutcomeP1Wins
	OutcomeP2Wins
	OutcomeDoubleKO
	OutcomeTimeOverDraw
)

// String returns the announcer text for the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeP1Wins:
		return "P1 Wins, P2 Loses"
	case OutcomeP2Wins:
		return "P2 Wins, P1 Loses"
	case OutcomeDoubleKO:
		return "Double KO - Draw"
	case OutcomeTimeOverDraw:
		return "Time Over - Draw"
	default:
		return ""
	}
}

// Winner returns the winning slot, or SlotNone for draws.
func (o Outcome) Winner() Slot {
	switch o {
	case OutcomeP1Wins:
		return SlotP1
	case OutcomeP2Wins:
		return SlotP2
	default:
		return SlotNone
	}
}

// Decided reports whether the round is over.
func (o Outcome) Decided() bool { return o != OutcomeNone }

// DecideOutcome applies the round decision table to terminal health values.
// Both at zero is a double KO; one at zero loses; on timeout the higher
// health wins and equal health is a draw. Otherwise the round continues.
func DecideOutcome(p1, p2 int, timeout bool) Outcome {
	switch {
	case p1 <= 0 && p2 <= 0:
		return OutcomeDoubleKO
	case p1 <= 0:
		return OutcomeP2Wins
	case p2 <= 0:
		return OutcomeP1Wins
	case !timeout:
		return OutcomeNone
	case p1 > p2:
		return OutcomeP1Wins
	case p2 > p1:
		return OutcomeP2Wins
	default:
		return OutcomeTimeOverDraw
	}
}
