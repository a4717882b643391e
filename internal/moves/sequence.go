package moves

import "fight-core/internal/command"

// SequenceKind selects how a matched special is executed.
type SequenceKind uint8

const (
	SequenceAttack SequenceKind = iota
	SequenceHeal
)

// String returns the kind name
func (k SequenceKind) String() string {
	if k == SequenceHeal {
		return "heal"
	}
	return "attack"
}

// Sequence is one authored special: a token pattern routed to a trigger.
type Sequence struct {
	Name    string
	Tokens  []command.Token
	Trigger ActionID
	Kind    SequenceKind
	Window  float64 // seconds; zero uses the matcher default
	MinHP   int     // heal only: health required to start
}

// Pattern converts the sequence for the command matcher.
func (s Sequence) Pattern() command.Pattern[ActionID] {
	return command.Pattern[ActionID]{
		Tokens:  s.Tokens,
		Window:  s.Window,
		Trigger: s.Trigger,
	}
}
