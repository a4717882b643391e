package moves

import (
	"sort"

	"fight-core/internal/command"
)

// Table is the read-only design data for one match: moves by action,
// specials in authored order, and fighter stats. A Table is never mutated
// after construction; hot reload swaps in a new one.
type Table struct {
	moves     map[ActionID]*Move
	sequences []Sequence
	byTrigger map[ActionID]Sequence
	stats     FighterStats
}

// NewTable builds a table. Later moves with the same ID replace earlier ones;
// sequences keep their order, first one wins for per-trigger lookups.
func NewTable(moveList []*Move, sequences []Sequence, stats FighterStats) *Table {
	t := &Table{
		moves:     make(map[ActionID]*Move, len(moveList)),
		sequences: make([]Sequence, 0, len(sequences)),
		byTrigger: make(map[ActionID]Sequence, len(sequences)),
		stats:     stats,
	}
	for _, m := range moveList {
		if m != nil && m.ID.Valid() {
			t.moves[m.ID] = m
		}
	}
	for _, s := range sequences {
		if len(s.Tokens) < command.MinSequenceLength || !s.Trigger.Valid() {
			continue
		}
		t.sequences = append(t.sequences, s)
		if _, ok := t.byTrigger[s.Trigger]; !ok {
			t.byTrigger[s.Trigger] = s
		}
	}
	return t
}

// Move looks up an action's definition.
func (t *Table) Move(id ActionID) (*Move, bool) {
	m, ok := t.moves[id]
	return m, ok
}

// MoveOrDefault never fails: a miss yields built-in default frame data.
func (t *Table) MoveOrDefault(id ActionID) *Move {
	if m, ok := t.moves[id]; ok {
		return m
	}
	return DefaultMove(id)
}

// Sequences returns the recognised specials in authored order.
func (t *Table) Sequences() []Sequence {
	return t.sequences
}

// SequenceFor returns the first special routed to trigger.
func (t *Table) SequenceFor(trigger ActionID) (Sequence, bool) {
	s, ok := t.byTrigger[trigger]
	return s, ok
}

// Patterns returns the specials in the form the command matcher consumes.
func (t *Table) Patterns() []command.Pattern[ActionID] {
	out := make([]command.Pattern[ActionID], len(t.sequences))
	for i, s := range t.sequences {
		out[i] = s.Pattern()
	}
	return out
}

// Actions lists every defined action in ID order.
func (t *Table) Actions() []ActionID {
	out := make([]ActionID, 0, len(t.moves))
	for id := range t.moves {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stats returns the fighter tuning.
func (t *Table) Stats() FighterStats {
	return t.stats
}

// LoadTable builds a table from authored moves and sequences documents,
// using the default fighter stats.
func LoadTable(movesYAML, sequencesYAML []byte) (*Table, error) {
	moveList, err := ParseMoves(movesYAML)
	if err != nil {
		return nil, err
	}
	seqs, err := ParseSequences(sequencesYAML)
	if err != nil {
		return nil, err
	}
	return NewTable(moveList, seqs, DefaultStats()), nil
}
