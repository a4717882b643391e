package match

import (
	"fight-core/internal/command"
	"fight-core/internal/moves"
)

// View is what an input source may see of the match: read-only copies of
// both fighters, taken before this frame's commands are applied.
type View struct {
	Frame    uint64
	Now      float64
	Self     FighterSnapshot
	Opponent FighterSnapshot
}

// Distance returns the horizontal gap between the two fighters.
func (v View) Distance() float64 {
	d := v.Opponent.X - v.Self.X
	if d < 0 {
		return -d
	}
	return d
}

// Intent is one frame of input for one fighter. Commands replace the
// previous snapshot; Action, when set, is requested on top of them.
type Intent struct {
	Commands command.FighterCommands
	Action   moves.ActionID
}

// InputSource produces the intent for one slot each frame. Exactly one
// source drives each slot.
type InputSource interface {
	Poll(v View) Intent
}

// InputFunc adapts a plain function to InputSource.
type InputFunc func(v View) Intent

// Poll calls fn(v).
func (fn InputFunc) Poll(v View) Intent { return fn(v) }

// Idle is an input source that never presses anything.
var Idle InputSource = InputFunc(func(View) Intent { return Intent{} })
