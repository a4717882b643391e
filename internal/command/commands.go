package command

// AxisThreshold is the horizontal magnitude that counts as a held direction.
const AxisThreshold = 0.5

// FighterCommands is the normalized intent for one frame.
// Exactly one input source produces it per frame; it is overwritten, never queued.
type FighterCommands struct {
	Horizontal float64 `json:"horizontal"` // -1 (left) .. 1 (right), world space
	Jump       bool    `json:"jump"`
	Crouch     bool    `json:"crouch"`
	Light      bool    `json:"light"`
	Heavy      bool    `json:"heavy"`
	Block      bool    `json:"block"`
	Dodge      bool    `json:"dodge"`
}

// IsNeutral reports whether no input at all is held.
func (c FighterCommands) IsNeutral() bool {
	return c == FighterCommands{}
}

// EdgeDetector converts consecutive snapshots into edge-triggered tokens.
// Holding a button never repeats its token.
type EdgeDetector struct {
	prev    FighterCommands
	prevDir Token
}

// Reset forgets the previous snapshot.
func (d *EdgeDetector) Reset() {
	d.prev = FighterCommands{}
	d.prevDir = TokenNone
}

// Tokens returns the tokens produced by this frame's snapshot, directions first.
// facing is +1 when facing right and -1 when facing left; Forward/Back are
// relative to it. Light and Heavy pressed on the same frame produce Throw.
func (d *EdgeDetector) Tokens(cmd FighterCommands, facing int) []Token {
	var out []Token

	dir := directionOf(cmd, facing)
	if dir != d.prevDir {
		switch {
		case dir != TokenNone:
			out = append(out, dir)
		case d.prevDir != TokenNone:
			out = append(out, TokenNeutral)
		}
	}
	d.prevDir = dir

	lightEdge := cmd.Light && !d.prev.Light
	heavyEdge := cmd.Heavy && !d.prev.Heavy
	switch {
	case lightEdge && heavyEdge:
		out = append(out, TokenThrow)
	case lightEdge:
		out = append(out, TokenLight)
	case heavyEdge:
		out = append(out, TokenHeavy)
	}

	d.prev = cmd
	return out
}

// directionOf picks a single dominant direction; vertical wins over horizontal.
func directionOf(cmd FighterCommands, facing int) Token {
	switch {
	case cmd.Jump:
		return TokenUp
	case cmd.Crouch:
		return TokenDown
	}
	h := cmd.Horizontal
	if facing < 0 {
		h = -h
	}
	switch {
	case h > AxisThreshold:
		return TokenForward
	case h < -AxisThreshold:
		return TokenBack
	}
	return TokenNone
}
