// Package command turns per-frame input snapshots into discrete tokens,
// buffers them per channel and recognises special-move sequences.
package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownToken is returned when a token name cannot be parsed.
var ErrUnknownToken = errors.New("command: unknown token")

// Token is a discrete input symbol emitted on key-down edges only.
type Token uint8

const (
	TokenNone Token = iota
	TokenLight
	TokenHeavy
	TokenThrow
	TokenUp
	TokenDown
	TokenForward
	TokenBack
	TokenNeutral
)

// String returns the token name used in data files
func (t Token) String() string {
	switch t {
	case TokenLight:
		return "Light"
	case TokenHeavy:
		return "Heavy"
	case TokenThrow:
		return "Throw"
	case TokenUp:
		return "Up"
	case TokenDown:
		return "Down"
	case TokenForward:
		return "Forward"
	case TokenBack:
		return "Back"
	case TokenNeutral:
		return "Neutral"
	default:
		return "None"
	}
}

// IsDirection reports whether the token is a stick direction (incl. Neutral).
func (t Token) IsDirection() bool {
	return t >= TokenUp && t <= TokenNeutral
}

// ParseToken converts a data-file name into a Token. Matching is case-insensitive.
func ParseToken(name string) (Token, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light", "l":
		return TokenLight, nil
	case "heavy", "h":
		return TokenHeavy, nil
	case "throw", "t":
		return TokenThrow, nil
	case "up", "u":
		return TokenUp, nil
	case "down", "d":
		return TokenDown, nil
	case "forward", "f":
		return TokenForward, nil
	case "back", "b":
		return TokenBack, nil
	case "neutral", "n":
		return TokenNeutral, nil
	}
	return TokenNone, fmt.Errorf("%w: %q", ErrUnknownToken, name)
}

// ParseTokens parses a list of token names.
func ParseTokens(names []string) ([]Token, error) {
	out := make([]Token, 0, len(names))
	for _, n := range names {
		tok, err := ParseToken(n)
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// TimedToken is a token stamped with the simulated time it was produced.
type TimedToken struct {
	Token Token
	Time  float64
}
