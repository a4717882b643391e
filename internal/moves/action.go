// Package moves holds the read-only design data of the combat core: the
// closed set of action identifiers, move frame data, special sequences and
// fighter stats, plus loading and hot reload of those tables.
package moves

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAction is returned when a trigger name is not a known action.
var ErrUnknownAction = errors.New("moves: unknown action")

// ActionID identifies an executable action. Trigger names from data files
// are resolved to ActionIDs once, at load time.
type ActionID uint8

const (
	ActionNone ActionID = iota
	ActionLight
	ActionHeavy
	ActionAirLight
	ActionAirHeavy
	ActionThrow
	ActionAirThrow
	ActionGuardBreakThrow
	ActionSuper
	ActionHeal
	ActionFireball
	ActionUppercut
	ActionSpinKick

	actionCount
)

var actionNames = [actionCount]string{
	ActionNone:            "",
	ActionLight:           "Light",
	ActionHeavy:           "Heavy",
	ActionAirLight:        "AirLight",
	ActionAirHeavy:        "AirHeavy",
	ActionThrow:           "Throw",
	ActionAirThrow:        "AirThrow",
	ActionGuardBreakThrow: "GuardBreakThrow",
	ActionSuper:           "Super",
	ActionHeal:            "Heal",
	ActionFireball:        "Fireball",
	ActionUppercut:        "Uppercut",
	ActionSpinKick:        "SpinKick",
}

// String returns the trigger name; ActionNone is the empty string.
func (a ActionID) String() string {
	if a >= actionCount {
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
	return actionNames[a]
}

// Valid reports whether a is a real action.
func (a ActionID) Valid() bool {
	return a > ActionNone && a < actionCount
}

// IsAerial reports whether the action starts in the air.
func (a ActionID) IsAerial() bool {
	return a == ActionAirLight || a == ActionAirHeavy || a == ActionAirThrow
}

// IsThrow reports whether the action belongs to the throw family.
func (a ActionID) IsThrow() bool {
	return a == ActionThrow || a == ActionAirThrow || a == ActionGuardBreakThrow
}

// ParseActionID resolves a trigger name. Matching is case-insensitive.
func ParseActionID(name string) (ActionID, error) {
	n := strings.TrimSpace(name)
	for id := ActionLight; id < actionCount; id++ {
		if strings.EqualFold(actionNames[id], n) {
			return id, nil
		}
	}
	return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// AllActions returns every valid action in declaration order.
func AllActions() []ActionID {
	out := make([]ActionID, 0, actionCount-1)
	for id := ActionLight; id < actionCount; id++ {
		out = append(out, id)
	}
	return out
}
