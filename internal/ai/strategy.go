// Package ai drives a fighter from outside the combat core. A Controller
// adapts a Strategy to the engine's input source interface, so the AI sees
// the same read-only view as a remote player and acts only through
// commands and action requests.
package ai

import (
	"sync"

	"fight-core/internal/command"
	"fight-core/internal/fighter"
	"fight-core/internal/match"
	"fight-core/internal/moves"
)

// Observation is the flattened view a strategy decides on.
type Observation struct {
	Frame uint64
	Now   float64

	X, Y     float64
	Facing   int
	Grounded bool
	HP       int
	MaxHP    int
	Meter    int
	State    string
	Move     string

	OppX, OppY float64
	OppHP      int
	OppMeter   int
	OppState   string
	OppMove    string
	OppPhase   string
	OppDown    bool

	Distance float64
}

// Observe flattens an engine view.
func Observe(v match.View) Observation {
	return Observation{
		Frame:    v.Frame,
		Now:      v.Now,
		X:        v.Self.X,
		Y:        v.Self.Y,
		Facing:   v.Self.Facing,
		Grounded: v.Self.Grounded,
		HP:       v.Self.HP,
		MaxHP:    v.Self.MaxHP,
		Meter:    v.Self.Meter,
		State:    v.Self.State,
		Move:     v.Self.Move,
		OppX:     v.Opponent.X,
		OppY:     v.Opponent.Y,
		OppHP:    v.Opponent.HP,
		OppMeter: v.Opponent.Meter,
		OppState: v.Opponent.State,
		OppMove:  v.Opponent.Move,
		OppPhase: v.Opponent.Phase,
		OppDown:  v.Opponent.KnockedOut || v.Opponent.State == fighter.StateDowned,
		Distance: v.Distance(),
	}
}

// Toward returns the horizontal direction to the opponent.
func (o Observation) Toward() float64 {
	if o.OppX < o.X {
		return -1
	}
	return 1
}

// HealthRatio returns current health over max health.
func (o Observation) HealthRatio() float64 {
	if o.MaxHP <= 0 {
		return 0
	}
	return float64(o.HP) / float64(o.MaxHP)
}

// OpponentThreatening reports whether the opponent's attack is coming out.
func (o Observation) OpponentThreatening() bool {
	return o.OppPhase == "startup" || o.OppPhase == "active"
}

// Decision is one frame of AI output.
type Decision struct {
	Commands command.FighterCommands
	Action   moves.ActionID
}

// Strategy picks a decision for each observation.
type Strategy interface {
	Decide(obs Observation) Decision
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(obs Observation) Decision

// Decide calls fn(obs).
func (fn StrategyFunc) Decide(obs Observation) Decision { return fn(obs) }

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is a match.InputSource backed by a Strategy. The strategy is
// consulted every ReactionFrames frames; in between the last commands are
// held and no action is requested.
type Controller struct {
	mu       sync.Mutex
	strategy Strategy
	every    int
	last     Decision
	polls    uint64
}

// NewController creates a controller that decides every reactionFrames
// frames (minimum 1).
func NewController(s Strategy, reactionFrames int) *Controller {
	if reactionFrames < 1 {
		reactionFrames = 1
	}
	return &Controller{strategy: s, every: reactionFrames}
}

// SetStrategy swaps the strategy at the next decision.
func (c *Controller) SetStrategy(s Strategy) {
	c.mu.Lock()
	c.strategy = s
	c.mu.Unlock()
}

// Poll implements match.InputSource.
func (c *Controller) Poll(v match.View) match.Intent {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.polls++
	if c.strategy == nil {
		return match.Intent{}
	}
	if (c.polls-1)%uint64(c.every) != 0 {
		return match.Intent{Commands: c.last.Commands}
	}

	c.last = c.strategy.Decide(Observe(v))
	return match.Intent{Commands: c.last.Commands, Action: c.last.Action}
}
