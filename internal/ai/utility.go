package ai

import (
	"math/rand"

	"fight-core/internal/command"
	"fight-core/internal/hfsm"
	"fight-core/internal/moves"
)

// Utility state names.
const (
	ModeApproach = "Approach"
	ModePressure = "Pressure"
	ModeRetreat  = "Retreat"
	ModeDefend   = "Defend"
)

// UtilityConfig tunes the utility strategy.
type UtilityConfig struct {
	Seed          int64
	PressureRange float64 // Distance under which the AI attacks
	DefendRange   float64 // Distance under which it blocks threats
	RetreatHealth float64 // Health ratio under which it backs off
	HealRange     float64 // Minimum gap before it tries to heal
	ThrowRange    float64
	SuperMeter    int
	HealMeter     int
	Jitter        float64 // Random noise added to every score
}

// DefaultUtilityConfig returns middle-of-the-road tuning.
func DefaultUtilityConfig() UtilityConfig {
	return UtilityConfig{
		Seed:          1,
		PressureRange: 110,
		DefendRange:   170,
		RetreatHealth: 0.3,
		HealRange:     260,
		ThrowRange:    70,
		SuperMeter:    500,
		HealMeter:     200,
		Jitter:        0.1,
	}
}

// UtilityStrategy scores four modes each decision and runs the winner
// as a state of a small hierarchical state machine. All randomness comes
// from a seeded source, so a seed replays the same match.
type UtilityStrategy struct {
	cfg     UtilityConfig
	rng     *rand.Rand
	machine *hfsm.Machine
	modes   [4]hfsm.StateID

	obs      Observation
	out      Decision
	cooldown int
}

// NewUtilityStrategy builds the strategy and starts it in Approach.
func NewUtilityStrategy(cfg UtilityConfig) (*UtilityStrategy, error) {
	u := &UtilityStrategy{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}

	b := hfsm.NewBuilder("AI")
	u.modes[0] = b.Add(ModeApproach, hfsm.Root, hfsm.Hooks{Tick: u.approach})
	u.modes[1] = b.Add(ModePressure, hfsm.Root, hfsm.Hooks{Enter: u.resetCooldown, Tick: u.pressure})
	u.modes[2] = b.Add(ModeRetreat, hfsm.Root, hfsm.Hooks{Tick: u.retreat})
	u.modes[3] = b.Add(ModeDefend, hfsm.Root, hfsm.Hooks{Tick: u.defend})

	m, err := b.Build(hfsm.DefaultMaxDrain)
	if err != nil {
		return nil, err
	}
	m.Start(u.modes[0])
	u.machine = m
	return u, nil
}

// Mode returns the current mode name.
func (u *UtilityStrategy) Mode() string { return u.machine.CurrentName() }

// Decide implements Strategy.
func (u *UtilityStrategy) Decide(obs Observation) Decision {
	u.obs = obs
	u.out = Decision{}

	best, bestScore := u.modes[0], -1.0
	for i, score := range u.scores(obs) {
		if score > bestScore {
			best, bestScore = u.modes[i], score
		}
	}

	// A mode switch runs the new mode's Tick once on entry.
	if best != u.machine.Current() {
		u.machine.Request(best)
		u.machine.Drain()
	} else {
		u.machine.Tick(0)
	}
	return u.out
}

// scores returns utilities in mode order.
func (u *UtilityStrategy) scores(o Observation) [4]float64 {
	var s [4]float64

	s[0] = 0.4
	if o.Distance > u.cfg.PressureRange {
		s[0] = 0.6
	}

	if o.Distance <= u.cfg.PressureRange && !o.OppDown {
		s[1] = 0.7
	}

	if hr := o.HealthRatio(); hr < u.cfg.RetreatHealth {
		s[2] = 0.5 + (u.cfg.RetreatHealth-hr)*2
		if o.Meter >= u.cfg.HealMeter && o.Distance < u.cfg.HealRange {
			s[2] += 0.2
		}
	}

	if o.OpponentThreatening() && o.Distance <= u.cfg.DefendRange {
		s[3] = 0.9
	}

	for i := range s {
		s[i] += u.rng.Float64() * u.cfg.Jitter
	}
	return s
}

func (u *UtilityStrategy) resetCooldown() { u.cooldown = 0 }

func (u *UtilityStrategy) approach(float64) {
	o := u.obs
	u.out.Commands.Horizontal = o.Toward()
	if o.Grounded && u.rng.Float64() < 0.02 {
		u.out.Commands.Jump = true
	}
}

func (u *UtilityStrategy) pressure(float64) {
	o := u.obs
	if o.Distance > u.cfg.ThrowRange {
		u.out.Commands.Horizontal = o.Toward()
	}
	if u.cooldown > 0 {
		u.cooldown--
		return
	}
	u.cooldown = 6 + u.rng.Intn(6)

	switch r := u.rng.Float64(); {
	case o.Meter >= u.cfg.SuperMeter:
		u.out.Action = moves.ActionSuper
	case o.Distance <= u.cfg.ThrowRange && r < 0.2:
		u.out.Action = moves.ActionThrow
	case r < 0.65:
		u.out.Commands.Light = true
	default:
		u.out.Commands.Heavy = true
	}
}

func (u *UtilityStrategy) retreat(float64) {
	o := u.obs
	if o.Meter >= u.cfg.HealMeter && o.Distance >= u.cfg.HealRange && o.HP < o.MaxHP {
		u.out.Action = moves.ActionHeal
		return
	}
	u.out.Commands.Horizontal = -o.Toward()
}

func (u *UtilityStrategy) defend(float64) {
	u.out.Commands = command.FighterCommands{Block: true}
	if u.rng.Float64() < 0.05 {
		u.out.Commands = command.FighterCommands{Dodge: true}
	}
}
