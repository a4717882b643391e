package moves

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"fight-core/internal/combat"
	"fight-core/internal/command"
)

// Authoring formats. Names are resolved to enums here and nowhere else.

type rectSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

type cancelSpec struct {
	Enabled bool    `yaml:"enabled"`
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
}

type moveSpec struct {
	Kind string `yaml:"kind"`

	Startup  float64 `yaml:"startup"`
	Active   float64 `yaml:"active"`
	Recovery float64 `yaml:"recovery"`

	Damage        int     `yaml:"damage"`
	Level         string  `yaml:"level"`
	Hitstun       float64 `yaml:"hitstun"`
	Blockstun     float64 `yaml:"blockstun"`
	KnockbackX    float64 `yaml:"knockback_x"`
	KnockbackY    float64 `yaml:"knockback_y"`
	Blockable     bool    `yaml:"blockable"`
	HitstopHit    float64 `yaml:"hitstop_hit"`
	HitstopBlock  float64 `yaml:"hitstop_block"`
	PushbackHit   float64 `yaml:"pushback_hit"`
	PushbackBlock float64 `yaml:"pushback_block"`
	Knockdown     string  `yaml:"knockdown"`
	Super         bool    `yaml:"super"`

	MeterCost    int `yaml:"meter_cost"`
	MeterOnHit   int `yaml:"meter_on_hit"`
	MeterOnBlock int `yaml:"meter_on_block"`

	Hitbox rectSpec `yaml:"hitbox"`

	OnHit      cancelSpec `yaml:"on_hit"`
	OnBlock    cancelSpec `yaml:"on_block"`
	OnWhiff    cancelSpec `yaml:"on_whiff"`
	CancelInto []string   `yaml:"cancel_into"`

	UpperInvuln float64 `yaml:"upper_invuln"`
	LowerInvuln float64 `yaml:"lower_invuln"`

	LandingLag float64 `yaml:"landing_lag"`
	Range      float64 `yaml:"range"`
	HealAmount int     `yaml:"heal_amount"`
}

type movesFile struct {
	Defaults moveSpec             `yaml:"defaults"`
	Moves    map[string]yaml.Node `yaml:"moves"`
}

type sequenceSpec struct {
	Name    string   `yaml:"name"`
	Tokens  []string `yaml:"tokens"`
	Trigger string   `yaml:"trigger"`
	Kind    string   `yaml:"kind"`
	Window  float64  `yaml:"window"`
	MinHP   int      `yaml:"min_hp"`
}

type sequencesFile struct {
	Sequences []sequenceSpec `yaml:"sequences"`
}

// ParseMoves decodes a moves document. Each entry starts from the
// document's defaults block, so entries only list what differs.
func ParseMoves(data []byte) ([]*Move, error) {
	var file movesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("moves: unmarshal moves: %w", err)
	}

	names := make([]string, 0, len(file.Moves))
	for name := range file.Moves {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Move, 0, len(names))
	for _, name := range names {
		id, err := ParseActionID(name)
		if err != nil {
			return nil, err
		}
		spec := file.Defaults
		node := file.Moves[name]
		if err := node.Decode(&spec); err != nil {
			return nil, fmt.Errorf("moves: decode %s: %w", name, err)
		}
		m, err := spec.build(id)
		if err != nil {
			return nil, fmt.Errorf("moves: %s: %w", name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ParseSequences decodes a sequences document, keeping authored order.
func ParseSequences(data []byte) ([]Sequence, error) {
	var file sequencesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("moves: unmarshal sequences: %w", err)
	}

	out := make([]Sequence, 0, len(file.Sequences))
	for _, spec := range file.Sequences {
		tokens, err := command.ParseTokens(spec.Tokens)
		if err != nil {
			return nil, fmt.Errorf("moves: sequence %s: %w", spec.Name, err)
		}
		trigger, err := ParseActionID(spec.Trigger)
		if err != nil {
			return nil, fmt.Errorf("moves: sequence %s: %w", spec.Name, err)
		}
		kind := SequenceAttack
		if strings.EqualFold(spec.Kind, "heal") {
			kind = SequenceHeal
		}
		name := spec.Name
		if name == "" {
			name = trigger.String()
		}
		out = append(out, Sequence{
			Name:    name,
			Tokens:  tokens,
			Trigger: trigger,
			Kind:    kind,
			Window:  spec.Window,
			MinHP:   spec.MinHP,
		})
	}
	return out, nil
}

func (s moveSpec) build(id ActionID) (*Move, error) {
	level, err := parseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	knockdown, err := parseKnockdown(s.Knockdown)
	if err != nil {
		return nil, err
	}
	into := make([]ActionID, 0, len(s.CancelInto))
	for _, name := range s.CancelInto {
		target, err := ParseActionID(name)
		if err != nil {
			return nil, err
		}
		into = append(into, target)
	}

	m := &Move{
		ID:            id,
		Kind:          parseKind(s.Kind),
		Startup:       s.Startup,
		Active:        s.Active,
		Recovery:      s.Recovery,
		Damage:        s.Damage,
		Level:         level,
		Hitstun:       s.Hitstun,
		Blockstun:     s.Blockstun,
		KnockbackX:    s.KnockbackX,
		KnockbackY:    s.KnockbackY,
		Blockable:     s.Blockable,
		HitstopHit:    s.HitstopHit,
		HitstopBlock:  s.HitstopBlock,
		PushbackHit:   s.PushbackHit,
		PushbackBlock: s.PushbackBlock,
		Knockdown:     knockdown,
		Super:         s.Super,
		MeterCost:     s.MeterCost,
		MeterOnHit:    s.MeterOnHit,
		MeterOnBlock:  s.MeterOnBlock,
		Hitbox:        combat.Rect{X: s.Hitbox.X, Y: s.Hitbox.Y, W: s.Hitbox.W, H: s.Hitbox.H},
		OnHit:         CancelPolicy(s.OnHit),
		OnBlock:       CancelPolicy(s.OnBlock),
		OnWhiff:       CancelPolicy(s.OnWhiff),
		CancelInto:    into,
		UpperInvuln:   s.UpperInvuln,
		LowerInvuln:   s.LowerInvuln,
		LandingLag:    s.LandingLag,
		Range:         s.Range,
		HealAmount:    s.HealAmount,
	}
	if m.TotalDuration() <= 0 {
		return nil, fmt.Errorf("zero duration")
	}
	return m, nil
}

func parseKind(name string) MoveKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "throw":
		return KindThrow
	case "heal":
		return KindHeal
	default:
		return KindStrike
	}
}

func parseLevel(name string) (combat.HitLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mid":
		return combat.LevelMid, nil
	case "high":
		return combat.LevelHigh, nil
	case "low":
		return combat.LevelLow, nil
	case "overhead":
		return combat.LevelOverhead, nil
	}
	return combat.LevelMid, fmt.Errorf("unknown hit level %q", name)
}

func parseKnockdown(name string) (combat.KnockdownKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return combat.KnockdownNone, nil
	case "soft":
		return combat.KnockdownSoft, nil
	case "hard":
		return combat.KnockdownHard, nil
	}
	return combat.KnockdownNone, fmt.Errorf("unknown knockdown %q", name)
}
