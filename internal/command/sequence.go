package command

// MinSequenceLength is the shortest pattern recognised as a special.
const MinSequenceLength = 3

// Sequence matcher defaults in seconds.
const (
	DefaultSequenceLifetime = 0.8
	DefaultSequenceWindow   = 0.4
	DefaultStepBonus        = 0.2
	DefaultSequenceCooldown = 0.15
	DefaultNeutralRest      = 0.3
)

// Pattern is one configured special: a token sequence mapped to a trigger.
type Pattern[K comparable] struct {
	Tokens  []Token
	Window  float64 // Zero uses the matcher default
	Trigger K
}

// EffectiveWindow is the time span the whole pattern may be spread over.
// Longer patterns get proportionally more time.
func (p Pattern[K]) EffectiveWindow(defaultWindow, stepBonus float64) float64 {
	base := p.Window
	if defaultWindow > base {
		base = defaultWindow
	}
	extra := len(p.Tokens) - 2
	if extra < 0 {
		extra = 0
	}
	return base + stepBonus*float64(extra)
}

// MatcherConfig tunes a SequenceMatcher.
type MatcherConfig struct {
	Lifetime      float64
	DefaultWindow float64
	StepBonus     float64
	Cooldown      float64

	// NeutralRest is how long the stick may rest in neutral before partial
	// progress is discarded. Zero uses DefaultNeutralRest.
	NeutralRest float64
}

// DefaultMatcherConfig returns the standard tuning.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Lifetime:      DefaultSequenceLifetime,
		DefaultWindow: DefaultSequenceWindow,
		StepBonus:     DefaultStepBonus,
		Cooldown:      DefaultSequenceCooldown,
		NeutralRest:   DefaultNeutralRest,
	}
}

// SequenceMatcher recognises specials in a rolling token history.
// Neutral tokens never enter the history; a long rest in neutral clears it.
// A match clears the history.
type SequenceMatcher[K comparable] struct {
	cfg       MatcherConfig
	patterns  []Pattern[K]
	history   []TimedToken
	lastFired map[K]float64
	scratch   []Token

	resting   bool
	restStart float64
}

// NewSequenceMatcher creates a matcher. Patterns shorter than
// MinSequenceLength are dropped.
func NewSequenceMatcher[K comparable](cfg MatcherConfig, patterns []Pattern[K]) *SequenceMatcher[K] {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultSequenceLifetime
	}
	if cfg.NeutralRest <= 0 {
		cfg.NeutralRest = DefaultNeutralRest
	}
	m := &SequenceMatcher[K]{
		cfg:       cfg,
		history:   make([]TimedToken, 0, 16),
		lastFired: make(map[K]float64),
		scratch:   make([]Token, 0, 16),
	}
	m.SetPatterns(patterns)
	return m
}

// SetPatterns replaces the configured patterns, keeping their order.
func (m *SequenceMatcher[K]) SetPatterns(patterns []Pattern[K]) {
	m.patterns = m.patterns[:0]
	for _, p := range patterns {
		if len(p.Tokens) < MinSequenceLength {
			continue
		}
		m.patterns = append(m.patterns, p)
	}
}

// Patterns returns the recognised patterns.
func (m *SequenceMatcher[K]) Patterns() []Pattern[K] {
	return m.patterns
}

// History returns the live history, oldest first.
func (m *SequenceMatcher[K]) History() []TimedToken {
	return m.history
}

// Reset clears history and cooldowns.
func (m *SequenceMatcher[K]) Reset() {
	m.history = m.history[:0]
	m.resting = false
	clear(m.lastFired)
}

// Push records tok at time now and reports the first pattern it completes.
func (m *SequenceMatcher[K]) Push(tok Token, now float64) (Pattern[K], bool) {
	var zero Pattern[K]
	if tok == TokenNone {
		return zero, false
	}

	m.expire(now)
	if tok == TokenNeutral {
		m.resting = true
		m.restStart = now
		return zero, false
	}
	if m.resting {
		m.resting = false
		if now-m.restStart > m.cfg.NeutralRest {
			m.history = m.history[:0]
		}
	}
	m.history = append(m.history, TimedToken{Token: tok, Time: now})

	for _, p := range m.patterns {
		window := p.EffectiveWindow(m.cfg.DefaultWindow, m.cfg.StepBonus)
		m.scratch = m.scratch[:0]
		for _, e := range m.history {
			if now-e.Time <= window {
				m.scratch = append(m.scratch, e.Token)
			}
		}

		if IndexKMP(m.scratch, p.Tokens) < 0 {
			continue
		}

		// A match inside the cooldown is still consumed so it cannot fire
		// later from stale history.
		m.history = m.history[:0]
		if last, ok := m.lastFired[p.Trigger]; ok && now-last < m.cfg.Cooldown {
			return zero, false
		}
		m.lastFired[p.Trigger] = now
		return p, true
	}
	return zero, false
}

func (m *SequenceMatcher[K]) expire(now float64) {
	n := 0
	for n < len(m.history) && now-m.history[n].Time > m.cfg.Lifetime {
		n++
	}
	if n > 0 {
		m.history = append(m.history[:0], m.history[n:]...)
	}
}
