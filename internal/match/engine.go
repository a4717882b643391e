// Package match is the round authority: it owns the frame clock, the two
// fighters and their input sources, and runs rounds to a match result.
package match

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fight-core/internal/clock"
	"fight-core/internal/combat"
	"fight-core/internal/config"
	"fight-core/internal/fighter"
	"fight-core/internal/moves"
)

// ErrInvalidSlot is returned for slots other than SlotP1 and SlotP2.
var ErrInvalidSlot = errors.New("match: invalid slot")

const (
	WorldHeight       = 720 // Detector height; the ground sits at y=600
	DetectorCellSize  = 32
	RoundIntermission = 2.0 // Seconds between a round ending and the next starting
	MaxRounds         = 9   // Hard stop for matches that keep drawing
)

// RoundPhase is where the match is between rounds.
type RoundPhase uint8

const (
	PhaseFighting RoundPhase = iota
	PhaseRoundOver
	PhaseMatchOver
)

// String returns the phase name
func (p RoundPhase) String() string {
	switch p {
	case PhaseFighting:
		return "fighting"
	case PhaseRoundOver:
		return "round_over"
	default:
		return "match_over"
	}
}

// RoundResult is reported when a round ends.
type RoundResult struct {
	Round   int
	Outcome Outcome
	P1HP    int
	P2HP    int
	Wins    [2]int
	Final   bool // the match is over
}

// Stats are running counters for the whole match.
type Stats struct {
	Frames       uint64 `json:"frames"`
	FrozenFrames uint64 `json:"frozenFrames"`
	Hits         int    `json:"hits"`
	Blocks       int    `json:"blocks"`
	Rejected     int    `json:"rejected"`
	Specials     int    `json:"specials"`
	MeterDenied  int    `json:"meterDenied"`
	Rounds       int    `json:"rounds"`
}

// Options configures a new engine.
type Options struct {
	Match config.MatchConfig
	Store *moves.Store // nil uses the embedded tables
	Names [2]string

	// TraceLimits overrides DefaultEventLogLimits for the combat trace
	TraceLimits *EventLogLimits
}

// Engine runs a two-fighter match on a fixed step
type Engine struct {
	mu sync.RWMutex

	cfg      config.MatchConfig
	clock    *clock.FrameClock
	store    *moves.Store
	tableVer uint64
	detector *combat.Detector

	fighters [2]*fighter.Fighter
	inputs   [2]InputSource

	// Round state
	phase        RoundPhase
	round        int
	roundTime    float64
	intermission float64
	outcome      Outcome
	wins         [2]int
	stats        Stats

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// Event callbacks (called with the engine lock held)
	onDamage func(victim Slot, ev fighter.DamageEvent)
	onState  func(slot Slot, state, move string)
	onRound  func(RoundResult)
	tickHook func(time.Duration)

	snapshotPool *SnapshotPool
	eventLog     *EventLog
}

// NewEngine creates an engine with both fighters in place for round one
func NewEngine(opts Options) (*Engine, error) {
	cfg := opts.Match
	if cfg == (config.MatchConfig{}) {
		cfg = config.DefaultMatch()
	}
	store := opts.Store
	if store == nil {
		table, err := moves.LoadDefaultTable()
		if err != nil {
			return nil, err
		}
		store = moves.NewStore(table)
	}

	e := &Engine{
		cfg:          cfg,
		clock:        clock.New(cfg.DeltaTime()),
		store:        store,
		tableVer:     store.Version(),
		detector:     combat.NewDetector(cfg.ArenaWidth, WorldHeight, DetectorCellSize),
		inputs:       [2]InputSource{Idle, Idle},
		tickRate:     cfg.TickRate,
		stopChan:     make(chan struct{}),
		snapshotPool: NewSnapshotPool(),
	}
	limits := DefaultEventLogLimits()
	if opts.TraceLimits != nil {
		limits = *opts.TraceLimits
	}
	e.eventLog = NewEventLog(limits)
	if e.tickRate <= 0 {
		e.tickRate = 60
	}

	for i, slot := range []Slot{SlotP1, SlotP2} {
		name := opts.Names[i]
		if name == "" {
			name = fmt.Sprintf("P%d", slot)
		}
		f, err := fighter.New(fighter.Options{
			ID:    int(slot),
			Name:  name,
			Team:  int(slot),
			Table: store.Table(),
			Match: cfg,
			Clock: e.clock,
		})
		if err != nil {
			return nil, err
		}
		f.Register(e.detector)
		e.observe(slot, f)
		e.fighters[i] = f
	}
	e.fighters[0].SetOpponent(e.fighters[1])
	e.fighters[1].SetOpponent(e.fighters[0])

	e.startRound()
	e.produceSnapshot()
	return e, nil
}

// Start begins the real-time loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	ticker, stop := e.ticker, e.stopChan
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Match engine started at %d TPS", e.tickRate)
}

// Stop stops the real-time loop. Safe to call twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Match engine stopped")
}

// Running reports whether the real-time loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

func (e *Engine) tick() {
	start := time.Now()
	e.Step()

	e.mu.RLock()
	hook := e.tickHook
	e.mu.RUnlock()
	if hook != nil {
		hook(time.Since(start))
	}
}

// Step runs exactly one frame: clock advance, command ingestion, fighter
// ticks (skipped while frozen), hit detection and resolution, round checks,
// snapshot publish.
func (e *Engine) Step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step()
}

func (e *Engine) step() {
	e.clock.Advance()
	frame := e.clock.Frame()
	frozen := e.clock.Frozen()

	e.stats.Frames++
	e.eventLog.EmitSimple(EventTypeTick, frame, "", TickPayload{Frozen: frozen, RoundTime: e.roundTime})

	e.ingest()

	if frozen {
		e.stats.FrozenFrames++
	} else {
		dt := e.clock.DeltaTime()
		p1, p2 := e.fighters[0], e.fighters[1]
		p1.Tick(dt)
		p2.Tick(dt)
		fighter.Separate(p1, p2)
		fighter.Apply(fighter.Detect(e.detector, p1, p2))
		e.updateRound(dt)
	}

	e.produceSnapshot()
}

// ingest polls each input source with a view taken before any command is
// applied, then hands the results to the fighters. Outside a live round
// the fighters receive neutral input.
func (e *Engine) ingest() {
	var views [2]FighterSnapshot
	for i, f := range e.fighters {
		fillFighter(&views[i], Slot(i+1), f, e.wins[i])
	}

	for i, f := range e.fighters {
		var in Intent
		if e.phase == PhaseFighting {
			in = e.inputs[i].Poll(View{
				Frame:    e.clock.Frame(),
				Now:      e.clock.Now(),
				Self:     views[i],
				Opponent: views[1-i],
			})
		}
		f.SetCommands(in.Commands)
		if in.Action != moves.ActionNone {
			f.RequestAction(in.Action)
		}
	}
}

// =============================================================================
// ROUNDS
// =============================================================================

func (e *Engine) updateRound(dt float64) {
	switch e.phase {
	case PhaseFighting:
		e.roundTime = max(e.roundTime-dt, 0)
		p1, p2 := e.fighters[0], e.fighters[1]
		timeout := e.roundTime <= 0
		if !timeout && !knockedDown(p1) && !knockedDown(p2) {
			return
		}
		if o := DecideOutcome(p1.Health.Current(), p2.Health.Current(), timeout); o.Decided() {
			e.endRound(o)
		}

	case PhaseRoundOver:
		e.intermission -= dt
		if e.intermission > 0 {
			return
		}
		if e.matchDecided() {
			e.phase = PhaseMatchOver
			return
		}
		e.startRound()
	}
}

// knockedDown reports a fighter that is down or out of health.
func knockedDown(f *fighter.Fighter) bool {
	return f.Health.Empty() || f.IsInState(fighter.StateDowned)
}

func (e *Engine) startRound() {
	e.round++
	e.roundTime = e.cfg.RoundTime
	e.outcome = OutcomeNone
	e.phase = PhaseFighting

	var table *moves.Table
	if v := e.store.Version(); v != e.tableVer {
		e.tableVer = v
		table = e.store.Table()
		log.Printf("📝 Round %d uses move table v%d", e.round, v)
	}

	center := e.cfg.ArenaWidth / 2
	e.fighters[0].Reset(center-e.cfg.StartOffset, 1, table)
	e.fighters[1].Reset(center+e.cfg.StartOffset, -1, table)

	e.eventLog.EmitSimple(EventTypeRoundStart, e.clock.Frame(), "", e.roundPayload())
}

func (e *Engine) endRound(o Outcome) {
	e.outcome = o
	e.phase = PhaseRoundOver
	e.intermission = RoundIntermission
	e.stats.Rounds++
	if w := o.Winner(); w.Valid() {
		e.wins[w.index()]++
	}

	frame := e.clock.Frame()
	for i, f := range e.fighters {
		if f.KnockedOut() {
			e.eventLog.EmitSimple(EventTypeKO, frame, Slot(i+1).String(), RoundPayload{Round: e.round})
		}
	}
	e.eventLog.EmitSimple(EventTypeRoundEnd, frame, "", e.roundPayload())

	final := e.matchDecided()
	log.Printf("🏁 Round %d: %s (%d-%d)", e.round, o, e.wins[0], e.wins[1])
	if final {
		log.Printf("🏆 Match over after %d rounds", e.round)
	}

	if e.onRound != nil {
		e.onRound(RoundResult{
			Round:   e.round,
			Outcome: o,
			P1HP:    e.fighters[0].Health.Current(),
			P2HP:    e.fighters[1].Health.Current(),
			Wins:    e.wins,
			Final:   final,
		})
	}
}

func (e *Engine) matchDecided() bool {
	need := max(e.cfg.RoundsToWin, 1)
	return e.wins[0] >= need || e.wins[1] >= need || e.round >= MaxRounds
}

func (e *Engine) roundPayload() RoundPayload {
	return RoundPayload{
		Round:   e.round,
		Outcome: e.outcome.String(),
		Winner:  int(e.outcome.Winner()),
		P1HP:    e.fighters[0].Health.Current(),
		P2HP:    e.fighters[1].Health.Current(),
		P1Wins:  e.wins[0],
		P2Wins:  e.wins[1],
	}
}

// =============================================================================
// FIGHTER OBSERVERS
// =============================================================================

// observe wires one fighter's notifications into the trace, the freeze
// clock and the engine callbacks.
func (e *Engine) observe(slot Slot, f *fighter.Fighter) {
	id := slot.String()

	f.OnDamage(func(ev fighter.DamageEvent) {
		// The current frame has already run, so freeze the ones after it.
		if n := e.clock.FramesFor(ev.Hitstop); n > 0 {
			e.clock.FreezeFrames(n + 1)
		}

		evType := EventTypeHit
		if ev.Blocked {
			evType = EventTypeBlock
			e.stats.Blocks++
		} else {
			e.stats.Hits++
		}
		e.eventLog.EmitSimple(evType, e.clock.Frame(), id, HitPayload{
			Attacker: nameOf(ev.Attacker),
			Victim:   f.Name(),
			Action:   ev.Action.String(),
			Damage:   ev.Amount,
			VictimHP: f.Health.Current(),
			Combo:    ev.Combo,
			Hitstop:  ev.Hitstop,
			X:        ev.X,
			Y:        ev.Y,
		})

		if e.onDamage != nil {
			e.onDamage(slot, ev)
		}
	})

	f.OnStateChanged(func(state, move string) {
		e.eventLog.EmitSimple(EventTypeStateChange, e.clock.Frame(), id, StatePayload{State: state, Move: move})
		if e.onState != nil {
			e.onState(slot, state, move)
		}
	})

	f.OnRejected(func(attacker, victim *fighter.Fighter, reason combat.RejectReason) {
		e.stats.Rejected++
		e.eventLog.EmitSimple(EventTypeHitRejected, e.clock.Frame(), id, RejectPayload{
			Attacker: nameOf(attacker),
			Victim:   victim.Name(),
			Reason:   reason.String(),
		})
	})

	f.OnSpecial(func(trigger moves.ActionID) {
		e.stats.Specials++
		e.eventLog.EmitSimple(EventTypeSpecial, e.clock.Frame(), id, SpecialPayload{Trigger: trigger.String()})
	})

	f.OnMeterDenied(func(action moves.ActionID, cost, have int) {
		e.stats.MeterDenied++
		e.eventLog.EmitSimple(EventTypeMeterDenied, e.clock.Frame(), id, MeterDeniedPayload{
			Action: action.String(),
			Cost:   cost,
			Have:   have,
		})
	})
}

func nameOf(f *fighter.Fighter) string {
	if f == nil {
		return ""
	}
	return f.Name()
}

// =============================================================================
// CONTROL
// =============================================================================

// SetInput assigns the input source for slot. nil means Idle.
func (e *Engine) SetInput(slot Slot, src InputSource) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	if src == nil {
		src = Idle
	}
	e.mu.Lock()
	e.inputs[slot.index()] = src
	e.mu.Unlock()
	return nil
}

// RequestAction forwards an explicit action request to a fighter.
func (e *Engine) RequestAction(slot Slot, id moves.ActionID) error {
	if !slot.Valid() {
		return ErrInvalidSlot
	}
	if !id.Valid() {
		return fmt.Errorf("%w: %d", moves.ErrUnknownAction, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseFighting {
		e.fighters[slot.index()].RequestAction(id)
	}
	return nil
}

// Reset starts a new match: scores and meter are cleared and round one
// begins. The frame clock keeps counting.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.round = 0
	e.wins = [2]int{}
	e.stats = Stats{}
	for _, f := range e.fighters {
		f.Meter.Set(0)
	}
	e.startRound()
	e.produceSnapshot()
	log.Println("🔄 Match reset")
}

// SetCallbacks registers event callbacks. They run on the simulation
// goroutine with the engine lock held and must not call back into the engine.
func (e *Engine) SetCallbacks(onDamage func(Slot, fighter.DamageEvent), onState func(Slot, string, string), onRound func(RoundResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDamage = onDamage
	e.onState = onState
	e.onRound = onRound
}

// SetTickHook registers a function receiving each real-time tick's duration.
func (e *Engine) SetTickHook(fn func(time.Duration)) {
	e.mu.Lock()
	e.tickHook = fn
	e.mu.Unlock()
}

// =============================================================================
// QUERIES
// =============================================================================

// Fighter returns the fighter in slot, or nil. Callers outside the
// simulation goroutine must not mutate it.
func (e *Engine) Fighter(slot Slot) *fighter.Fighter {
	if !slot.Valid() {
		return nil
	}
	return e.fighters[slot.index()]
}

// Phase returns the round phase.
func (e *Engine) Phase() RoundPhase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase
}

// MatchOver reports whether a fighter has won enough rounds.
func (e *Engine) MatchOver() bool {
	return e.Phase() == PhaseMatchOver
}

// Wins returns the round wins per slot.
func (e *Engine) Wins() [2]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.wins
}

// Winner returns the match winner, or SlotNone while undecided or drawn.
func (e *Engine) Winner() Slot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.phase != PhaseMatchOver || e.wins[0] == e.wins[1] {
		return SlotNone
	}
	if e.wins[0] > e.wins[1] {
		return SlotP1
	}
	return SlotP2
}

// Stats returns the running counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// Config returns the match tuning in use.
func (e *Engine) Config() config.MatchConfig {
	return e.cfg
}

// Table returns the move table the next round will use.
func (e *Engine) Table() *moves.Table {
	return e.store.Table()
}

// GetSnapshot returns the latest published snapshot without locking
func (e *Engine) GetSnapshot() MatchSnapshot {
	return e.snapshotPool.AcquireRead()
}

// GetState builds a snapshot of the current state under the read lock
func (e *Engine) GetState() MatchSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var s MatchSnapshot
	e.fill(&s)
	return s
}

func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	e.fill(snap)
	e.snapshotPool.PublishWrite()
}

func (e *Engine) fill(s *MatchSnapshot) {
	s.Frame = e.clock.Frame()
	s.Round = e.round
	s.RoundTime = e.roundTime
	s.Phase = e.phase.String()
	s.Frozen = e.clock.Frozen()
	s.Outcome = e.outcome.String()
	s.Winner = e.outcome.Winner()
	for i, f := range e.fighters {
		fillFighter(&s.Fighters[i], Slot(i+1), f, e.wins[i])
	}
}

// =============================================================================
// TRACE
// =============================================================================

// StartEventLog starts the combat trace, appending to filePath
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// FlushEventLog writes buffered trace events now. Callers that step the
// engine faster than real time call it between steps.
func (e *Engine) FlushEventLog() {
	e.eventLog.Flush()
}

// StopEventLog flushes and stops the combat trace
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns trace counters for monitoring
func (e *Engine) GetEventLogStats() LogStats {
	return e.eventLog.Stats()
}
