package match

import (
	"sync/atomic"
	"time"

	"fight-core/internal/combat"
	"fight-core/internal/fighter"
)

// BoxSnapshot is an immutable world-space box for debug rendering
type BoxSnapshot struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Region  string  `json:"region,omitempty"`
	Enabled bool    `json:"enabled"`
}

// FighterSnapshot is an immutable copy of one fighter for presentation.
// Value types only; fixed-size box arrays so producing it never allocates.
type FighterSnapshot struct {
	Slot   Slot   `json:"slot"`
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Facing int    `json:"facing"`

	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Grounded  bool    `json:"grounded"`
	Crouching bool    `json:"crouching"`

	HP       int `json:"hp"`
	MaxHP    int `json:"maxHp"`
	Meter    int `json:"meter"`
	MaxMeter int `json:"maxMeter"`

	State        string `json:"state"`
	Move         string `json:"move"`
	Phase        string `json:"phase"`
	Invulnerable bool   `json:"invulnerable"`
	BlockLocked  bool   `json:"blockLocked"`
	Combo        int    `json:"combo"`
	KnockedOut   bool   `json:"knockedOut"`

	Hitbox    BoxSnapshot    `json:"hitbox"`
	Hurtboxes [3]BoxSnapshot `json:"hurtboxes"`
}

// MatchSnapshot is a complete immutable match state for presentation
type MatchSnapshot struct {
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence for ordering
	Timestamp time.Time `json:"timestamp"` // When snapshot was created
	Frame     uint64    `json:"frame"`     // Clock frame this represents

	Round     int     `json:"round"`
	RoundTime float64 `json:"roundTime"` // Seconds left
	Phase     string  `json:"phase"`
	Frozen    bool    `json:"frozen"`
	Outcome   string  `json:"outcome,omitempty"`
	Winner    Slot    `json:"winner,omitempty"`

	Fighters [2]FighterSnapshot `json:"fighters"`
}

// SnapshotPool triple-buffers snapshots between the tick (producer) and
// readers such as the websocket broadcaster and the debug renderer
type SnapshotPool struct {
	snapshots [3]MatchSnapshot
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates an empty pool
func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{}
}

// AcquireWrite gets the next write slot (producer only, called from the tick)
func (p *SnapshotPool) AcquireWrite() *MatchSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]
	*snap = MatchSnapshot{
		Sequence:  atomic.AddUint64(&p.sequence, 1),
		Timestamp: time.Now(),
	}
	return snap
}

// PublishWrite marks the write complete and makes it the readable slot
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns a copy of the latest complete snapshot
func (p *SnapshotPool) AcquireRead() MatchSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return p.snapshots[idx]
}

// fillFighter copies one fighter into s
func fillFighter(s *FighterSnapshot, slot Slot, f *fighter.Fighter, wins int) {
	s.Slot = slot
	s.Name = f.Name()
	s.Wins = wins
	s.Facing = f.Facing()
	s.X, s.Y = f.Position()
	s.VX, s.VY = f.Velocity()
	s.Grounded = f.Grounded()
	s.Crouching = f.Crouching()
	s.HP, s.MaxHP = f.Health.Current(), f.Health.Max()
	s.Meter, s.MaxMeter = f.Meter.Current(), f.Meter.Max()
	s.State = f.StateName()
	s.Move = f.MoveName()
	s.Phase = f.Phase().String()
	s.Invulnerable = f.Invulnerable()
	s.BlockLocked = f.Guard().Locked()
	s.Combo = f.Combat().ComboCount
	s.KnockedOut = f.KnockedOut()

	hb := f.Hitbox()
	s.Hitbox = boxOf(hb.World, "", hb.Active)
	for i, h := range f.Hurtboxes() {
		if i >= len(s.Hurtboxes) {
			break
		}
		s.Hurtboxes[i] = boxOf(h.World, h.Region.String(), h.Enabled)
	}
}

func boxOf(r combat.Rect, region string, enabled bool) BoxSnapshot {
	return BoxSnapshot{X: r.X, Y: r.Y, W: r.W, H: r.H, Region: region, Enabled: enabled}
}
