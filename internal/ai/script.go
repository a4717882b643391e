package ai

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"fight-core/internal/command"
	"fight-core/internal/moves"
)

//go:embed scripts/default.tengo
var defaultScript []byte

// ScriptTimeout bounds one decide() call.
const ScriptTimeout = 20 * time.Millisecond

// ErrNoDecide is returned for scripts that do not define decide.
var ErrNoDecide = errors.New("ai: script does not define decide")

// Appended to every script; the host sets __obs and reads __out.
const scriptDispatch = `
__out := decide(__obs)
`

// ScriptStrategy runs a tengo script's decide(obs) function. The script
// is compiled once; Reload swaps in a new one without dropping the old
// one on failure.
type ScriptStrategy struct {
	mu       sync.Mutex
	path     string
	compiled *tengo.Compiled
	failures int
}

// NewScriptStrategy compiles src.
func NewScriptStrategy(src []byte) (*ScriptStrategy, error) {
	compiled, err := compileScript(src)
	if err != nil {
		return nil, err
	}
	return &ScriptStrategy{compiled: compiled}, nil
}

// DefaultScriptStrategy compiles the embedded default script.
func DefaultScriptStrategy() (*ScriptStrategy, error) {
	return NewScriptStrategy(defaultScript)
}

// LoadScriptStrategy compiles the script at path and remembers the path
// for ReloadFile.
func LoadScriptStrategy(path string) (*ScriptStrategy, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ai: read script: %w", err)
	}
	s, err := NewScriptStrategy(src)
	if err != nil {
		return nil, fmt.Errorf("ai: %s: %w", path, err)
	}
	s.path = path
	return s, nil
}

func compileScript(src []byte) (*tengo.Compiled, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), scriptDispatch...))
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	if err := script.Add("__obs", map[string]interface{}{}); err != nil {
		return nil, err
	}

	compiled, err := script.Compile()
	if err != nil {
		if strings.Contains(err.Error(), "unresolved reference 'decide'") {
			return nil, ErrNoDecide
		}
		return nil, fmt.Errorf("ai: compile script: %w", err)
	}
	return compiled, nil
}

// Path returns the file the strategy was loaded from, if any.
func (s *ScriptStrategy) Path() string { return s.path }

// Reload compiles src and swaps it in. On error the current script stays.
func (s *ScriptStrategy) Reload(src []byte) error {
	compiled, err := compileScript(src)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.compiled = compiled
	s.failures = 0
	s.mu.Unlock()
	return nil
}

// ReloadFile re-reads the script from Path.
func (s *ScriptStrategy) ReloadFile() error {
	if s.path == "" {
		return errors.New("ai: script has no file")
	}
	src, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("ai: read script: %w", err)
	}
	return s.Reload(src)
}

// Failures returns how many decide calls failed since the last reload.
func (s *ScriptStrategy) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Decide implements Strategy. A failing script yields neutral input.
func (s *ScriptStrategy) Decide(obs Observation) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.compiled.Set("__obs", observationMap(obs)); err != nil {
		return s.fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ScriptTimeout)
	defer cancel()
	if err := s.compiled.RunContext(ctx); err != nil {
		return s.fail(err)
	}

	out := s.compiled.Get("__out")
	if out == nil || out.IsUndefined() {
		return Decision{}
	}
	d, err := decisionFromMap(out.Map())
	if err != nil {
		return s.fail(err)
	}
	return d
}

func (s *ScriptStrategy) fail(err error) Decision {
	s.failures++
	// First failure, then every 60th.
	if s.failures%60 == 1 {
		log.Printf("⚠️ AI script error (%d): %v", s.failures, err)
	}
	return Decision{}
}

func observationMap(o Observation) map[string]interface{} {
	return map[string]interface{}{
		"frame":     int64(o.Frame),
		"now":       o.Now,
		"x":         o.X,
		"y":         o.Y,
		"facing":    int64(o.Facing),
		"grounded":  o.Grounded,
		"hp":        int64(o.HP),
		"max_hp":    int64(o.MaxHP),
		"meter":     int64(o.Meter),
		"state":     o.State,
		"move":      o.Move,
		"opp_x":     o.OppX,
		"opp_y":     o.OppY,
		"opp_hp":    int64(o.OppHP),
		"opp_meter": int64(o.OppMeter),
		"opp_state": o.OppState,
		"opp_move":  o.OppMove,
		"opp_phase": o.OppPhase,
		"opp_down":  o.OppDown,
		"distance":  o.Distance,
	}
}

// decisionFromMap reads the command map a script returns.
func decisionFromMap(m map[string]interface{}) (Decision, error) {
	var d Decision
	if m == nil {
		return d, nil
	}

	d.Commands = command.FighterCommands{
		Horizontal: clampAxis(numberOf(m["horizontal"])),
		Jump:       boolOf(m["jump"]),
		Crouch:     boolOf(m["crouch"]),
		Light:      boolOf(m["light"]),
		Heavy:      boolOf(m["heavy"]),
		Block:      boolOf(m["block"]),
		Dodge:      boolOf(m["dodge"]),
	}

	if name, _ := m["action"].(string); name != "" {
		id, err := moves.ParseActionID(name)
		if err != nil {
			return Decision{}, err
		}
		d.Action = id
	}
	return d, nil
}

func numberOf(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func boolOf(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func clampAxis(v float64) float64 {
	return max(-1, min(1, v))
}
