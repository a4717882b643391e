package hfsm

import (
	"errors"
	"reflect"
	"testing"
)

type recorder struct {
	log []string
}

func (r *recorder) hooks(name string) Hooks {
	return Hooks{
		Enter: func() { r.log = append(r.log, "enter "+name) },
		Exit:  func() { r.log = append(r.log, "exit "+name) },
		Tick:  func(dt float64) { r.log = append(r.log, "tick "+name) },
	}
}

// tree builds Root -> R -> {X -> A, B}
func tree(t *testing.T, rec *recorder) (*Machine, map[string]StateID) {
	t.Helper()
	b := NewBuilder("Root")
	ids := map[string]StateID{"Root": Root}
	ids["R"] = b.Add("R", Root, rec.hooks("R"))
	ids["X"] = b.Add("X", ids["R"], rec.hooks("X"))
	ids["A"] = b.Add("A", ids["X"], rec.hooks("A"))
	ids["B"] = b.Add("B", ids["R"], rec.hooks("B"))
	m, err := b.Build(0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return m, ids
}

// TestTransitionOrdering tests exit child-to-parent, then enter parent-to-child
func TestTransitionOrdering(t *testing.T) {
	rec := &recorder{}
	m, ids := tree(t, rec)

	if m.Depth(ids["A"]) != 3 || m.Depth(ids["B"]) != 2 || m.Depth(ids["R"]) != 1 {
		t.Fatalf("Unexpected depths A=%d B=%d R=%d", m.Depth(ids["A"]), m.Depth(ids["B"]), m.Depth(ids["R"]))
	}

	m.Start(ids["A"])
	want := []string{"enter R", "enter X", "enter A", "tick A"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Fatalf("Expected start %v, got %v", want, rec.log)
	}

	rec.log = nil
	m.Request(ids["B"])
	if n := m.Drain(); n != 1 {
		t.Errorf("Expected 1 committed transition, got %d", n)
	}

	want = []string{"exit A", "exit X", "enter B", "tick B"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("Expected %v, got %v", want, rec.log)
	}
	if m.Current() != ids["B"] {
		t.Errorf("Expected current B, got %s", m.CurrentName())
	}
}

// TestTransitionDeepEnter tests entering several levels below the ancestor
func TestTransitionDeepEnter(t *testing.T) {
	rec := &recorder{}
	m, ids := tree(t, rec)
	m.Start(ids["B"])
	rec.log = nil

	m.Request(ids["A"])
	m.Drain()

	want := []string{"exit B", "enter X", "enter A", "tick A"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("Expected %v, got %v", want, rec.log)
	}
}

// TestCompositeTargetDrills tests that targeting a parent lands on its initial child
func TestCompositeTargetDrills(t *testing.T) {
	rec := &recorder{}
	m, ids := tree(t, rec)
	m.Start(ids["B"])
	rec.log = nil

	m.Request(ids["X"])
	m.Drain()

	if m.Current() != ids["A"] {
		t.Errorf("Expected current A, got %s", m.CurrentName())
	}
	want := []string{"exit B", "enter X", "enter A", "tick A"}
	if !reflect.DeepEqual(rec.log, want) {
		t.Errorf("Expected %v, got %v", want, rec.log)
	}
}

// TestSkipSameAndNone tests that null and self requests are dropped
func TestSkipSameAndNone(t *testing.T) {
	rec := &recorder{}
	m, ids := tree(t, rec)
	m.Start(ids["A"])
	rec.log = nil

	m.Request(None)
	m.Request(ids["A"])
	m.Request(StateID(99))
	if n := m.Drain(); n != 0 {
		t.Errorf("Expected 0 committed transitions, got %d", n)
	}
	if len(rec.log) != 0 {
		t.Errorf("Expected no hooks, got %v", rec.log)
	}
	if m.Pending() != 0 {
		t.Errorf("Expected queue drained, got %d", m.Pending())
	}
}

// TestDrainBound tests that a cyclic chain stops at the bound and stays queued
func TestDrainBound(t *testing.T) {
	b := NewBuilder("Root")
	var ping, pong StateID
	var m *Machine
	ping = b.Add("Ping", Root, Hooks{Tick: func(float64) { m.Request(pong) }})
	pong = b.Add("Pong", Root, Hooks{Tick: func(float64) { m.Request(ping) }})
	built, err := b.Build(4)
	if err != nil {
		t.Fatal(err)
	}
	m = built

	changes := 0
	m.OnChanged(func(from, to StateID) { changes++ })

	m.Start(ping)
	// Start commits Ping, then its drain applies 4 more before stopping.
	if changes != 5 {
		t.Errorf("Expected 5 notifications, got %d", changes)
	}
	if m.Pending() != 1 {
		t.Errorf("Expected 1 request left queued, got %d", m.Pending())
	}
}

// TestObserverAndTickAfterTransition tests notification order and same-frame settle
func TestObserverAndTickAfterTransition(t *testing.T) {
	b := NewBuilder("Root")
	var m *Machine
	var idle, attack, done StateID
	var log []string
	var ticks []float64

	idle = b.Add("Idle", Root, Hooks{})
	attack = b.Add("Attack", Root, Hooks{Tick: func(dt float64) {
		ticks = append(ticks, dt)
		m.Request(done)
	}})
	done = b.Add("Recover", Root, Hooks{})
	built, err := b.Build(0)
	if err != nil {
		t.Fatal(err)
	}
	m = built
	m.OnChanged(func(from, to StateID) {
		log = append(log, m.Name(from)+">"+m.Name(to))
	})

	m.Start(idle)
	log = nil
	m.Request(attack)
	m.Drain()

	want := []string{"Idle>Attack", "Attack>Recover"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("Expected %v, got %v", want, log)
	}
	if len(ticks) != 1 || ticks[0] != 0 {
		t.Errorf("Expected one zero-dt settle tick, got %v", ticks)
	}
}

// TestQueries tests IsIn, Path and Lookup
func TestQueries(t *testing.T) {
	rec := &recorder{}
	m, ids := tree(t, rec)

	if m.IsIn(ids["A"]) {
		t.Error("Expected nothing active before Start")
	}

	m.Start(ids["A"])

	tests := []struct {
		name string
		want bool
	}{
		{"A", true},
		{"X", true},
		{"R", true},
		{"Root", true},
		{"B", false},
		{"Missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.IsInNamed(tt.name); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if got := m.Path(); !reflect.DeepEqual(got, []string{"Root", "R", "X", "A"}) {
		t.Errorf("Expected full path, got %v", got)
	}

	if _, err := m.Lookup("Nope"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Expected ErrUnknownState, got %v", err)
	}
	if id, err := m.Lookup("B"); err != nil || id != ids["B"] {
		t.Errorf("Expected B, got %d (%v)", id, err)
	}
}

// TestBuilderErrors tests duplicate names and bad parents
func TestBuilderErrors(t *testing.T) {
	b := NewBuilder("Root")
	b.Add("Idle", Root, Hooks{})
	b.Add("Idle", Root, Hooks{})
	if _, err := b.Build(0); err == nil {
		t.Error("Expected duplicate state error")
	}

	b = NewBuilder("Root")
	b.Add("Orphan", StateID(7), Hooks{})
	if _, err := b.Build(0); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Expected ErrUnknownState, got %v", err)
	}
}
