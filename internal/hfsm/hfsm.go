// Package hfsm is an index-based hierarchical state machine.
//
// States live in a flat table with a parent index per entry. Transitions are
// requested, never applied from inside a hook: a bounded drain loop applies
// them in order, exiting up to the lowest common ancestor and entering back
// down to the target, so a state's Enter never runs before its ancestors'
// and its Exit never runs before its descendants'.
package hfsm

import (
	"errors"
	"fmt"
)

// ErrUnknownState is returned by name lookups that miss.
var ErrUnknownState = errors.New("hfsm: unknown state")

// DefaultMaxDrain bounds how many requests one Drain call applies.
const DefaultMaxDrain = 8

// StateID indexes the state table. The root is always 0.
type StateID int

// None is the null state. Requests for None are skipped.
const None StateID = -1

// Root is the ID of the root state.
const Root StateID = 0

// Hooks are the callbacks of one state. Any of them may be nil.
type Hooks struct {
	Enter func()
	Exit  func()
	Tick  func(dt float64)
}

// Observer is notified after every committed transition.
type Observer func(from, to StateID)

type node struct {
	name    string
	parent  StateID
	depth   int
	initial StateID
	hooks   Hooks
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder assembles the state table. The first error sticks and is
// returned by Build.
type Builder struct {
	nodes  []node
	byName map[string]StateID
	err    error
}

// NewBuilder starts a table with a root state named rootName.
func NewBuilder(rootName string) *Builder {
	return &Builder{
		nodes:  []node{{name: rootName, parent: None, initial: None}},
		byName: map[string]StateID{rootName: Root},
	}
}

// SetRootHooks attaches hooks to the root.
func (b *Builder) SetRootHooks(h Hooks) {
	b.nodes[Root].hooks = h
}

// Add appends a state under parent. The first child added to a state
// becomes its initial child.
func (b *Builder) Add(name string, parent StateID, hooks Hooks) StateID {
	if b.err != nil {
		return None
	}
	if _, dup := b.byName[name]; dup {
		b.err = fmt.Errorf("hfsm: duplicate state %q", name)
		return None
	}
	if parent < 0 || int(parent) >= len(b.nodes) {
		b.err = fmt.Errorf("%w: parent %d of %q", ErrUnknownState, parent, name)
		return None
	}

	id := StateID(len(b.nodes))
	b.nodes = append(b.nodes, node{
		name:    name,
		parent:  parent,
		depth:   b.nodes[parent].depth + 1,
		initial: None,
		hooks:   hooks,
	})
	b.byName[name] = id
	if b.nodes[parent].initial == None {
		b.nodes[parent].initial = id
	}
	return id
}

// SetInitial overrides the child entered when parent itself is targeted.
func (b *Builder) SetInitial(parent, child StateID) {
	if b.err != nil {
		return
	}
	if int(child) >= len(b.nodes) || child <= Root || b.nodes[child].parent != parent {
		b.err = fmt.Errorf("hfsm: %d is not a child of %d", child, parent)
		return
	}
	b.nodes[parent].initial = child
}

// Build returns a machine over the table. maxDrain <= 0 uses DefaultMaxDrain.
// The machine is not started.
func (b *Builder) Build(maxDrain int) (*Machine, error) {
	if b.err != nil {
		return nil, b.err
	}
	if maxDrain <= 0 {
		maxDrain = DefaultMaxDrain
	}
	return &Machine{
		nodes:    b.nodes,
		byName:   b.byName,
		current:  None,
		maxDrain: maxDrain,
		pending:  make([]StateID, 0, maxDrain),
		exitBuf:  make([]StateID, 0, 8),
		enterBuf: make([]StateID, 0, 8),
	}, nil
}

// =============================================================================
// MACHINE
// =============================================================================

// Machine runs one state table. It is not safe for concurrent use.
type Machine struct {
	nodes    []node
	byName   map[string]StateID
	current  StateID
	pending  []StateID
	maxDrain int
	draining bool

	observers []Observer

	exitBuf  []StateID
	enterBuf []StateID
}

// OnChanged registers an observer for committed transitions.
func (m *Machine) OnChanged(fn Observer) {
	if fn != nil {
		m.observers = append(m.observers, fn)
	}
}

// Start enters the path from the root down to id (drilling into initial
// children), commits it and ticks it once with dt=0. A running machine
// first exits its whole active path. Pending requests are dropped.
func (m *Machine) Start(id StateID) {
	m.pending = m.pending[:0]
	for s := m.current; s != None; s = m.nodes[s].parent {
		if fn := m.nodes[s].hooks.Exit; fn != nil {
			fn()
		}
	}
	target := m.settle(id)
	if target == None {
		target = m.settle(Root)
	}

	m.enterBuf = m.enterBuf[:0]
	for s := target; s != None; s = m.nodes[s].parent {
		m.enterBuf = append(m.enterBuf, s)
	}
	for i := len(m.enterBuf) - 1; i >= 0; i-- {
		if fn := m.nodes[m.enterBuf[i]].hooks.Enter; fn != nil {
			fn()
		}
	}

	from := m.current
	m.current = target
	m.notify(from, target)
	m.tickCurrent(0)
	m.Drain()
}

// Request queues a transition. It is always safe to call, including from
// inside hooks.
func (m *Machine) Request(id StateID) {
	m.pending = append(m.pending, id)
}

// Tick runs the current state's Tick hook, then drains requests.
func (m *Machine) Tick(dt float64) {
	m.tickCurrent(dt)
	m.Drain()
}

// Drain applies up to the drain bound of queued requests and returns how
// many transitions were committed. Requests beyond the bound stay queued.
// A Drain issued from inside a hook returns immediately; the outer loop
// picks up whatever the hook queued.
func (m *Machine) Drain() int {
	if m.draining {
		return 0
	}
	m.draining = true
	defer func() { m.draining = false }()

	committed := 0
	for i := 0; i < m.maxDrain && len(m.pending) > 0; i++ {
		req := m.pending[0]
		copy(m.pending, m.pending[1:])
		m.pending = m.pending[:len(m.pending)-1]

		target := m.settle(req)
		if target == None || target == m.current {
			continue
		}
		m.transition(target)
		committed++
	}
	return committed
}

func (m *Machine) transition(target StateID) {
	from := m.current
	lca := m.commonAncestor(from, target)

	m.exitBuf = m.exitBuf[:0]
	for s := from; s != lca && s != None; s = m.nodes[s].parent {
		m.exitBuf = append(m.exitBuf, s)
	}
	m.enterBuf = m.enterBuf[:0]
	for s := target; s != lca && s != None; s = m.nodes[s].parent {
		m.enterBuf = append(m.enterBuf, s)
	}

	for _, s := range m.exitBuf {
		if fn := m.nodes[s].hooks.Exit; fn != nil {
			fn()
		}
	}
	for i := len(m.enterBuf) - 1; i >= 0; i-- {
		if fn := m.nodes[m.enterBuf[i]].hooks.Enter; fn != nil {
			fn()
		}
	}

	m.current = target
	m.notify(from, target)
	m.tickCurrent(0)
}

func (m *Machine) tickCurrent(dt float64) {
	if m.current == None {
		return
	}
	if fn := m.nodes[m.current].hooks.Tick; fn != nil {
		fn(dt)
	}
}

func (m *Machine) notify(from, to StateID) {
	for _, fn := range m.observers {
		fn(from, to)
	}
}

// settle resolves a request to the leaf it lands on.
func (m *Machine) settle(id StateID) StateID {
	if !m.valid(id) {
		return None
	}
	for m.nodes[id].initial != None {
		id = m.nodes[id].initial
	}
	return id
}

func (m *Machine) commonAncestor(a, b StateID) StateID {
	if a == None || b == None {
		return None
	}
	for m.nodes[a].depth > m.nodes[b].depth {
		a = m.nodes[a].parent
	}
	for m.nodes[b].depth > m.nodes[a].depth {
		b = m.nodes[b].parent
	}
	for a != b {
		a = m.nodes[a].parent
		b = m.nodes[b].parent
	}
	return a
}

func (m *Machine) valid(id StateID) bool {
	return id >= 0 && int(id) < len(m.nodes)
}

// =============================================================================
// QUERIES
// =============================================================================

// Current returns the active leaf, or None before Start.
func (m *Machine) Current() StateID {
	return m.current
}

// CurrentName returns the active leaf's name.
func (m *Machine) CurrentName() string {
	return m.Name(m.current)
}

// Name returns a state's name, or "" for an invalid ID.
func (m *Machine) Name(id StateID) string {
	if !m.valid(id) {
		return ""
	}
	return m.nodes[id].name
}

// Lookup resolves a state name.
func (m *Machine) Lookup(name string) (StateID, error) {
	id, ok := m.byName[name]
	if !ok {
		return None, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return id, nil
}

// Parent returns a state's parent, None for the root.
func (m *Machine) Parent(id StateID) StateID {
	if !m.valid(id) {
		return None
	}
	return m.nodes[id].parent
}

// Depth returns a state's depth; the root is 0.
func (m *Machine) Depth(id StateID) int {
	if !m.valid(id) {
		return -1
	}
	return m.nodes[id].depth
}

// IsIn reports whether id is the current state or one of its ancestors.
func (m *Machine) IsIn(id StateID) bool {
	if !m.valid(id) {
		return false
	}
	for s := m.current; s != None; s = m.nodes[s].parent {
		if s == id {
			return true
		}
	}
	return false
}

// IsInNamed is IsIn by name. Unknown names are never active.
func (m *Machine) IsInNamed(name string) bool {
	id, ok := m.byName[name]
	return ok && m.IsIn(id)
}

// Path returns state names from the root down to the current state.
func (m *Machine) Path() []string {
	if m.current == None {
		return nil
	}
	path := make([]string, m.nodes[m.current].depth+1)
	for s := m.current; s != None; s = m.nodes[s].parent {
		path[m.nodes[s].depth] = m.nodes[s].name
	}
	return path
}

// Pending returns how many requests are still queued.
func (m *Machine) Pending() int {
	return len(m.pending)
}

// Len returns the number of states.
func (m *Machine) Len() int {
	return len(m.nodes)
}
