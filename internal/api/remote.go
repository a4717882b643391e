package api

import (
	"errors"
	"sync"
	"time"

	"fight-core/internal/command"
	"fight-core/internal/match"
	"fight-core/internal/moves"
)

// DefaultInputStaleAfter is how long remote commands are held without a
// refresh before the slot falls back to neutral.
const DefaultInputStaleAfter = 500 * time.Millisecond

// ErrSlotNotRemote is returned for slots driven by something else.
var ErrSlotNotRemote = errors.New("api: slot is not remote controlled")

type remoteSlot struct {
	enabled bool
	cmd     command.FighterCommands
	action  moves.ActionID
	updated time.Time
}

// RemoteInput holds the latest commands received over HTTP or WebSocket
// for each remote slot and hands them to the engine on poll. Actions are
// one-shot: each is delivered on the next frame only.
type RemoteInput struct {
	mu         sync.Mutex
	slots      [2]remoteSlot
	staleAfter time.Duration
	now        func() time.Time
}

// NewRemoteInput creates the input holder. staleAfter <= 0 uses
// DefaultInputStaleAfter.
func NewRemoteInput(staleAfter time.Duration) *RemoteInput {
	if staleAfter <= 0 {
		staleAfter = DefaultInputStaleAfter
	}
	return &RemoteInput{staleAfter: staleAfter, now: time.Now}
}

// Source marks slot as remote controlled and returns its input source.
func (ri *RemoteInput) Source(slot match.Slot) match.InputSource {
	if !slot.Valid() {
		return match.Idle
	}
	ri.mu.Lock()
	ri.slots[int(slot)-1].enabled = true
	ri.mu.Unlock()
	return match.InputFunc(func(match.View) match.Intent {
		return ri.take(slot)
	})
}

// Controls reports whether slot is remote controlled.
func (ri *RemoteInput) Controls(slot match.Slot) bool {
	if !slot.Valid() {
		return false
	}
	ri.mu.Lock()
	defer ri.mu.Unlock()
	return ri.slots[int(slot)-1].enabled
}

// SetCommands replaces the held commands for slot.
func (ri *RemoteInput) SetCommands(slot match.Slot, cmd command.FighterCommands) error {
	s, err := ri.slot(slot)
	if err != nil {
		return err
	}
	defer ri.mu.Unlock()

	cmd.Horizontal = max(-1, min(1, cmd.Horizontal))
	s.cmd = cmd
	s.updated = ri.now()
	return nil
}

// RequestAction queues id for the next frame. A later request before the
// frame replaces it.
func (ri *RemoteInput) RequestAction(slot match.Slot, id moves.ActionID) error {
	if !id.Valid() {
		return moves.ErrUnknownAction
	}
	s, err := ri.slot(slot)
	if err != nil {
		return err
	}
	defer ri.mu.Unlock()

	s.action = id
	return nil
}

// slot returns the locked slot entry; the caller unlocks on success.
func (ri *RemoteInput) slot(slot match.Slot) (*remoteSlot, error) {
	if !slot.Valid() {
		return nil, match.ErrInvalidSlot
	}
	ri.mu.Lock()
	s := &ri.slots[int(slot)-1]
	if !s.enabled {
		ri.mu.Unlock()
		return nil, ErrSlotNotRemote
	}
	return s, nil
}

func (ri *RemoteInput) take(slot match.Slot) match.Intent {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	s := &ri.slots[int(slot)-1]
	in := match.Intent{Action: s.action}
	s.action = moves.ActionNone
	if !s.updated.IsZero() && ri.now().Sub(s.updated) <= ri.staleAfter {
		in.Commands = s.cmd
	}
	return in
}
