package fighter

import (
	"fight-core/internal/command"
	"fight-core/internal/moves"
)

// Handler priorities on the normal channel.
const (
	priorityCancel = 10
	priorityBegin  = 0
)

// SetCommands ingests this frame's command snapshot. It overwrites the
// previous snapshot and turns key-down edges into tokens: each token is
// offered to the special matcher first, and only unmatched tokens reach the
// command queue.
func (f *Fighter) SetCommands(cmd command.FighterCommands) {
	f.cmd = cmd
	now := f.clock.Now()

	for _, tok := range f.edges.Tokens(cmd, f.facing) {
		if tok == command.TokenThrow {
			f.lastThrowPress = now
		}
		if f.cfg.SpecialsEnabled {
			if p, ok := f.matcher.Push(tok, now); ok {
				for _, fn := range f.specialObservers {
					fn(p.Trigger)
				}
				f.routeSpecial(p.Trigger)
				continue
			}
		}
		ch := command.ChannelNormal
		if tok.IsDirection() {
			ch = command.ChannelCombo
		}
		f.queue.Enqueue(ch, tok)
	}
}

// RequestAction asks for an action the way a matched special does: mid
// attack it becomes a cancel request, from neutral it begins the action.
// Requests that do not fit the current state are dropped.
func (f *Fighter) RequestAction(id moves.ActionID) {
	if !id.Valid() {
		return
	}
	f.routeSpecial(id)
}

// Taps returns how many direction taps were observed.
func (f *Fighter) Taps() int { return f.taps }

// Queue exposes the command queue for inspection.
func (f *Fighter) Queue() *command.CommandQueue { return f.queue }

func (f *Fighter) registerHandlers() {
	f.queue.SetTapObserver(func(ch command.Channel, tok command.TimedToken) {
		if ch == command.ChannelCombo && tok.Token != command.TokenNeutral {
			f.taps++
		}
	})

	for _, tok := range []command.Token{command.TokenLight, command.TokenHeavy, command.TokenThrow} {
		action := actionForToken(tok)
		f.queue.RegisterHandler(command.ChannelNormal, tok, func(command.TimedToken) bool {
			return f.handleCancel(action)
		}, priorityCancel)
		f.queue.RegisterHandler(command.ChannelNormal, tok, func(command.TimedToken) bool {
			return f.handleBegin(action)
		}, priorityBegin)
	}
}

// handleCancel turns a button press during an attack into a pending cancel.
func (f *Fighter) handleCancel(action moves.ActionID) bool {
	if !f.inAttack() {
		return false
	}
	f.pendingCancel = action
	return true
}

// handleBegin records a button press from neutral for root arbitration.
// Presses that arrive while the fighter cannot act stay buffered.
func (f *Fighter) handleBegin(action moves.ActionID) bool {
	if !f.canAct() {
		return false
	}
	f.requested = action
	return true
}

// routeSpecial executes a matched special or an explicit action request.
func (f *Fighter) routeSpecial(trigger moves.ActionID) {
	if seq, ok := f.table.SequenceFor(trigger); trigger == moves.ActionHeal || ok && seq.Kind == moves.SequenceHeal {
		minHP := 1
		if ok {
			minHP = seq.MinHP
		}
		f.routeHeal(minHP)
		return
	}
	switch {
	case f.inAttack():
		f.pendingCancel = trigger
	case f.canAct():
		f.requested = trigger
	}
}

// routeHeal starts a heal from neutral when health is at least minHP and
// not already full.
func (f *Fighter) routeHeal(minHP int) {
	if !f.canAct() || f.Health.Full() || f.Health.Current() < max(minHP, 1) {
		return
	}
	f.requested = moves.ActionHeal
}

// inAttack reports an attack-like state that accepts cancel requests.
func (f *Fighter) inAttack() bool {
	return f.move != nil && (f.machine.IsIn(f.st.attack) || f.machine.IsIn(f.st.super))
}

// canAct reports a neutral state from which an action may begin.
func (f *Fighter) canAct() bool {
	return f.machine.IsIn(f.st.movement)
}
