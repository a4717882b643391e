package command

import "sort"

// Channel selects one of the independent token FIFOs.
type Channel uint8

const (
	ChannelNormal Channel = iota
	ChannelCombo
	channelCount
)

// String returns the channel name
func (c Channel) String() string {
	switch c {
	case ChannelNormal:
		return "normal"
	case ChannelCombo:
		return "combo"
	default:
		return "unknown"
	}
}

// DefaultWindow is the default token lifetime for both channels.
const DefaultWindow = 0.25

// Clock supplies simulated time in seconds.
type Clock interface {
	Now() float64
}

// Handler reacts to an enqueued token. Returning true consumes it: no lower
// priority handler sees it and it is removed from the channel.
type Handler func(TimedToken) bool

// TapObserver sees every accepted token before handlers run. It cannot consume.
type TapObserver func(Channel, TimedToken)

type handlerEntry struct {
	fn       Handler
	priority int
}

type channelQueue struct {
	window   float64
	items    []TimedToken
	handlers map[Token][]handlerEntry
}

// CommandQueue buffers timestamped tokens on two channels and dispatches them
// to priority-ordered handlers.
//
// Expired tokens are never returned, but they are only evicted lazily when a
// channel is touched (enqueue, peek, dequeue).
type CommandQueue struct {
	clock    Clock
	channels [channelCount]channelQueue
	onTap    TapObserver
}

// NewCommandQueue creates a queue with per-channel windows in seconds.
// Non-positive windows fall back to DefaultWindow.
func NewCommandQueue(clock Clock, normalWindow, comboWindow float64) *CommandQueue {
	q := &CommandQueue{clock: clock}
	q.channels[ChannelNormal] = newChannelQueue(normalWindow)
	q.channels[ChannelCombo] = newChannelQueue(comboWindow)
	return q
}

func newChannelQueue(window float64) channelQueue {
	if window <= 0 {
		window = DefaultWindow
	}
	return channelQueue{
		window:   window,
		items:    make([]TimedToken, 0, 8),
		handlers: make(map[Token][]handlerEntry),
	}
}

// SetTapObserver installs the non-consuming observer.
func (q *CommandQueue) SetTapObserver(fn TapObserver) {
	q.onTap = fn
}

// Window returns the lifetime of a channel.
func (q *CommandQueue) Window(ch Channel) float64 {
	if ch >= channelCount {
		return 0
	}
	return q.channels[ch].window
}

// RegisterHandler adds a handler for token on channel. Handlers run in
// descending priority; equal priorities keep registration order.
func (q *CommandQueue) RegisterHandler(ch Channel, tok Token, fn Handler, priority int) {
	if ch >= channelCount || fn == nil {
		return
	}
	c := &q.channels[ch]
	list := append(c.handlers[tok], handlerEntry{fn: fn, priority: priority})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority > list[j].priority
	})
	c.handlers[tok] = list
}

// Enqueue stamps tok with the current time and dispatches it.
// TokenNone is rejected. Returns true if a handler consumed the token.
func (q *CommandQueue) Enqueue(ch Channel, tok Token) bool {
	if tok == TokenNone || ch >= channelCount {
		return false
	}

	now := q.clock.Now()
	c := &q.channels[ch]
	entry := TimedToken{Token: tok, Time: now}
	c.items = append(c.items, entry)
	c.purge(now)

	if q.onTap != nil {
		q.onTap(ch, entry)
	}

	for _, h := range c.handlers[tok] {
		if h.fn(entry) {
			c.remove(entry)
			return true
		}
	}
	return false
}

// TryPeek returns the oldest live token on ch without removing it.
func (q *CommandQueue) TryPeek(ch Channel) (TimedToken, bool) {
	if ch >= channelCount {
		return TimedToken{}, false
	}
	c := &q.channels[ch]
	c.purge(q.clock.Now())
	if len(c.items) == 0 {
		return TimedToken{}, false
	}
	return c.items[0], true
}

// TryDequeue removes and returns the oldest live token on ch.
func (q *CommandQueue) TryDequeue(ch Channel) (TimedToken, bool) {
	if ch >= channelCount {
		return TimedToken{}, false
	}
	c := &q.channels[ch]
	c.purge(q.clock.Now())
	if len(c.items) == 0 {
		return TimedToken{}, false
	}
	head := c.items[0]
	c.items = c.items[1:]
	return head, true
}

// Len returns the number of stored tokens on ch, expired ones included.
func (q *CommandQueue) Len(ch Channel) int {
	if ch >= channelCount {
		return 0
	}
	return len(q.channels[ch].items)
}

// Clear drops every stored token; handlers stay registered.
func (q *CommandQueue) Clear() {
	for i := range q.channels {
		q.channels[i].items = q.channels[i].items[:0]
	}
}

// purge drops tokens older than the window. Items are in time order, so the
// expired ones are always a prefix.
func (c *channelQueue) purge(now float64) {
	n := 0
	for n < len(c.items) && now-c.items[n].Time > c.window {
		n++
	}
	if n > 0 {
		c.items = append(c.items[:0], c.items[n:]...)
	}
}

func (c *channelQueue) remove(entry TimedToken) {
	for i := len(c.items) - 1; i >= 0; i-- {
		if c.items[i] == entry {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}
