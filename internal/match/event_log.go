package match

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	TraceBufferSize       = 1024                   // Circular buffer size
	MaxTraceEventsPerSec  = 10000                  // Global rate limit
	MaxEventsPerFighter   = 600                    // Per-fighter rate limit per second
	TraceFlushSize        = 64                     // Events per batch write
	TraceFlushInterval    = 100 * time.Millisecond // How often to flush
	FighterLimiterCleanup = 5 * time.Minute        // Cleanup interval for idle limiters
)

// EventLog is the combat trace: a bounded, rate-limited ring buffer drained
// by an async writer into newline-delimited JSON. The simulation never
// blocks on it; when it falls behind the oldest events are dropped.
type EventLog struct {
	// Circular buffer (single producer: the engine tick)
	buffer    [TraceBufferSize]Event
	writeHead uint64 // atomic - producer position
	readHead  uint64 // atomic - consumer position

	limits          EventLogLimits
	globalLimiter   *rate.Limiter
	fighterLimiters sync.Map // map[string]*limiterEntry
	drainMu         sync.Mutex

	// Async writer
	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
	writtenCount uint64 // atomic
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// LogStats is a point-in-time view of the trace counters
type LogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Written uint64 `json:"written"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
	Path    string `json:"path,omitempty"`
}

// EventLogLimits bounds how fast events enter the trace, in wall-clock
// time. rate.Inf disables a limit; the burst is then ignored.
type EventLogLimits struct {
	Global          rate.Limit
	GlobalBurst     int
	PerFighter      rate.Limit
	PerFighterBurst int
}

// DefaultEventLogLimits suits a live match running at its tick rate.
func DefaultEventLogLimits() EventLogLimits {
	return EventLogLimits{
		Global:          MaxTraceEventsPerSec,
		GlobalBurst:     MaxTraceEventsPerSec / 10,
		PerFighter:      MaxEventsPerFighter,
		PerFighterBurst: MaxEventsPerFighter / 10,
	}
}

// UnlimitedEventLog admits every event, for runs stepped faster than real
// time.
var UnlimitedEventLog = EventLogLimits{Global: rate.Inf, PerFighter: rate.Inf}

// NewEventLog creates a stopped trace log
func NewEventLog(limits EventLogLimits) *EventLog {
	return &EventLog{
		limits:        limits,
		globalLimiter: rate.NewLimiter(limits.Global, limits.GlobalBurst),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer goroutine. An empty path keeps the trace in
// memory only (events are counted and discarded on flush).
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("match: open trace %s: %w", filePath, err)
		}
		el.file = file
	}
	el.filePath = filePath

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	return nil
}

// Stop flushes what is buffered and closes the file. Safe to call twice.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
			el.file = nil
		}
		el.fileMu.Unlock()
	})
}

// Emit adds an event. Returns false if rate limited or not running.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	if event.FighterID != "" && !el.fighterLimiter(event.FighterID).Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	head := atomic.AddUint64(&el.writeHead, 1)
	tail := atomic.LoadUint64(&el.readHead)

	// Full: overwrite the oldest slot
	if head-tail > TraceBufferSize {
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}

	event.Sequence = head
	el.buffer[(head-1)%TraceBufferSize] = event

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple builds and emits an event in one call
func (el *EventLog) EmitSimple(eventType EventType, frame uint64, fighterID string, payload interface{}) bool {
	if !el.running.Load() {
		return false
	}
	return el.Emit(NewEvent(eventType, frame, fighterID, payload))
}

func (el *EventLog) fighterLimiter(id string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.fighterLimiters.Load(id); ok {
		e := v.(*limiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &limiterEntry{limiter: rate.NewLimiter(el.limits.PerFighter, el.limits.PerFighterBurst)}
	entry.lastUsed.Store(now)
	actual, _ := el.fighterLimiters.LoadOrStore(id, entry)
	return actual.(*limiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(TraceFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, TraceFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Drain everything on the way out
			el.drain(batch)
			return

		case <-ticker.C:
			batch = el.drainOnce(batch)
		}
	}
}

// Flush writes everything buffered so far from the calling goroutine. A
// producer that outruns the flush interval calls it to keep the ring from
// overwriting unwritten events.
func (el *EventLog) Flush() {
	if !el.running.Load() {
		return
	}
	el.drain(make([]Event, 0, TraceFlushSize))
}

func (el *EventLog) drain(batch []Event) {
	for {
		batch = el.drainOnce(batch)
		if len(batch) == 0 {
			return
		}
	}
}

// drainOnce collects and writes one batch; the mutex keeps the writer loop
// and Flush from reading the same slots.
func (el *EventLog) drainOnce(batch []Event) []Event {
	el.drainMu.Lock()
	defer el.drainMu.Unlock()

	batch = el.collectBatch(batch[:0])
	if len(batch) > 0 {
		el.flushBatch(batch)
	}
	return batch
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(FighterLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-FighterLimiterCleanup).UnixNano()
			el.fighterLimiters.Range(func(key, value interface{}) bool {
				if value.(*limiterEntry).lastUsed.Load() < cutoff {
					el.fighterLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

// collectBatch reads up to TraceFlushSize events from the ring
func (el *EventLog) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	for i := tail; i < head && len(batch) < TraceFlushSize; i++ {
		batch = append(batch, el.buffer[i%TraceBufferSize])
	}

	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}

	return batch
}

// flushBatch appends events as JSON lines
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(append(data, '\n'))
		atomic.AddUint64(&el.writtenCount, 1)
	}
}

// Stats returns counters for monitoring
func (el *EventLog) Stats() LogStats {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	return LogStats{
		Total:   atomic.LoadUint64(&el.totalCount),
		Dropped: atomic.LoadUint64(&el.droppedCount),
		Written: atomic.LoadUint64(&el.writtenCount),
		Pending: head - tail,
		Running: el.running.Load(),
		Path:    el.filePath,
	}
}
