package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"toolscope/internal/parse"
	"toolscope/internal/pubsub"
)

const defaultResultBufferCap = 64

// defaultHiddenTools are the conversational turns rendered inline by the
// presentation layer; they never appear as navigable tool entries.
var defaultHiddenTools = []string{"send_message", "wait_for_user"}

type indexKey struct {
	ownerMessageID string
	canonicalName  string
}

// Change summarizes one applied event batch; it is published to subscribers
// after the batch so the presentation layer can re-render without polling.
type Change struct {
	Appended  int
	Updated   int
	Completed int
	// Version increments once per published batch.
	Version uint64
}

// Stats are soft observability counters; nothing in the engine acts on them.
type Stats struct {
	EventsApplied   uint64
	CallsObserved   uint64
	ResultsObserved uint64
	DuplicateCalls  uint64
	FilteredCalls   uint64
	OrphansBuffered uint64
	OrphansEvicted  uint64
}

// Option customizes a new Engine.
type Option func(*Engine)

// WithHiddenTools replaces the set of function names excluded from the
// exposed list. Names are matched canonically.
func WithHiddenTools(names []string) Option {
	return func(e *Engine) {
		e.hidden = make(map[string]struct{}, len(names))
		for _, name := range names {
			e.hidden[parse.CanonicalName(name)] = struct{}{}
		}
	}
}

// WithResultBufferCap bounds the orphan-result buffer.
func WithResultBufferCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pending = newResultBuffer(n)
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is the reconciliation core. All state is owned exclusively by the
// engine; readers get snapshots, writers issue events. Apply serializes
// internally, so feeding it from multiple goroutines is safe, though a single
// delivery order is what defines the (convergent) result.
type Engine struct {
	mu sync.RWMutex

	records []Record
	byID    map[string]int
	index   map[indexKey]int

	// hiddenIDs tracks calls for filtered function names so their results
	// are consumed instead of lingering as orphans.
	hiddenIDs map[string]struct{}
	hidden    map[string]struct{}
	pending   *resultBuffer

	cursor  int
	pinned  bool
	running bool

	now     func() time.Time
	version uint64
	stats   Stats
	broker  *pubsub.Broker[Change]
}

// New constructs an engine with the default filtered tools and buffer size.
func New(opts ...Option) *Engine {
	e := &Engine{
		byID:      map[string]int{},
		index:     map[indexKey]int{},
		hiddenIDs: map[string]struct{}{},
		pending:   newResultBuffer(defaultResultBufferCap),
		cursor:    -1,
		now:       time.Now,
		broker:    pubsub.NewBroker[Change](16),
	}
	WithHiddenTools(defaultHiddenTools)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply folds a batch of events into the list, in order, then notifies
// subscribers once. Applying the same events again is a no-op by value: the
// upsert is keyed by call id and a Completed record never regresses.
func (e *Engine) Apply(events ...Event) {
	if len(events) == 0 {
		return
	}
	e.mu.Lock()
	var change Change
	for _, evt := range events {
		e.stats.EventsApplied++
		switch evt := evt.(type) {
		case CallObserved:
			e.applyCall(evt, &change)
		case ResultObserved:
			e.applyResult(evt, &change)
		case AgentRunningChanged:
			e.setRunningLocked(evt.Running)
		}
	}
	notify := change.Appended > 0 || change.Updated > 0 || change.Completed > 0
	if notify {
		e.version++
		change.Version = e.version
	}
	e.mu.Unlock()

	if notify {
		e.broker.Publish(pubsub.UpdatedEvent, change)
	}
}

func (e *Engine) applyCall(evt CallObserved, change *Change) {
	e.stats.CallsObserved++
	call := evt.Call
	canonical := parse.CanonicalName(call.FunctionName)

	if _, hidden := e.hidden[canonical]; hidden {
		e.stats.FilteredCalls++
		e.hiddenIDs[call.ID] = struct{}{}
		// Consume any buffered result so the id is not left unmatched.
		e.pending.Take(call.ID)
		return
	}

	if pos, ok := e.byID[call.ID]; ok {
		rec := &e.records[pos]
		if rec.Completed() {
			// Arguments are frozen once completed.
			e.stats.DuplicateCalls++
			return
		}
		if mergeArguments(rec, call) {
			change.Updated++
		} else {
			e.stats.DuplicateCalls++
		}
		return
	}

	observedAt := evt.ObservedAt
	if observedAt.IsZero() {
		observedAt = e.now()
	}
	rec := Record{
		ID:             call.ID,
		FunctionName:   call.FunctionName,
		Arguments:      cloneArguments(call.Arguments),
		Source:         call.Source,
		Status:         StatusStreaming,
		OwnerMessageID: evt.OwnerMessageID,
		FirstSeenAt:    observedAt,
	}
	e.records = append(e.records, rec)
	pos := len(e.records) - 1
	e.byID[call.ID] = pos
	key := indexKey{ownerMessageID: evt.OwnerMessageID, canonicalName: canonical}
	if _, ok := e.index[key]; !ok {
		e.index[key] = pos
	}
	change.Appended++

	if !e.pinned {
		e.cursor = pos
	}

	// A result may have arrived first; attach it retroactively.
	if res, ok := e.pending.Take(call.ID); ok {
		e.resolveLocked(pos, res, observedAt)
		change.Completed++
	}
}

func (e *Engine) applyResult(evt ResultObserved, change *Change) {
	e.stats.ResultsObserved++
	res := evt.Result
	if res.ToolCallID == "" {
		return
	}
	if _, hidden := e.hiddenIDs[res.ToolCallID]; hidden {
		return
	}
	pos, ok := e.byID[res.ToolCallID]
	if !ok {
		evicted := e.pending.Put(res)
		e.stats.OrphansBuffered++
		e.stats.OrphansEvicted += uint64(evicted)
		return
	}
	if e.records[pos].Completed() {
		return
	}
	observedAt := evt.ObservedAt
	if observedAt.IsZero() {
		observedAt = e.now()
	}
	e.resolveLocked(pos, res, observedAt)
	change.Completed++
}

func (e *Engine) resolveLocked(pos int, res parse.ResultPayload, at time.Time) {
	rec := &e.records[pos]
	rec.Result = &Result{Success: res.Success, Output: res.Output, Error: res.Error}
	rec.Status = StatusCompleted
	resolved := at
	rec.ResolvedAt = &resolved
}

// mergeArguments unions the incoming arguments into the streaming record.
// Keys never disappear; a newer value for an existing key wins. Returns
// whether anything changed.
func mergeArguments(rec *Record, call parse.Call) bool {
	changed := false
	if rec.Arguments == nil {
		rec.Arguments = map[string]any{}
	}
	for name, value := range call.Arguments {
		prev, ok := rec.Arguments[name]
		if ok && equalValue(prev, value) {
			continue
		}
		rec.Arguments[name] = value
		changed = true
	}
	return changed
}

func cloneArguments(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for name, value := range args {
		out[name] = value
	}
	return out
}

// equalValue compares coerced argument values; arguments are scalars, maps,
// and slices produced by JSON decoding, so string formatting is a cheap and
// adequate equality proxy for change detection.
func equalValue(a, b any) bool {
	// Values may be maps or slices, so no direct comparison.
	return stringify(a) == stringify(b)
}

func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// ToolCalls returns a snapshot of the reconciled list, excluding filtered
// function names. Mutating the returned records does not affect the engine.
func (e *Engine) ToolCalls() []Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Record, len(e.records))
	for i, rec := range e.records {
		out[i] = rec.clone()
	}
	return out
}

// At returns a snapshot of the record at position i.
func (e *Engine) At(i int) (Record, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i < 0 || i >= len(e.records) {
		return Record{}, false
	}
	return e.records[i].clone(), true
}

// Len reports the number of exposed records.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

// Lookup maps (ownerMessageID, functionName) to the list position of the
// first matching record. FunctionName may be in either encoding's spelling.
func (e *Engine) Lookup(ownerMessageID, functionName string) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pos, ok := e.index[indexKey{
		ownerMessageID: ownerMessageID,
		canonicalName:  parse.CanonicalName(functionName),
	}]
	return pos, ok
}

// Cursor returns the current navigable position, -1 while the list is empty.
func (e *Engine) Cursor() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// SetCursor pins the cursor to i (clamped). Manual navigation suspends
// follow mode until the agent stops.
func (e *Engine) SetCursor(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.records) == 0 {
		e.cursor = -1
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(e.records) {
		i = len(e.records) - 1
	}
	e.cursor = i
	e.pinned = true
}

// Following reports whether the cursor auto-advances to new entries.
func (e *Engine) Following() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.pinned
}

// SetAgentRunning records run activity; the stop transition re-arms follow
// mode. Equivalent to applying AgentRunningChanged.
func (e *Engine) SetAgentRunning(running bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setRunningLocked(running)
}

func (e *Engine) setRunningLocked(running bool) {
	if e.running && !running {
		e.pinned = false
	}
	e.running = running
}

// AgentRunning reports the last observed run activity state.
func (e *Engine) AgentRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Subscribe registers for change notifications; one event per applied batch
// that altered the list.
func (e *Engine) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return e.broker.Subscribe(ctx)
}

// Stats returns a copy of the soft counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// Close shuts down change notification delivery.
func (e *Engine) Close() {
	e.broker.Close()
}
