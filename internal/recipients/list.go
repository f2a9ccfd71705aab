package recipients

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gikenye/givecaesar/internal/errs"
)

const DefaultResolveTimeout = 15 * time.Second

type EventType int

const (
	EventAdded EventType = iota
	EventRemoved
	EventAddressChanged
	EventAddressResolved
	EventResolutionFailed
	EventAmountChanged
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventAddressChanged:
		return "address_changed"
	case EventAddressResolved:
		return "address_resolved"
	case EventResolutionFailed:
		return "resolution_failed"
	case EventAmountChanged:
		return "amount_changed"
	default:
		return "unknown"
	}
}

// Event describes one change to the list. Entry is a snapshot taken when the
// change was applied; for EventRemoved only Entry.ID is meaningful.
type Event struct {
	Type       EventType
	Entry      Entry
	Resolution *Resolution
}

// List is the ordered, always non-empty collection of recipient entries.
// Entries are mutated only through its methods. Address resolution runs in
// the background and its result is applied only if the entry's raw input is
// still the text that was resolved.
type List struct {
	mu       sync.Mutex
	entries  []*Entry
	resolver IdentifierResolver
	unit     Unit
	ctx      context.Context
	timeout  time.Duration
	logger   *slog.Logger

	listenerMu sync.RWMutex
	listeners  map[int]func(Event)
	nextID     int

	inflight sync.WaitGroup
}

type ListOption func(*List)

func WithLogger(logger *slog.Logger) ListOption {
	return func(l *List) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithContext sets the parent context for background resolutions.
func WithContext(ctx context.Context) ListOption {
	return func(l *List) {
		if ctx != nil {
			l.ctx = ctx
		}
	}
}

func WithResolveTimeout(d time.Duration) ListOption {
	return func(l *List) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewList returns a list holding a single empty entry.
func NewList(resolver IdentifierResolver, unit Unit, opts ...ListOption) *List {
	l := &List{
		resolver:  resolver,
		unit:      unit,
		ctx:       context.Background(),
		timeout:   DefaultResolveTimeout,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = []*Entry{newEntry()}
	return l
}

func newEntry() *Entry {
	return &Entry{ID: uuid.NewString()}
}

func (l *List) Unit() Unit {
	return l.unit
}

// Add appends an empty entry and returns its id.
func (l *List) Add() string {
	l.mu.Lock()
	e := newEntry()
	l.entries = append(l.entries, e)
	snap := e.clone()
	l.mu.Unlock()

	l.emit(Event{Type: EventAdded, Entry: snap})
	return snap.ID
}

// Remove deletes the entry unless it is the only one left, which is a no-op.
func (l *List) Remove(id string) error {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return errs.ErrUnknownEntry
	}
	if len(l.entries) == 1 {
		l.mu.Unlock()
		return nil
	}
	l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
	l.mu.Unlock()

	l.emit(Event{Type: EventRemoved, Entry: Entry{ID: id}})
	return nil
}

// UpdateAddress records text as the entry's raw input immediately and starts
// resolving it in the background.
func (l *List) UpdateAddress(id, text string) error {
	l.mu.Lock()
	e := l.find(id)
	if e == nil {
		l.mu.Unlock()
		return errs.ErrUnknownEntry
	}

	e.RawInput = text
	blank := strings.TrimSpace(text) == ""
	if blank {
		e.applyResolution(Resolution{Input: text, Kind: ResolutionEmpty})
	} else {
		e.markResolving()
		l.inflight.Add(1)
	}
	snap := e.clone()
	l.mu.Unlock()

	l.emit(Event{Type: EventAddressChanged, Entry: snap})
	if !blank {
		go l.resolve(id, text)
	}
	return nil
}

func (l *List) resolve(id, text string) {
	defer l.inflight.Done()

	ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
	defer cancel()
	res := l.resolver.Resolve(ctx, text)

	l.mu.Lock()
	e := l.find(id)
	if e == nil || e.RawInput != text {
		l.mu.Unlock()
		l.logger.Debug("discarding stale resolution", "entry", id, "kind", res.Kind.String())
		return
	}
	e.applyResolution(res)
	snap := e.clone()
	l.mu.Unlock()

	l.emit(Event{Type: EventAddressResolved, Entry: snap, Resolution: &res})
	if res.Err != nil {
		l.logger.Info("address resolution failed", "entry", id, "kind", res.Kind.String(), "error", res.Err)
		l.emit(Event{Type: EventResolutionFailed, Entry: snap, Resolution: &res})
	}
}

// UpdateAmount stores the typed amount and recomputes validity.
func (l *List) UpdateAmount(id, text string) error {
	l.mu.Lock()
	e := l.find(id)
	if e == nil {
		l.mu.Unlock()
		return errs.ErrUnknownEntry
	}
	e.setAmount(text, l.unit)
	snap := e.clone()
	l.mu.Unlock()

	l.emit(Event{Type: EventAmountChanged, Entry: snap})
	return nil
}

// Entries returns copies of all entries in list order.
func (l *List) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

func (l *List) Entry(id string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.find(id)
	if e == nil {
		return Entry{}, false
	}
	return e.clone(), true
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Valid returns the valid entries in list order.
func (l *List) Valid() []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if e.Valid {
			out = append(out, e)
		}
	}
	return out
}

// Total aggregates the current valid entries.
func (l *List) Total() Total {
	return Aggregate(l.Entries(), l.unit)
}

// Plan builds a fresh submission plan from the current entries.
func (l *List) Plan() (Plan, error) {
	return Build(l.Entries(), l.unit)
}

// Wait blocks until no resolution is in flight. Must not be called
// concurrently with UpdateAddress.
func (l *List) Wait() {
	l.inflight.Wait()
}

// Subscribe registers fn for every change and returns a function that
// removes it. fn runs on the goroutine that made the change.
func (l *List) Subscribe(fn func(Event)) func() {
	l.listenerMu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.listenerMu.Unlock()

	return func() {
		l.listenerMu.Lock()
		delete(l.listeners, id)
		l.listenerMu.Unlock()
	}
}

func (l *List) emit(ev Event) {
	l.listenerMu.RLock()
	fns := make([]func(Event), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.listenerMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (l *List) find(id string) *Entry {
	if idx := l.indexOf(id); idx >= 0 {
		return l.entries[idx]
	}
	return nil
}

func (l *List) indexOf(id string) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
