// Package lifecycle tracks a single batch submission from signature request
// to on-chain settlement.
package lifecycle

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gikenye/givecaesar/internal/errs"
)

// ErrInFlight is returned by Begin while another submission is pending.
var ErrInFlight = errs.ErrInFlight

// ErrIllegalTransition is returned when an edge is not in the transition
// table. The state is left unchanged.
type ErrIllegalTransition struct {
	From State
	To   State
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// Receipt is the settlement result handed to Confirm.
type Receipt struct {
	TxID        string
	BlockNumber uint64
	GasUsed     uint64
}

// Status is a point-in-time copy of the tracker.
type Status struct {
	State State
	// TxID is set once the network accepted the transaction.
	TxID    string
	Receipt *Receipt
	Err     error
	Since   time.Time
}

// Transition is delivered to subscribers for every state change.
type Transition struct {
	From   State
	To     State
	Status Status
}

// Tracker owns the lifecycle state. At most one submission is tracked at a
// time; Confirmed and Failed stay put until the next Begin or Reset.
type Tracker struct {
	mu     sync.Mutex
	status Status
	logger *slog.Logger
	now    func() time.Time

	listenerMu sync.RWMutex
	listeners  map[int]func(Transition)
	nextID     int
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		listeners: make(map[int]func(Transition)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.status = Status{State: Idle, Since: t.now()}
	return t
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) State() State {
	return t.Status().State
}

// Begin starts a submission. A terminal state is reset to Idle first, and
// that reset is published like any other transition.
func (t *Tracker) Begin() error {
	t.mu.Lock()
	cur := t.status.State
	if !cur.CanSubmit() {
		t.mu.Unlock()
		return ErrInFlight
	}

	var fired []Transition
	if cur.Terminal() {
		fired = append(fired, t.move(Idle, Status{}))
	}
	fired = append(fired, t.move(AwaitingSignature, Status{}))
	t.mu.Unlock()

	t.publish(fired...)
	return nil
}

// Approve records that the signer returned a signature.
func (t *Tracker) Approve() error {
	return t.transition(AwaitingSignature, Broadcasting, Status{})
}

// Accept records that the network accepted the transaction.
func (t *Tracker) Accept(txID string) error {
	return t.transition(Broadcasting, Confirming, Status{TxID: txID})
}

// Confirm records a successful receipt.
func (t *Tracker) Confirm(r Receipt) error {
	t.mu.Lock()
	txID := t.status.TxID
	t.mu.Unlock()
	if r.TxID == "" {
		r.TxID = txID
	}
	return t.transition(Confirming, Confirmed, Status{TxID: r.TxID, Receipt: &r})
}

// Fail moves any pending state to Failed with err attached.
func (t *Tracker) Fail(err error) error {
	t.mu.Lock()
	cur := t.status
	if !canTransition(cur.State, Failed) {
		t.mu.Unlock()
		return &ErrIllegalTransition{From: cur.State, To: Failed}
	}
	tr := t.move(Failed, Status{TxID: cur.TxID, Err: err})
	t.mu.Unlock()

	t.publish(tr)
	return nil
}

// Reset returns a terminal tracker to Idle. It is a no-op when already Idle.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	cur := t.status.State
	if cur == Idle {
		t.mu.Unlock()
		return nil
	}
	if !canTransition(cur, Idle) {
		t.mu.Unlock()
		return &ErrIllegalTransition{From: cur, To: Idle}
	}
	tr := t.move(Idle, Status{})
	t.mu.Unlock()

	t.publish(tr)
	return nil
}

// Subscribe registers fn for every transition and returns a function that
// removes it.
func (t *Tracker) Subscribe(fn func(Transition)) func() {
	t.listenerMu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.listenerMu.Unlock()

	return func() {
		t.listenerMu.Lock()
		delete(t.listeners, id)
		t.listenerMu.Unlock()
	}
}

func (t *Tracker) transition(from, to State, next Status) error {
	t.mu.Lock()
	cur := t.status.State
	if cur != from || !canTransition(cur, to) {
		t.mu.Unlock()
		return &ErrIllegalTransition{From: cur, To: to}
	}
	if next.TxID == "" {
		next.TxID = t.status.TxID
	}
	tr := t.move(to, next)
	t.mu.Unlock()

	t.publish(tr)
	return nil
}

// move must be called with mu held.
func (t *Tracker) move(to State, next Status) Transition {
	from := t.status.State
	next.State = to
	next.Since = t.now()
	t.status = next
	t.logger.Debug("lifecycle transition", "from", string(from), "to", string(to), "tx", next.TxID)
	return Transition{From: from, To: to, Status: next}
}

func (t *Tracker) publish(trs ...Transition) {
	t.listenerMu.RLock()
	fns := make([]func(Transition), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.listenerMu.RUnlock()

	for _, tr := range trs {
		for _, fn := range fns {
			fn(tr)
		}
	}
}
