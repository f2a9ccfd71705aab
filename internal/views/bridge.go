package views

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gikenye/givecaesar/internal/batch"
	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/recipients"
)

type ListChangedMsg struct {
	Event recipients.Event
}

type LifecycleMsg struct {
	Transition lifecycle.Transition
}

type ConnectPromptMsg struct{}

type SessionChangedMsg struct {
	Connected bool
}

type NoticeMsg struct {
	Notice batch.Notice
}

// ApprovalRequestMsg asks the user to approve a call. Exactly one answer is
// delivered through Reply.
type ApprovalRequestMsg struct {
	Call  blockchain.Call
	reply chan bool
}

func (m ApprovalRequestMsg) Reply(ok bool) {
	select {
	case m.reply <- ok:
	default:
	}
}

// BridgeMsg wraps a message posted from outside the program loop.
type BridgeMsg struct {
	Msg tea.Msg
}

// Bridge carries core events into the bubbletea loop. Post never blocks, so
// it is safe to call from inside Update as well as from background
// goroutines.
type Bridge struct {
	mu     sync.Mutex
	queue  []tea.Msg
	ready  chan struct{}
	done   chan struct{}
	closed sync.Once
}

func NewBridge() *Bridge {
	return &Bridge{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (b *Bridge) Post(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// Next waits for the next posted message. Keep exactly one Next outstanding.
func (b *Bridge) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			b.mu.Lock()
			if len(b.queue) > 0 {
				msg := b.queue[0]
				b.queue = b.queue[1:]
				b.mu.Unlock()
				return BridgeMsg{Msg: msg}
			}
			b.mu.Unlock()

			select {
			case <-b.ready:
			case <-b.done:
				return nil
			}
		}
	}
}

func (b *Bridge) Close() {
	b.closed.Do(func() { close(b.done) })
}

// Approve blocks until the user answers the approval prompt. It has the
// shape of wallet.ApproveFunc.
func (b *Bridge) Approve(ctx context.Context, call blockchain.Call) (bool, error) {
	reply := make(chan bool, 1)
	b.Post(ApprovalRequestMsg{Call: call, reply: reply})

	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-b.done:
		return false, nil
	}
}

// Attach subscribes the bridge to list and tracker events. The returned
// function detaches it.
func (b *Bridge) Attach(list *recipients.List, tracker *lifecycle.Tracker) func() {
	stopList := list.Subscribe(func(ev recipients.Event) {
		b.Post(ListChangedMsg{Event: ev})
	})
	stopTracker := tracker.Subscribe(func(tr lifecycle.Transition) {
		b.Post(LifecycleMsg{Transition: tr})
	})
	return func() {
		stopList()
		stopTracker()
	}
}
