package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/recipients"
)

func TestBridgeDeliversInOrder(t *testing.T) {
	b := NewBridge()
	defer b.Close()

	b.Post(ConnectPromptMsg{})
	b.Post(SessionChangedMsg{Connected: true})

	first := b.Next()()
	second := b.Next()()

	assert.Equal(t, BridgeMsg{Msg: ConnectPromptMsg{}}, first)
	assert.Equal(t, BridgeMsg{Msg: SessionChangedMsg{Connected: true}}, second)
}

func TestBridgeNextReturnsNilAfterClose(t *testing.T) {
	b := NewBridge()
	done := make(chan any, 1)
	go func() { done <- b.Next()() }()

	b.Close()
	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestBridgeApprove(t *testing.T) {
	b := NewBridge()
	defer b.Close()

	answer := make(chan bool, 1)
	go func() {
		ok, err := b.Approve(context.Background(), blockchain.Call{Recipients: 2})
		assert.NoError(t, err)
		answer <- ok
	}()

	msg := b.Next()().(BridgeMsg)
	req, ok := msg.Msg.(ApprovalRequestMsg)
	require.True(t, ok)
	assert.Equal(t, 2, req.Call.Recipients)

	req.Reply(true)
	req.Reply(false)
	assert.True(t, <-answer)
}

func TestBridgeAttach(t *testing.T) {
	b := NewBridge()
	defer b.Close()

	list := recipients.NewList(recipients.NewResolver(nil), recipients.Ether)
	tracker := lifecycle.NewTracker()
	detach := b.Attach(list, tracker)

	id := list.Add()
	require.NoError(t, tracker.Begin())

	added := b.Next()().(BridgeMsg).Msg.(ListChangedMsg)
	assert.Equal(t, recipients.EventAdded, added.Event.Type)
	assert.Equal(t, id, added.Event.Entry.ID)

	moved := b.Next()().(BridgeMsg).Msg.(LifecycleMsg)
	assert.Equal(t, lifecycle.AwaitingSignature, moved.Transition.To)

	detach()
	list.Add()
	b.Post(ConnectPromptMsg{})
	assert.Equal(t, BridgeMsg{Msg: ConnectPromptMsg{}}, b.Next()())
}
