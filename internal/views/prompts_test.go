package views

import (
	"errors"
	"math/big"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/recipients"
	"github.com/gikenye/givecaesar/internal/wallet"
)

func approvalRequest() (ApprovalRequestMsg, chan bool) {
	reply := make(chan bool, 1)
	return ApprovalRequestMsg{
		Call: blockchain.Call{
			From:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
			To:         common.HexToAddress("0x2222222222222222222222222222222222222222"),
			Value:      big.NewInt(1_500_000_000_000_000_000),
			Recipients: 2,
		},
		reply: reply,
	}, reply
}

func TestApprovalPromptApproves(t *testing.T) {
	m := NewApprovalPromptModel(recipients.Ether, "disperseEther")
	req, reply := approvalRequest()
	m.Show(req)
	require.True(t, m.IsVisible())

	view := m.View()
	assert.Contains(t, view, "disperseEther")
	assert.Contains(t, view, "2 addresses")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.False(t, m.IsVisible())
	assert.True(t, <-reply)
}

func TestApprovalPromptRejects(t *testing.T) {
	m := NewApprovalPromptModel(recipients.Ether, "disperseEther")
	req, reply := approvalRequest()
	m.Show(req)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.IsVisible())
	assert.False(t, <-reply)
}

func TestApprovalPromptReplacedRequestIsRejected(t *testing.T) {
	m := NewApprovalPromptModel(recipients.Ether, "disperseEther")
	first, firstReply := approvalRequest()
	second, _ := approvalRequest()

	m.Show(first)
	m.Show(second)

	assert.False(t, <-firstReply)
	assert.True(t, m.IsVisible())

	m.Cancel()
	assert.False(t, m.IsVisible())
}

type stubUnlocker struct {
	password string
	err      error
	calls    int
}

func (u *stubUnlocker) Unlock(password string) error {
	u.calls++
	if u.err != nil {
		return u.err
	}
	if password != u.password {
		return wallet.ErrBadPassword
	}
	return nil
}

func typePassword(m *PasswordPromptModel, password string) tea.Cmd {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(password)})
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestPasswordPromptUnlocks(t *testing.T) {
	unlocker := &stubUnlocker{password: "Correct-Horse-1"}
	m := NewPasswordPromptModel(unlocker)

	succeeded := false
	m.SetCallbacks(func() tea.Cmd { succeeded = true; return nil }, nil, nil)
	m.Show("Connect wallet", "")

	cmd := typePassword(m, "Correct-Horse-1")
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.True(t, succeeded)
	assert.False(t, m.IsVisible())
	assert.Equal(t, 1, unlocker.calls)
}

func TestPasswordPromptLimitsAttempts(t *testing.T) {
	unlocker := &stubUnlocker{password: "Correct-Horse-1"}
	m := NewPasswordPromptModel(unlocker)

	var failure error
	m.SetCallbacks(nil, nil, func(err error) tea.Cmd { failure = err; return nil })
	m.Show("Connect wallet", "")

	for i := 0; i < 3; i++ {
		cmd := typePassword(m, "wrong")
		require.NotNil(t, cmd)
		m.Update(cmd())
	}

	require.Error(t, failure)
	assert.Contains(t, m.View(), "Too many failed attempts")

	assert.Nil(t, typePassword(m, "Correct-Horse-1"))
	assert.Equal(t, 3, unlocker.calls)
}

func TestPasswordPromptOtherErrorsDoNotCount(t *testing.T) {
	unlocker := &stubUnlocker{err: errors.New("keystore unreadable")}
	m := NewPasswordPromptModel(unlocker)
	m.Show("Connect wallet", "")

	for i := 0; i < 4; i++ {
		cmd := typePassword(m, "anything")
		require.NotNil(t, cmd)
		m.Update(cmd())
	}

	assert.Equal(t, 4, unlocker.calls)
	assert.Contains(t, m.View(), "keystore unreadable")
}

func TestPasswordPromptEscCancels(t *testing.T) {
	m := NewPasswordPromptModel(&stubUnlocker{})
	cancelled := false
	m.SetCallbacks(nil, func() tea.Cmd { cancelled = true; return nil }, nil)
	m.Show("Connect wallet", "")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, cancelled)
	assert.False(t, m.IsVisible())
}
