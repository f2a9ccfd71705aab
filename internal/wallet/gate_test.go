package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/errs"
)

type stubConnection struct {
	connected bool
	address   common.Address
	prompts   int
}

func (c *stubConnection) IsConnected() bool { return c.connected }
func (c *stubConnection) CurrentAddress() (common.Address, bool) {
	return c.address, c.connected
}
func (c *stubConnection) PromptConnect() { c.prompts++ }

func TestGateConnected(t *testing.T) {
	conn := &stubConnection{connected: true, address: common.HexToAddress("0x1234567890123456789012345678901234567890")}
	gate := NewGate(conn, nil)

	addr, err := gate.EnsureConnected()
	require.NoError(t, err)
	assert.Equal(t, conn.address, addr)
	assert.Zero(t, conn.prompts)
}

func TestGateNotConnectedPrompts(t *testing.T) {
	conn := &stubConnection{}
	gate := NewGate(conn, nil)

	_, err := gate.EnsureConnected()
	assert.ErrorIs(t, err, errs.ErrNotConnected)
	assert.Equal(t, errs.KindPrecondition, errs.KindOf(err))
	assert.Equal(t, "Please connect your wallet first", errs.UserMessage(err))
	assert.Equal(t, 1, conn.prompts)
}

func TestGateNilConnection(t *testing.T) {
	_, err := NewGate(nil, nil).EnsureConnected()
	assert.ErrorIs(t, err, errs.ErrNotConnected)
}

type stubSigner struct {
	calls int
}

type stubSigned struct{ call blockchain.Call }

func (s stubSigned) ID() string            { return "0xsigned" }
func (s stubSigned) Call() blockchain.Call { return s.call }

func (s *stubSigner) Sign(ctx context.Context, call blockchain.Call) (blockchain.SignedCall, error) {
	s.calls++
	return stubSigned{call: call}, nil
}

func TestConfirmingSigner(t *testing.T) {
	inner := &stubSigner{}

	rejecting := NewConfirmingSigner(inner, func(context.Context, blockchain.Call) (bool, error) { return false, nil })
	_, err := rejecting.Sign(context.Background(), blockchain.Call{})
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.Equal(t, errs.KindSigner, errs.KindOf(err))
	assert.Zero(t, inner.calls)

	failing := NewConfirmingSigner(inner, func(context.Context, blockchain.Call) (bool, error) {
		return false, errors.New("prompt closed")
	})
	_, err = failing.Sign(context.Background(), blockchain.Call{})
	assert.Equal(t, errs.KindSigner, errs.KindOf(err))

	approving := NewConfirmingSigner(inner, func(context.Context, blockchain.Call) (bool, error) { return true, nil })
	signed, err := approving.Sign(context.Background(), blockchain.Call{Recipients: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, signed.Call().Recipients)
	assert.Equal(t, 1, inner.calls)
}
