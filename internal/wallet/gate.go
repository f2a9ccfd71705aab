// Package wallet holds the local wallet session and the connectivity gate
// that guards submissions.
package wallet

import (
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/errs"
)

// Connection is the wallet connection state the gate checks.
type Connection interface {
	IsConnected() bool
	CurrentAddress() (common.Address, bool)
	PromptConnect()
}

// Gate refuses to let a submission start without a connected wallet and asks
// the wallet to connect instead.
type Gate struct {
	conn   Connection
	logger *slog.Logger
}

func NewGate(conn Connection, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gate{conn: conn, logger: logger}
}

// EnsureConnected returns the connected address, or ErrNotConnected after
// triggering the connect prompt.
func (g *Gate) EnsureConnected() (common.Address, error) {
	if g.conn != nil && g.conn.IsConnected() {
		if addr, ok := g.conn.CurrentAddress(); ok {
			return addr, nil
		}
	}

	g.logger.Info("submission blocked: wallet not connected")
	if g.conn != nil {
		g.conn.PromptConnect()
	}
	return common.Address{}, errs.ErrNotConnected
}
