package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/darrenvechain/thorgo/crypto/tx"
	"github.com/darrenvechain/thorgo/thorest"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultThorMainnetURL = "https://mainnet.veblocks.net"
	DefaultThorTestnetURL = "https://testnet.veblocks.net"

	thorBaseGas         = 50000
	thorGasPerRecipient = 35000
	thorExpiration      = 32
)

// ThorClient submits batch calls to a VeChainThor node as single-clause
// transactions.
type ThorClient struct {
	thorClient *thorest.Client
	config     Config
	keys       KeySource
	logger     *slog.Logger
	status     statusHolder
}

type thorSignedCall struct {
	tx   *tx.Transaction
	call Call
}

func (s *thorSignedCall) ID() string { return s.tx.ID().String() }
func (s *thorSignedCall) Call() Call { return s.call }

func NewThorClient(config Config, keys KeySource, opts ...Option) (*ThorClient, error) {
	if config.NodeURL == "" {
		switch config.Name {
		case "vechain", "mainnet":
			config.NodeURL = DefaultThorMainnetURL
		case "vechain-testnet", "testnet":
			config.NodeURL = DefaultThorTestnetURL
		default:
			return nil, fmt.Errorf("no node URL configured for network %s", config.Name)
		}
	}
	applyDefaults(&config)
	o := buildOptions(opts)

	c := &ThorClient{
		thorClient: thorest.NewClientFromURL(config.NodeURL),
		config:     config,
		keys:       keys,
		logger:     o.logger,
	}
	c.status.status = NetworkStatus{NodeURL: config.NodeURL, LastChecked: time.Now()}

	if err := c.checkConnection(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *ThorClient) checkConnection() error {
	best, err := c.thorClient.BestBlock()
	if err != nil {
		c.status.update(false, 0, "")
		return NewNodeUnavailableError(c.config.NodeURL, err)
	}

	c.status.update(true, uint64(best.Number), best.ID.String())
	return nil
}

func (c *ThorClient) GetStatus() NetworkStatus {
	return c.status.get()
}

func (c *ThorClient) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	return withRetry(ctx, c.config, func() (*big.Int, error) {
		account, err := c.thorClient.Account(address)
		if err != nil {
			return nil, NewNetworkError("failed to get balance", err)
		}
		return account.Balance.ToInt(), nil
	})
}

// EstimateGas sizes a batch clause by recipient count; Thor has no pending
// state estimate available through the REST client.
func (c *ThorClient) EstimateGas(call Call) uint64 {
	n := call.Recipients
	if n < 1 {
		n = 1
	}
	return uint64(thorBaseGas + thorGasPerRecipient*n)
}

func (c *ThorClient) Sign(ctx context.Context, call Call) (SignedCall, error) {
	key, err := c.keys.PrivateKey()
	if err != nil {
		return nil, NewBlockchainError(ErrSignerUnavailable, "signer unavailable", err)
	}
	defer wipeKey(key)

	// the REST client takes no context; check it between round trips
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chainTag, err := c.thorClient.ChainTag()
	if err != nil {
		return nil, NewNetworkError("failed to get chain tag", err)
	}

	bestBlock, err := c.thorClient.BestBlock()
	if err != nil {
		return nil, NewNetworkError("failed to get best block", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blockRef := tx.NewBlockRef(uint32(bestBlock.Number))

	to := call.To
	clause := tx.NewClause(&to).WithValue(call.Value).WithData(call.Data)

	thorTx := tx.NewBuilder(tx.TypeLegacy).
		ChainTag(chainTag).
		BlockRef(blockRef).
		Expiration(thorExpiration).
		Gas(c.EstimateGas(call)).
		GasPriceCoef(0).
		Clause(clause).
		Build()

	signedTx, err := tx.Sign(thorTx, key)
	if err != nil {
		return nil, NewBlockchainError(ErrTransactionFailed, "failed to sign transaction", err)
	}

	c.logger.Debug("signed transaction", "tx", signedTx.ID().String(), "block_ref", bestBlock.Number)
	return &thorSignedCall{tx: signedTx, call: call}, nil
}

func (c *ThorClient) Broadcast(ctx context.Context, signed SignedCall) (Handle, error) {
	s, ok := signed.(*thorSignedCall)
	if !ok {
		return Handle{}, fmt.Errorf("call %s was not signed by this client", signed.ID())
	}

	response, err := c.thorClient.SendTransaction(s.tx)
	if err != nil {
		return Handle{}, ClassifyError(err)
	}

	return Handle{
		TxID:      response.ID.String(),
		Network:   c.config.Name,
		Submitted: time.Now(),
	}, nil
}

// WaitReceipt polls the node until a receipt appears. Lookup errors are
// treated as not yet mined, as the node reports a pending transaction that
// way too.
func (c *ThorClient) WaitReceipt(ctx context.Context, h Handle) (Receipt, error) {
	txHash := common.HexToHash(h.TxID)
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Receipt{}, NewTimeoutError("waiting for transaction confirmation", time.Since(h.Submitted).Round(time.Second))
		case <-ticker.C:
			receipt, err := c.thorClient.TransactionReceipt(txHash)
			if err != nil || receipt == nil {
				if err != nil {
					c.logger.Debug("receipt not available", "tx", h.TxID, "error", err)
				}
				continue
			}

			out := thorReceipt(h.TxID, receipt)
			if out.BlockNumber > 0 {
				c.status.update(true, out.BlockNumber, "")
			}
			return out, nil
		}
	}
}

func thorReceipt(txID string, r *thorest.TransactionReceipt) Receipt {
	out := Receipt{TxID: txID, Reverted: r.Reverted}
	if r.GasUsed > 0 {
		out.GasUsed = uint64(r.GasUsed)
	}
	if r.Meta != nil && r.Meta.BlockNumber > 0 {
		out.BlockNumber = uint64(r.Meta.BlockNumber)
	}
	return out
}

func (c *ThorClient) Close() error {
	return nil
}
