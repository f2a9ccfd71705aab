package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// evmBackend is the subset of ethclient.Client the EVM client uses.
type evmBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type EVMClient struct {
	eth     evmBackend
	closer  func()
	config  Config
	keys    KeySource
	chainID *big.Int
	logger  *slog.Logger
	status  statusHolder
}

type evmSignedCall struct {
	tx   *types.Transaction
	call Call
}

func (s *evmSignedCall) ID() string { return s.tx.Hash().Hex() }
func (s *evmSignedCall) Call() Call { return s.call }

func NewEVMClient(ctx context.Context, config Config, keys KeySource, opts ...Option) (*EVMClient, error) {
	if config.NodeURL == "" {
		return nil, fmt.Errorf("no RPC URL configured for network %s", config.Name)
	}
	applyDefaults(&config)

	dialCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	eth, err := ethclient.DialContext(dialCtx, config.NodeURL)
	if err != nil {
		return nil, NewNetworkError("failed to dial RPC endpoint", err)
	}

	c, err := newEVMClient(dialCtx, eth, config, keys, opts...)
	if err != nil {
		eth.Close()
		return nil, err
	}
	c.closer = eth.Close
	return c, nil
}

func newEVMClient(ctx context.Context, eth evmBackend, config Config, keys KeySource, opts ...Option) (*EVMClient, error) {
	applyDefaults(&config)
	o := buildOptions(opts)

	c := &EVMClient{
		eth:    eth,
		config: config,
		keys:   keys,
		logger: o.logger,
	}
	c.status.status = NetworkStatus{NodeURL: config.NodeURL, LastChecked: time.Now()}

	chainID, err := withRetry(ctx, config, func() (*big.Int, error) {
		return eth.ChainID(ctx)
	})
	if err != nil {
		c.status.update(false, 0, "")
		return nil, NewNodeUnavailableError(config.NodeURL, err)
	}
	if config.ChainID != nil && config.ChainID.Cmp(chainID) != 0 {
		return nil, fmt.Errorf("node reports chain id %s, expected %s", chainID, config.ChainID)
	}
	c.chainID = chainID

	height, err := eth.BlockNumber(ctx)
	if err != nil {
		c.status.update(false, 0, chainID.String())
		return nil, NewNetworkError("failed to read block height", err)
	}
	c.status.update(true, height, chainID.String())
	return c, nil
}

func (c *EVMClient) GetStatus() NetworkStatus {
	return c.status.get()
}

func (c *EVMClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *EVMClient) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	return withRetry(ctx, c.config, func() (*big.Int, error) {
		return c.eth.BalanceAt(ctx, address, nil)
	})
}

// Sign builds a dynamic-fee transaction for call and signs it with the
// connected key. Gas is estimated against the pending state.
func (c *EVMClient) Sign(ctx context.Context, call Call) (SignedCall, error) {
	key, err := c.keys.PrivateKey()
	if err != nil {
		return nil, NewBlockchainError(ErrSignerUnavailable, "signer unavailable", err)
	}
	defer wipeKey(key)
	from := crypto.PubkeyToAddress(key.PublicKey)
	if call.From == (common.Address{}) {
		call.From = from
	} else if call.From != from {
		return nil, NewBlockchainError(ErrSignerUnavailable,
			fmt.Sprintf("call is from %s but the unlocked account is %s", call.From.Hex(), from.Hex()), nil)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, NewNetworkError("failed to get nonce", err)
	}

	to := call.To
	gas, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: call.Value,
		Data:  call.Data,
	})
	if err != nil {
		return nil, ClassifyError(err)
	}
	gas = gas * 6 / 5

	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, NewNetworkError("failed to get latest header", err)
	}

	var unsigned *types.Transaction
	if head.BaseFee != nil {
		tip, err := c.eth.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, NewNetworkError("failed to get gas tip", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		unsigned = types.NewTx(&types.DynamicFeeTx{
			ChainID:   c.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     call.Value,
			Data:      call.Data,
		})
	} else {
		price, err := c.eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, NewNetworkError("failed to get gas price", err)
		}
		unsigned = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &to,
			Value:    call.Value,
			Data:     call.Data,
		})
	}

	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return nil, NewBlockchainError(ErrTransactionFailed, "failed to sign transaction", err)
	}

	c.logger.Debug("signed transaction", "tx", signed.Hash().Hex(), "nonce", nonce, "gas", gas)
	return &evmSignedCall{tx: signed, call: call}, nil
}

func (c *EVMClient) Broadcast(ctx context.Context, signed SignedCall) (Handle, error) {
	s, ok := signed.(*evmSignedCall)
	if !ok {
		return Handle{}, fmt.Errorf("call %s was not signed by this client", signed.ID())
	}

	if err := c.eth.SendTransaction(ctx, s.tx); err != nil {
		return Handle{}, ClassifyError(err)
	}

	return Handle{
		TxID:      s.tx.Hash().Hex(),
		Network:   c.config.Name,
		Submitted: time.Now(),
	}, nil
}

// WaitReceipt polls until the transaction is mined or ctx ends. A reverted
// receipt is returned with Reverted set, not as an error.
func (c *EVMClient) WaitReceipt(ctx context.Context, h Handle) (Receipt, error) {
	hash := common.HexToHash(h.TxID)
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			return c.toReceipt(ctx, h, receipt), nil
		case err == nil, errors.Is(err, ethereum.NotFound):
		default:
			if be := ClassifyError(err); !be.IsRetryable() {
				return Receipt{}, be
			}
			c.logger.Debug("receipt poll failed", "tx", h.TxID, "error", err)
		}

		select {
		case <-ctx.Done():
			return Receipt{}, NewTimeoutError("waiting for transaction confirmation", time.Since(h.Submitted).Round(time.Second))
		case <-ticker.C:
		}
	}
}

func (c *EVMClient) toReceipt(ctx context.Context, h Handle, r *types.Receipt) Receipt {
	out := Receipt{
		TxID:     h.TxID,
		Reverted: r.Status == types.ReceiptStatusFailed,
		GasUsed:  r.GasUsed,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	if height := out.BlockNumber; height > 0 {
		c.status.update(true, height, "")
	}
	if out.Reverted {
		out.RevertReason = c.replayReason(ctx, r)
	}
	return out
}

// replayReason re-executes a reverted transaction against its parent block
// to recover the revert reason. Best effort: empty when unavailable.
func (c *EVMClient) replayReason(ctx context.Context, r *types.Receipt) string {
	tx, _, err := c.eth.TransactionByHash(ctx, r.TxHash)
	if err != nil {
		return ""
	}
	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return ""
	}

	var at *big.Int
	if r.BlockNumber != nil && r.BlockNumber.Sign() > 0 {
		at = new(big.Int).Sub(r.BlockNumber, big.NewInt(1))
	}
	_, err = c.eth.CallContract(ctx, ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}, at)
	return revertReason(err)
}

func (c *EVMClient) Close() error {
	if c.closer != nil {
		c.closer()
	}
	return nil
}

// revertReason extracts an Error(string) reason from an RPC error carrying
// revert data.
func revertReason(err error) string {
	if err == nil {
		return ""
	}
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}

	var data []byte
	switch v := dataErr.ErrorData().(type) {
	case string:
		decoded, decErr := hexutil.Decode(v)
		if decErr != nil {
			return ""
		}
		data = decoded
	case []byte:
		data = v
	}
	if len(data) == 0 {
		return ""
	}

	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return ""
	}
	return reason
}
