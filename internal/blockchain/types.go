package blockchain

import (
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Kind selects the backend implementation for a network.
type Kind string

const (
	KindEVM  Kind = "evm"
	KindThor Kind = "thor"
)

type Config struct {
	Kind    Kind
	Name    string
	NodeURL string
	// ChainID is checked against the node for EVM networks when set.
	ChainID      *big.Int
	Timeout      time.Duration
	RetryCount   int
	RetryDelay   time.Duration
	PollInterval time.Duration
}

// Call is an unsigned contract call with value attached.
type Call struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
	// Recipients sizes the gas budget on backends that cannot estimate it.
	Recipients int
}

// SignedCall is a call the signer has produced a signature for. Only the
// backend that signed it can broadcast it.
type SignedCall interface {
	ID() string
	Call() Call
}

// Handle identifies a transaction the network accepted.
type Handle struct {
	TxID      string
	Network   string
	Submitted time.Time
}

type Receipt struct {
	TxID         string
	Reverted     bool
	RevertReason string
	BlockNumber  uint64
	GasUsed      uint64
}

// KeySource hands out a copy of the signing key for the connected account.
// The backend owns the copy and wipes it after signing.
type KeySource interface {
	PrivateKey() (*ecdsa.PrivateKey, error)
}

func wipeKey(key *ecdsa.PrivateKey) {
	if key != nil && key.D != nil {
		key.D.SetInt64(0)
	}
}

type ErrorType string

const (
	ErrNetworkConnection ErrorType = "network_connection"
	ErrInvalidAddress    ErrorType = "invalid_address"
	ErrInsufficientFunds ErrorType = "insufficient_funds"
	ErrTransactionFailed ErrorType = "transaction_failed"
	ErrNodeUnavailable   ErrorType = "node_unavailable"
	ErrRateLimited       ErrorType = "rate_limited"
	ErrTimeout           ErrorType = "timeout"
	ErrSignerUnavailable ErrorType = "signer_unavailable"
	ErrRejected          ErrorType = "rejected"
	ErrReverted          ErrorType = "reverted"
)

type BlockchainError struct {
	Type    ErrorType
	Message string
	Code    int
	// Reason is the decoded revert reason, when the node returned one.
	Reason string
	Cause  error
}

func (e *BlockchainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *BlockchainError) Unwrap() error {
	return e.Cause
}

type NetworkStatus struct {
	Connected   bool
	NodeURL     string
	LastChecked time.Time
	BlockHeight uint64
	NetworkID   string
}
