package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/gikenye/givecaesar/internal/errs"
)

func NewBlockchainError(errType ErrorType, message string, cause error) *BlockchainError {
	return &BlockchainError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

func NewNetworkError(message string, cause error) *BlockchainError {
	return NewBlockchainError(ErrNetworkConnection, message, cause)
}

func NewInsufficientFundsError(required, available *big.Int, symbol string) *BlockchainError {
	return NewBlockchainError(ErrInsufficientFunds,
		fmt.Sprintf("insufficient %s: required %s, available %s", symbol, required.String(), available.String()), nil)
}

func NewTimeoutError(operation string, timeout time.Duration) *BlockchainError {
	return NewBlockchainError(ErrTimeout,
		fmt.Sprintf("operation %s timed out after %v", operation, timeout), nil)
}

func NewNodeUnavailableError(nodeURL string, cause error) *BlockchainError {
	return NewBlockchainError(ErrNodeUnavailable,
		fmt.Sprintf("node unavailable: %s", nodeURL), cause)
}

func NewRateLimitedError(retryAfter time.Duration) *BlockchainError {
	return NewBlockchainError(ErrRateLimited,
		fmt.Sprintf("rate limited, retry after %v", retryAfter), nil)
}

// NewRevertedError records reverted execution; reason is the decoded revert
// string, kept verbatim and possibly empty.
func NewRevertedError(reason string, cause error) *BlockchainError {
	e := NewBlockchainError(ErrReverted, "execution reverted", cause)
	e.Reason = reason
	return e
}

func ClassifyError(err error) *BlockchainError {
	if err == nil {
		return nil
	}
	if be := classify(err); be != nil {
		return be
	}
	return NewNetworkError("unknown network error", err)
}

// classify recognizes node and transport failures. It returns nil for errors
// it cannot place.
func classify(err error) *BlockchainError {
	var blockchainErr *BlockchainError
	if errors.As(err, &blockchainErr) {
		return blockchainErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewBlockchainError(ErrTimeout, "network request timed out", err)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		return NewBlockchainError(ErrTimeout, "network request timed out", err)
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host"):
		return NewNetworkError("connection failed", err)
	case strings.Contains(errStr, "execution reverted"):
		return NewRevertedError(revertReason(err), err)
	case strings.Contains(errStr, "invalid address") || strings.Contains(errStr, "bad address"):
		return NewBlockchainError(ErrInvalidAddress, "invalid address format", err)
	case strings.Contains(errStr, "insufficient") || strings.Contains(errStr, "not enough"):
		return NewBlockchainError(ErrInsufficientFunds, "insufficient funds", err)
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests"):
		return NewRateLimitedError(time.Minute)
	case strings.Contains(errStr, "nonce too low") || strings.Contains(errStr, "already known") ||
		strings.Contains(errStr, "underpriced") || strings.Contains(errStr, "intrinsic gas") ||
		strings.Contains(errStr, "bad tx"):
		return NewBlockchainError(ErrRejected, "transaction rejected by node", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewBlockchainError(ErrTimeout, "network operation timed out", err)
	}
	return nil
}

func (e *BlockchainError) IsRetryable() bool {
	switch e.Type {
	case ErrNetworkConnection, ErrNodeUnavailable, ErrTimeout, ErrRateLimited:
		return true
	default:
		return false
	}
}

func (e *BlockchainError) UserMessage() string {
	switch e.Type {
	case ErrNetworkConnection:
		return "Network connection failed. Please check your internet connection."
	case ErrInvalidAddress:
		return "Invalid address format."
	case ErrInsufficientFunds:
		return "Insufficient funds for this transaction."
	case ErrTransactionFailed:
		return "Transaction failed to process."
	case ErrNodeUnavailable:
		return "The network is temporarily unavailable."
	case ErrRateLimited:
		return "Too many requests. Please wait a moment and try again."
	case ErrTimeout:
		return "Request timed out. Please try again."
	case ErrSignerUnavailable:
		return "Wallet is locked."
	case ErrRejected:
		return "The network rejected the transaction."
	case ErrReverted:
		if e.Reason != "" {
			return "Transaction reverted: " + e.Reason
		}
		return "Transaction reverted."
	default:
		return "An unexpected error occurred."
	}
}

// SignerError maps a failure while producing a signature into the shared
// taxonomy. A key source that stops answering is a signer fault even when it
// reports a precondition; node and revert errors met while preparing the
// transaction are chain failures; anything unrecognized is a signer fault.
func SignerError(err error) error {
	if err == nil {
		return nil
	}
	var be *BlockchainError
	if errors.As(err, &be) && be.Type == ErrSignerUnavailable {
		return errs.Signer(be.UserMessage(), err)
	}
	if errs.KindOf(err) != "" {
		return err
	}
	if be = classify(err); be == nil {
		return errs.Signer("signing failed", err)
	}
	switch be.Type {
	case ErrReverted:
		e := errs.Chain("execution reverted during gas estimation", err)
		e.Reason = be.Reason
		return e
	case ErrInsufficientFunds, ErrNetworkConnection, ErrNodeUnavailable, ErrTimeout, ErrRateLimited:
		return errs.Chain(be.UserMessage(), err)
	default:
		return errs.Signer("signing failed", err)
	}
}

// ChainError maps a broadcast or settlement failure into the shared taxonomy,
// keeping any revert reason verbatim.
func ChainError(err error) error {
	if err == nil {
		return nil
	}
	if errs.KindOf(err) != "" {
		return err
	}
	be := ClassifyError(err)
	if be.Type == ErrReverted {
		e := errs.Chain(be.Message, err)
		e.Reason = be.Reason
		return e
	}
	return errs.Chain(be.UserMessage(), err)
}
