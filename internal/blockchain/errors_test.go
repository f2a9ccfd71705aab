package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/gikenye/givecaesar/internal/errs"
)

func TestBlockchainErrorError(t *testing.T) {
	err := NewBlockchainError(ErrInvalidAddress, "invalid address", nil)
	if err.Error() != "invalid address" {
		t.Errorf("Expected error message 'invalid address', got '%s'", err.Error())
	}

	cause := errors.New("underlying error")
	err = NewBlockchainError(ErrNetworkConnection, "network failed", cause)
	if err.Error() != "network failed: underlying error" {
		t.Errorf("Expected message with cause, got '%s'", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
}

func TestNewInsufficientFundsError(t *testing.T) {
	required := big.NewInt(1000)
	available := big.NewInt(500)

	err := NewInsufficientFundsError(required, available, "ETH")

	if err.Type != ErrInsufficientFunds {
		t.Errorf("Expected type %s, got %s", ErrInsufficientFunds, err.Type)
	}
	for _, want := range []string{"ETH", required.String(), available.String()} {
		if !strings.Contains(err.Message, want) {
			t.Errorf("Expected message to contain '%s', got '%s'", want, err.Message)
		}
	}
}

func TestNewTimeoutError(t *testing.T) {
	timeout := 30 * time.Second
	err := NewTimeoutError("receipt wait", timeout)

	if err.Type != ErrTimeout {
		t.Errorf("Expected type %s, got %s", ErrTimeout, err.Type)
	}
	if !strings.Contains(err.Message, timeout.String()) {
		t.Errorf("Expected message to contain timeout '%s', got '%s'", timeout.String(), err.Message)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		input    error
		expected ErrorType
	}{
		{nil, ErrorType("")},
		{errors.New("timeout occurred"), ErrTimeout},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), ErrTimeout},
		{errors.New("connection refused"), ErrNetworkConnection},
		{errors.New("no such host"), ErrNetworkConnection},
		{errors.New("execution reverted: Disperse: bad value"), ErrReverted},
		{errors.New("bad address"), ErrInvalidAddress},
		{errors.New("insufficient funds for gas * price + value"), ErrInsufficientFunds},
		{errors.New("rate limit exceeded"), ErrRateLimited},
		{errors.New("too many requests"), ErrRateLimited},
		{errors.New("nonce too low"), ErrRejected},
		{errors.New("replacement transaction underpriced"), ErrRejected},
		{errors.New("bad tx: insufficient energy"), ErrInsufficientFunds},
		{errors.New("unknown error"), ErrNetworkConnection},
	}

	for _, test := range tests {
		result := ClassifyError(test.input)

		if test.input == nil {
			if result != nil {
				t.Errorf("Expected nil for nil input, got %v", result)
			}
			continue
		}

		if result.Type != test.expected {
			t.Errorf("For error '%s', expected type %s, got %s", test.input.Error(), test.expected, result.Type)
		}
	}
}

func TestClassifyKeepsWrappedBlockchainError(t *testing.T) {
	inner := NewRevertedError("Disperse: bad value", nil)
	result := ClassifyError(fmt.Errorf("wait: %w", inner))

	if result != inner {
		t.Errorf("Expected the wrapped error back, got %v", result)
	}
}

func TestClassifyNetError(t *testing.T) {
	result := ClassifyError(&mockNetError{timeout: true})
	if result.Type != ErrTimeout {
		t.Errorf("Expected timeout error for net.Error with timeout, got %s", result.Type)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrNetworkConnection, ErrNodeUnavailable, ErrTimeout, ErrRateLimited}
	final := []ErrorType{ErrInvalidAddress, ErrInsufficientFunds, ErrTransactionFailed, ErrRejected, ErrReverted, ErrSignerUnavailable}

	for _, errType := range retryable {
		if !(&BlockchainError{Type: errType}).IsRetryable() {
			t.Errorf("Expected error type %s to be retryable", errType)
		}
	}
	for _, errType := range final {
		if (&BlockchainError{Type: errType}).IsRetryable() {
			t.Errorf("Expected error type %s to not be retryable", errType)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err      *BlockchainError
		expected string
	}{
		{&BlockchainError{Type: ErrNetworkConnection}, "Network connection failed"},
		{&BlockchainError{Type: ErrInsufficientFunds}, "Insufficient funds"},
		{&BlockchainError{Type: ErrSignerUnavailable}, "Wallet is locked"},
		{&BlockchainError{Type: ErrReverted}, "Transaction reverted."},
		{NewRevertedError("Ownable: caller is not the owner", nil), "Transaction reverted: Ownable: caller is not the owner"},
		{&BlockchainError{Type: ErrorType("unknown")}, "An unexpected error occurred"},
	}

	for _, test := range tests {
		message := test.err.UserMessage()
		if !strings.Contains(message, test.expected) {
			t.Errorf("For error type %s, expected message to contain '%s', got '%s'", test.err.Type, test.expected, message)
		}
	}
}

func TestSignerError(t *testing.T) {
	tests := []struct {
		input    error
		expected errs.Kind
	}{
		{errors.New("user denied"), errs.KindSigner},
		{NewBlockchainError(ErrSignerUnavailable, "signer unavailable", nil), errs.KindSigner},
		{errors.New("insufficient funds for gas"), errs.KindChain},
		{errors.New("execution reverted"), errs.KindChain},
		{errs.ErrNotConnected, errs.KindPrecondition},
		{NewBlockchainError(ErrSignerUnavailable, "signer unavailable", errs.ErrNotConnected), errs.KindSigner},
		{fmt.Errorf("estimate: %w", NewBlockchainError(ErrSignerUnavailable, "signer unavailable", errs.ErrNotConnected)), errs.KindSigner},
		{errors.New("connection refused"), errs.KindChain},
		{errors.New("nonce too low"), errs.KindSigner},
	}

	for _, test := range tests {
		if kind := errs.KindOf(SignerError(test.input)); kind != test.expected {
			t.Errorf("For error '%v', expected kind %s, got %s", test.input, test.expected, kind)
		}
	}

	locked := SignerError(NewBlockchainError(ErrSignerUnavailable, "signer unavailable", errs.ErrNotConnected))
	if msg := errs.UserMessage(locked); msg != "Transaction was not signed: Wallet is locked." {
		t.Errorf("Unexpected message for a locked wallet: %s", msg)
	}

	if SignerError(nil) != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestChainErrorKeepsReason(t *testing.T) {
	err := ChainError(NewRevertedError("Disperse: bad value", nil))

	var e *errs.Error
	if !errors.As(err, &e) {
		t.Fatalf("Expected *errs.Error, got %T", err)
	}
	if e.Kind != errs.KindChain {
		t.Errorf("Expected chain kind, got %s", e.Kind)
	}
	if e.Reason != "Disperse: bad value" {
		t.Errorf("Expected reason verbatim, got '%s'", e.Reason)
	}
}

type mockNetError struct {
	timeout bool
}

func (e *mockNetError) Error() string {
	return "mock network error"
}

func (e *mockNetError) Timeout() bool {
	return e.timeout
}

func (e *mockNetError) Temporary() bool {
	return false
}

func TestClassifyRevertDecodesReason(t *testing.T) {
	err := &rpcDataError{msg: "execution reverted", data: revertData(t, "Disperse: bad value")}

	be := ClassifyError(err)
	if be.Type != ErrReverted {
		t.Fatalf("Expected reverted, got %s", be.Type)
	}
	if be.Reason != "Disperse: bad value" {
		t.Errorf("Expected decoded reason, got '%s'", be.Reason)
	}

	var e *errs.Error
	if !errors.As(ChainError(err), &e) || e.Reason != "Disperse: bad value" {
		t.Errorf("Expected chain error to keep the reason, got %v", e)
	}
}
