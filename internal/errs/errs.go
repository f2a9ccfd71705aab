// Package errs holds the error taxonomy shared by the recipient model, the
// submission pipeline and the presentation layer.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the user is expected to recover from it.
type Kind string

const (
	// KindInput covers an empty or malformed address or amount on a single entry.
	KindInput Kind = "input"
	// KindResolution covers a failed name lookup.
	KindResolution Kind = "resolution"
	// KindPrecondition blocks a submission before anything is signed.
	KindPrecondition Kind = "precondition"
	// KindSigner covers user rejection or a signer fault.
	KindSigner Kind = "signer"
	// KindChain covers broadcast rejection and reverted execution.
	KindChain Kind = "chain"
)

type Error struct {
	Kind    Kind
	Message string
	// Reason carries the contract-provided revert reason, verbatim.
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = msg + " (" + e.Reason + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind and message, so the package
// sentinels work with errors.Is even after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// BlocksSubmission reports whether the error aborts the whole batch.
func (e *Error) BlocksSubmission() bool {
	switch e.Kind {
	case KindPrecondition, KindSigner, KindChain:
		return true
	default:
		return false
	}
}

func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInput:
		return e.Message
	case KindResolution:
		return "Could not resolve name: " + e.Message
	case KindPrecondition:
		return e.Message
	case KindSigner:
		return "Transaction was not signed: " + e.Message
	case KindChain:
		if e.Reason != "" {
			return "Transaction failed: " + e.Reason
		}
		return "Transaction failed: " + e.Message
	default:
		return "An unexpected error occurred."
	}
}

func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Input(format string, args ...any) *Error {
	return New(KindInput, fmt.Sprintf(format, args...), nil)
}

func Resolution(message string, cause error) *Error {
	return New(KindResolution, message, cause)
}

func Precondition(message string) *Error {
	return New(KindPrecondition, message, nil)
}

func Signer(message string, cause error) *Error {
	return New(KindSigner, message, cause)
}

func Chain(message string, cause error) *Error {
	return New(KindChain, message, cause)
}

// Reverted builds a ChainError carrying the revert reason returned by the contract.
func Reverted(txID, reason string) *Error {
	e := New(KindChain, fmt.Sprintf("transaction %s reverted", txID), nil)
	e.Reason = reason
	return e
}

var (
	ErrNotConnected  = Precondition("Please connect your wallet first")
	ErrEmptyPlan     = Precondition("Please add recipients with addresses and amounts")
	ErrInFlight      = Precondition("A payment is already in progress")
	ErrValueMismatch = Precondition("Attached value does not match the sum of amounts")
	ErrUnknownEntry  = Input("unknown recipient")
)

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// BlocksSubmission reports whether err aborted a submission. Errors outside
// the taxonomy are treated as blocking.
func BlocksSubmission(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.BlocksSubmission()
	}
	return true
}

// UserMessage renders any error for display, falling back to its text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return err.Error()
}
