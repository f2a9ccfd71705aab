// Package batch drives one payout submission from the recipient list to a
// settled transaction.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/errs"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/recipients"
)

const DefaultReceiptTimeout = 10 * time.Minute

type Signer interface {
	Sign(ctx context.Context, call blockchain.Call) (blockchain.SignedCall, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, signed blockchain.SignedCall) (blockchain.Handle, error)
}

type ReceiptObserver interface {
	WaitReceipt(ctx context.Context, h blockchain.Handle) (blockchain.Receipt, error)
}

type BalanceChecker interface {
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
}

// Gate reports the connected account or refuses.
type Gate interface {
	EnsureConnected() (common.Address, error)
}

// PlanSource builds a fresh plan on every call.
type PlanSource interface {
	Plan() (recipients.Plan, error)
	Unit() recipients.Unit
}

type Encoder interface {
	Encode(from common.Address, plan recipients.Plan) (blockchain.Call, error)
}

// Notice is published once a submission has been handed to the signer.
type Notice struct {
	Recipients int
	Total      string
	Symbol     string
}

func (n Notice) String() string {
	noun := "recipients"
	if n.Recipients == 1 {
		noun = "recipient"
	}
	return fmt.Sprintf("Sending %s %s to %d %s", n.Total, n.Symbol, n.Recipients, noun)
}

// Result describes a submission that reached Confirmed.
type Result struct {
	TxID    string
	Plan    recipients.Plan
	Receipt blockchain.Receipt
}

type Sender struct {
	list     PlanSource
	gate     Gate
	encoder  Encoder
	signer   Signer
	network  Broadcaster
	receipts ReceiptObserver
	tracker  *lifecycle.Tracker

	balances       BalanceChecker
	receiptTimeout time.Duration
	onNotice       func(Notice)
	onPlan         func(recipients.Plan)
	logger         *slog.Logger
}

type Deps struct {
	List     PlanSource
	Gate     Gate
	Encoder  Encoder
	Signer   Signer
	Network  Broadcaster
	Receipts ReceiptObserver
	Tracker  *lifecycle.Tracker
}

type Option func(*Sender)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBalanceCheck refuses plans whose total exceeds the sender's balance
// before anything is signed.
func WithBalanceCheck(b BalanceChecker) Option {
	return func(s *Sender) {
		s.balances = b
	}
}

func WithReceiptTimeout(d time.Duration) Option {
	return func(s *Sender) {
		if d > 0 {
			s.receiptTimeout = d
		}
	}
}

func WithNotice(fn func(Notice)) Option {
	return func(s *Sender) {
		s.onNotice = fn
	}
}

// WithPlanObserver is called with every plan handed to the signer.
func WithPlanObserver(fn func(recipients.Plan)) Option {
	return func(s *Sender) {
		s.onPlan = fn
	}
}

func NewSender(deps Deps, opts ...Option) (*Sender, error) {
	switch {
	case deps.List == nil:
		return nil, errors.New("batch: recipient list is required")
	case deps.Gate == nil:
		return nil, errors.New("batch: wallet gate is required")
	case deps.Encoder == nil:
		return nil, errors.New("batch: contract encoder is required")
	case deps.Signer == nil || deps.Network == nil || deps.Receipts == nil:
		return nil, errors.New("batch: signer, broadcaster and receipt observer are required")
	case deps.Tracker == nil:
		return nil, errors.New("batch: lifecycle tracker is required")
	}

	s := &Sender{
		list:           deps.List,
		gate:           deps.Gate,
		encoder:        deps.Encoder,
		signer:         deps.Signer,
		network:        deps.Network,
		receipts:       deps.Receipts,
		tracker:        deps.Tracker,
		receiptTimeout: DefaultReceiptTimeout,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sender) Tracker() *lifecycle.Tracker {
	return s.tracker
}

// Send runs one submission to completion. Errors returned before the
// tracker left Idle are preconditions and leave the tracker untouched;
// later errors are also recorded on the tracker as Failed.
func (s *Sender) Send(ctx context.Context) (Result, error) {
	if !s.tracker.State().CanSubmit() {
		return Result{}, errs.ErrInFlight
	}

	from, err := s.gate.EnsureConnected()
	if err != nil {
		return Result{}, err
	}

	plan, err := s.list.Plan()
	if err != nil {
		return Result{}, err
	}

	call, err := s.encoder.Encode(from, plan)
	if err != nil {
		return Result{}, errs.New(errs.KindPrecondition, "Could not encode the payment", err)
	}
	if call.Value == nil || plan.Total == nil || call.Value.Cmp(plan.Total) != 0 {
		return Result{}, errs.ErrValueMismatch
	}

	unit := s.list.Unit()
	if err := s.checkBalance(ctx, from, call.Value, unit); err != nil {
		return Result{}, err
	}

	if err := s.tracker.Begin(); err != nil {
		return Result{}, err
	}

	total := unit.FromBase(plan.Total)
	logger := s.logger.With("recipients", plan.Len(), "total", total.String(), "from", from.Hex())
	logger.Info("payment initiated")
	if s.onPlan != nil {
		s.onPlan(plan)
	}
	if s.onNotice != nil {
		s.onNotice(Notice{
			Recipients: plan.Len(),
			Total:      recipients.Total{Display: total}.String(recipients.DisplayPlaces),
			Symbol:     unit.Symbol,
		})
	}

	signed, err := s.signer.Sign(ctx, call)
	if err != nil {
		return Result{}, s.fail(logger, "signing failed", blockchain.SignerError(err))
	}
	if err := s.tracker.Approve(); err != nil {
		return Result{}, err
	}

	handle, err := s.network.Broadcast(ctx, signed)
	if err != nil {
		return Result{}, s.fail(logger, "broadcast failed", blockchain.ChainError(err))
	}
	if err := s.tracker.Accept(handle.TxID); err != nil {
		return Result{}, err
	}
	logger = logger.With("tx", handle.TxID)
	logger.Info("transaction accepted")

	waitCtx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()
	receipt, err := s.receipts.WaitReceipt(waitCtx, handle)
	if err != nil {
		return Result{}, s.fail(logger, "receipt not observed", blockchain.ChainError(err))
	}
	if receipt.Reverted {
		return Result{}, s.fail(logger, "transaction reverted", errs.Reverted(handle.TxID, receipt.RevertReason))
	}

	if err := s.tracker.Confirm(lifecycle.Receipt{
		TxID:        handle.TxID,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}); err != nil {
		return Result{}, err
	}
	logger.Info("payment confirmed", "block", receipt.BlockNumber, "gas_used", receipt.GasUsed)

	return Result{TxID: handle.TxID, Plan: plan, Receipt: receipt}, nil
}

func (s *Sender) checkBalance(ctx context.Context, from common.Address, value *big.Int, unit recipients.Unit) error {
	if s.balances == nil {
		return nil
	}
	balance, err := s.balances.Balance(ctx, from)
	if err != nil {
		// The node rejects an unfunded transaction anyway.
		s.logger.Warn("balance pre-flight skipped", "error", err)
		return nil
	}
	if balance.Cmp(value) >= 0 {
		return nil
	}

	cause := blockchain.NewInsufficientFundsError(value, balance, unit.Symbol)
	return errs.New(errs.KindPrecondition, cause.UserMessage(), cause)
}

func (s *Sender) fail(logger *slog.Logger, msg string, err error) error {
	logger.Warn(msg, "kind", string(errs.KindOf(err)), "error", err)
	if ferr := s.tracker.Fail(err); ferr != nil {
		logger.Error("could not record failure", "error", ferr)
	}
	return err
}
