package wallet

import (
	"context"

	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/errs"
)

// Signer produces a signature for a call.
type Signer interface {
	Sign(ctx context.Context, call blockchain.Call) (blockchain.SignedCall, error)
}

// ApproveFunc asks the user to approve call. It returns false on rejection.
type ApproveFunc func(ctx context.Context, call blockchain.Call) (bool, error)

// ConfirmingSigner asks for explicit approval before delegating to the key
// holder, the way an external wallet shows its confirmation dialog.
type ConfirmingSigner struct {
	signer  Signer
	approve ApproveFunc
}

func NewConfirmingSigner(signer Signer, approve ApproveFunc) *ConfirmingSigner {
	return &ConfirmingSigner{signer: signer, approve: approve}
}

var ErrUserRejected = errs.Signer("User rejected the request", nil)

func (s *ConfirmingSigner) Sign(ctx context.Context, call blockchain.Call) (blockchain.SignedCall, error) {
	if s.approve != nil {
		ok, err := s.approve(ctx, call)
		if err != nil {
			return nil, errs.Signer("approval failed", err)
		}
		if !ok {
			return nil, ErrUserRejected
		}
	}
	return s.signer.Sign(ctx, call)
}
