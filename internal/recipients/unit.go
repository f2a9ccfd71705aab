package recipients

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gikenye/givecaesar/internal/errs"
)

const (
	maxAmountLength = 100
	maxBaseBits     = 256
	minExponent     = -200
	maxDigits       = 78
)

// Unit describes the chain's native denomination: amounts are typed in whole
// units and submitted in base units (10^-Decimals).
type Unit struct {
	Symbol   string
	Decimals int32
}

var Ether = Unit{Symbol: "ETH", Decimals: 18}

var (
	errAmountNotNumber = errs.Input("Amount must be a number")
	errAmountNotPos    = errs.Input("Amount must be greater than 0")
	errAmountTooSmall  = errs.Input("Amount is below the smallest unit")
	errAmountTooLarge  = errs.Input("Amount is too large")
)

// ParseAmount parses typed text into an exact decimal. Empty text returns
// ok=false with no error: it is not yet valid, but nothing to surface either.
func (u Unit) ParseAmount(text string) (amount decimal.Decimal, ok bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, false, nil
	}
	if len(text) > maxAmountLength {
		return decimal.Zero, false, errAmountTooLarge
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false, errAmountNotNumber
	}
	if !d.IsPositive() {
		return decimal.Zero, false, errAmountNotPos
	}
	if d.Exponent() < minExponent {
		return decimal.Zero, false, errAmountTooSmall
	}
	if int64(d.Exponent())+int64(u.Decimals) > maxDigits {
		return decimal.Zero, false, errAmountTooLarge
	}
	return d, true, nil
}

// ToBase converts typed text to base units, truncating anything finer than
// the smallest unit. A positive amount that truncates to zero is rejected.
func (u Unit) ToBase(text string) (*big.Int, error) {
	d, ok, err := u.ParseAmount(text)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Input("Amount is required")
	}
	return u.toBase(d)
}

func (u Unit) toBase(d decimal.Decimal) (*big.Int, error) {
	base := d.Shift(u.Decimals).BigInt()
	if base.Sign() <= 0 {
		return nil, errAmountTooSmall
	}
	if base.BitLen() > maxBaseBits {
		return nil, errAmountTooLarge
	}
	return base, nil
}

// FromBase renders base units back into whole units.
func (u Unit) FromBase(base *big.Int) decimal.Decimal {
	if base == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(base, -u.Decimals)
}
