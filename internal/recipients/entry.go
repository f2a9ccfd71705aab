package recipients

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type AddressStatus int

const (
	AddressEmpty AddressStatus = iota
	AddressResolving
	AddressResolved
	AddressInvalid
	AddressNotFound
	AddressLookupFailed
)

func (s AddressStatus) String() string {
	switch s {
	case AddressEmpty:
		return "Empty"
	case AddressResolving:
		return "Resolving"
	case AddressResolved:
		return "Resolved"
	case AddressInvalid:
		return "Invalid"
	case AddressNotFound:
		return "Not found"
	case AddressLookupFailed:
		return "Lookup failed"
	default:
		return "Unknown"
	}
}

// Entry is one recipient row. Values handed out by List are copies.
type Entry struct {
	ID string
	// RawInput is the last text typed into the address field.
	RawInput        string
	ResolvedAddress *common.Address
	DisplayName     string
	AmountText      string

	AddressStatus AddressStatus
	AddressErr    error
	AmountErr     error
	// Amount is AmountText in base units, set only when it parsed.
	Amount *big.Int
	Valid  bool
}

func (e *Entry) revalidate() {
	e.Valid = e.ResolvedAddress != nil && e.Amount != nil
}

func (e *Entry) applyResolution(res Resolution) {
	e.ResolvedAddress = nil
	e.DisplayName = ""
	e.AddressErr = res.Err

	switch res.Kind {
	case ResolutionEmpty:
		e.AddressStatus = AddressEmpty
	case ResolutionResolved:
		addr := res.Address
		e.ResolvedAddress = &addr
		e.DisplayName = res.Name
		e.AddressStatus = AddressResolved
	case ResolutionInvalidSyntax:
		e.AddressStatus = AddressInvalid
	case ResolutionNameNotFound:
		e.DisplayName = res.Name
		e.AddressStatus = AddressNotFound
	default:
		e.AddressStatus = AddressLookupFailed
	}
	e.revalidate()
}

func (e *Entry) markResolving() {
	e.ResolvedAddress = nil
	e.DisplayName = ""
	e.AddressErr = nil
	e.AddressStatus = AddressResolving
	e.revalidate()
}

func (e *Entry) setAmount(text string, unit Unit) {
	e.AmountText = text
	e.Amount = nil
	e.AmountErr = nil

	d, ok, err := unit.ParseAmount(text)
	switch {
	case err != nil:
		e.AmountErr = err
	case ok:
		base, err := unit.toBase(d)
		if err != nil {
			e.AmountErr = err
		} else {
			e.Amount = base
		}
	}
	e.revalidate()
}

func (e *Entry) clone() Entry {
	c := *e
	if e.ResolvedAddress != nil {
		addr := *e.ResolvedAddress
		c.ResolvedAddress = &addr
	}
	if e.Amount != nil {
		c.Amount = new(big.Int).Set(e.Amount)
	}
	return c
}
