package recipients

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimal places shown for a running total.
const DisplayPlaces = 4

// Total is the sum over valid entries. Base is exact and is what goes on
// chain; Display is only for showing to the user.
type Total struct {
	Display decimal.Decimal
	Base    *big.Int
	Count   int
}

// String renders Display with a fixed number of places, truncating.
func (t Total) String(places int32) string {
	return t.Display.Truncate(places).StringFixed(places)
}

func (t Total) IsZero() bool {
	return t.Base == nil || t.Base.Sign() == 0
}

// Aggregate sums the amounts of valid entries. Invalid or unparsable
// entries contribute nothing; an all-invalid list totals zero.
func Aggregate(entries []Entry, unit Unit) Total {
	sum := new(big.Int)
	count := 0
	for _, e := range entries {
		if !e.Valid || e.Amount == nil {
			continue
		}
		sum.Add(sum, e.Amount)
		count++
	}
	return Total{
		Display: unit.FromBase(sum),
		Base:    sum,
		Count:   count,
	}
}
