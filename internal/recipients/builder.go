package recipients

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/errs"
)

// Plan is the argument set for one batch call, derived from the valid
// entries in list order. It is rebuilt on every submit attempt.
type Plan struct {
	Addresses []common.Address
	Amounts   []*big.Int
	Total     *big.Int
	EntryIDs  []string
}

func (p Plan) Len() int {
	return len(p.Addresses)
}

// Build filters entries to the valid ones and converts their amounts to
// base units, truncating below the smallest unit. The total is the integer
// sum of the converted amounts.
func Build(entries []Entry, unit Unit) (Plan, error) {
	plan := Plan{Total: new(big.Int)}
	for _, e := range entries {
		if !e.Valid || e.ResolvedAddress == nil {
			continue
		}
		amount, err := unit.ToBase(e.AmountText)
		if err != nil {
			// entry not produced by List; skip rather than trust Valid
			continue
		}
		plan.Addresses = append(plan.Addresses, *e.ResolvedAddress)
		plan.Amounts = append(plan.Amounts, amount)
		plan.EntryIDs = append(plan.EntryIDs, e.ID)
		plan.Total.Add(plan.Total, amount)
	}
	if plan.Len() == 0 {
		return Plan{}, errs.ErrEmptyPlan
	}
	return plan, nil
}
