package recipients

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/errs"
)

func TestBuildTwoRecipients(t *testing.T) {
	l := NewList(newTestResolver(), Ether)
	first := l.Entries()[0].ID
	second := l.Add()

	require.NoError(t, l.UpdateAddress(first, "alice.eth"))
	require.NoError(t, l.UpdateAmount(first, "2"))
	require.NoError(t, l.UpdateAddress(second, "0x2222222222222222222222222222222222222222"))
	require.NoError(t, l.UpdateAmount(second, "3"))
	l.Wait()

	plan, err := l.Plan()
	require.NoError(t, err)

	assert.Equal(t, []common.Address{aliceAddr, bobAddr}, plan.Addresses)
	assert.Equal(t, []*big.Int{wei("2000000000000000000"), wei("3000000000000000000")}, plan.Amounts)
	assert.Equal(t, wei("5000000000000000000"), plan.Total)
	assert.Equal(t, []string{first, second}, plan.EntryIDs)
	assert.Equal(t, 2, plan.Len())
}

func TestBuildSkipsInvalidAndKeepsOrder(t *testing.T) {
	l := NewList(newTestResolver(), Ether)
	ids := []string{l.Entries()[0].ID, l.Add(), l.Add(), l.Add()}

	inputs := []struct{ address, amount string }{
		{"bob.eth", "0.5"},
		{"nobody.eth", "1"},
		{"0x1111111111111111111111111111111111111111", "abc"},
		{"alice.eth", "0.25"},
	}
	for i, in := range inputs {
		require.NoError(t, l.UpdateAddress(ids[i], in.address))
		require.NoError(t, l.UpdateAmount(ids[i], in.amount))
	}
	l.Wait()

	plan, err := l.Plan()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{bobAddr, aliceAddr}, plan.Addresses)
	assert.Equal(t, []string{ids[0], ids[3]}, plan.EntryIDs)
	assert.Equal(t, wei("750000000000000000"), plan.Total)

	sum := new(big.Int)
	for _, a := range plan.Amounts {
		sum.Add(sum, a)
	}
	assert.Equal(t, plan.Total, sum)
}

func TestBuildIsFreshEachTime(t *testing.T) {
	l := NewList(newTestResolver(), Ether)
	id := l.Entries()[0].ID
	require.NoError(t, l.UpdateAddress(id, "alice.eth"))
	require.NoError(t, l.UpdateAmount(id, "1"))
	l.Wait()

	plan, err := l.Plan()
	require.NoError(t, err)
	assert.Equal(t, wei("1000000000000000000"), plan.Total)

	require.NoError(t, l.UpdateAmount(id, "4"))
	plan, err = l.Plan()
	require.NoError(t, err)
	assert.Equal(t, wei("4000000000000000000"), plan.Total)

	require.NoError(t, l.UpdateAmount(id, ""))
	_, err = l.Plan()
	assert.ErrorIs(t, err, errs.ErrEmptyPlan)
	assert.Equal(t, errs.KindPrecondition, errs.KindOf(err))
}

func TestBuildTruncatesSubUnitDigits(t *testing.T) {
	addr := aliceAddr
	entries := []Entry{{
		ID:              "a",
		ResolvedAddress: &addr,
		AmountText:      "0.1234567890123456789",
		Amount:          wei("123456789012345678"),
		Valid:           true,
	}}

	plan, err := Build(entries, Ether)
	require.NoError(t, err)
	assert.Equal(t, wei("123456789012345678"), plan.Amounts[0])
}
