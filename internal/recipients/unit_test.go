package recipients

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/errs"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer " + s)
	}
	return v
}

func TestToBase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1", "1000000000000000000"},
		{"2.5", "2500000000000000000"},
		{" 0.1 ", "100000000000000000"},
		{"0.000000000000000001", "1"},
		// beyond 18 places is truncated, never rounded up
		{"1.0000000000000000019", "1000000000000000001"},
		{"0.1234567890123456789", "123456789012345678"},
		{"1e-3", "1000000000000000"},
	}

	for _, test := range tests {
		got, err := Ether.ToBase(test.input)
		require.NoError(t, err, test.input)
		assert.Equal(t, wei(test.expected), got, test.input)
	}
}

func TestToBaseRejects(t *testing.T) {
	tests := []struct {
		input string
		kind  errs.Kind
	}{
		{"", errs.KindInput},
		{"abc", errs.KindInput},
		{"1.5abc", errs.KindInput},
		{"0", errs.KindInput},
		{"-1", errs.KindInput},
		{"0.0000000000000000001", errs.KindInput},
		{"1e80", errs.KindInput},
	}

	for _, test := range tests {
		_, err := Ether.ToBase(test.input)
		if assert.Error(t, err, test.input) {
			assert.Equal(t, test.kind, errs.KindOf(err), test.input)
		}
	}
}

func TestParseAmountEmptyIsNotAnError(t *testing.T) {
	_, ok, err := Ether.ParseAmount("   ")
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestParseAmountBelowSmallestUnit(t *testing.T) {
	_, err := Ether.ToBase("0.0000000000000000009")
	assert.True(t, errors.Is(err, errAmountTooSmall))
}

func TestFromBase(t *testing.T) {
	usdc := Unit{Symbol: "USDC", Decimals: 6}

	assert.Equal(t, "1.5", usdc.FromBase(big.NewInt(1_500_000)).String())
	assert.True(t, usdc.FromBase(nil).IsZero())

	base, err := usdc.ToBase("0.0000019")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), base)
}
