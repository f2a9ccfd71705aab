package distributor

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/recipients"
)

var disperse = common.HexToAddress("0xD152f549545093347A162Dce210e7293f1452150")

func TestNewRequiresAddress(t *testing.T) {
	_, err := New(common.Address{}, "")
	assert.Error(t, err)
}

func TestSelector(t *testing.T) {
	c, err := New(disperse, "")
	require.NoError(t, err)

	assert.Equal(t, "disperseEther(address[],uint256[])", c.Signature())
	assert.Equal(t, "e63d38ed", hex.EncodeToString(c.Selector()))
}

func TestEncodePlan(t *testing.T) {
	c, err := New(disperse, DefaultMethod)
	require.NoError(t, err)

	alice := common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob := common.HexToAddress("0x2222222222222222222222222222222222222222")
	two, _ := new(big.Int).SetString("2000000000000000000", 10)
	three, _ := new(big.Int).SetString("3000000000000000000", 10)
	five, _ := new(big.Int).SetString("5000000000000000000", 10)

	plan := recipients.Plan{
		Addresses: []common.Address{alice, bob},
		Amounts:   []*big.Int{two, three},
		Total:     five,
	}
	from := common.HexToAddress("0x3333333333333333333333333333333333333333")

	call, err := c.Encode(from, plan)
	require.NoError(t, err)

	assert.Equal(t, disperse, call.To)
	assert.Equal(t, from, call.From)
	assert.Equal(t, five, call.Value)
	assert.Equal(t, 2, call.Recipients)
	assert.Equal(t, c.Selector(), call.Data[:4])

	addresses, amounts, err := c.Decode(call.Data)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{alice, bob}, addresses)
	assert.Equal(t, []*big.Int{two, three}, amounts)

	plan.Total.SetInt64(0)
	assert.Equal(t, "5000000000000000000", call.Value.String(), "call value must not alias the plan total")
}

func TestEncodeMismatchedPlan(t *testing.T) {
	c, err := New(disperse, "")
	require.NoError(t, err)

	_, err = c.Encode(common.Address{}, recipients.Plan{
		Addresses: []common.Address{disperse},
	})
	assert.Error(t, err)
}

func TestDecodeRejectsOtherCalls(t *testing.T) {
	c, err := New(disperse, "")
	require.NoError(t, err)

	_, _, err = c.Decode([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}
