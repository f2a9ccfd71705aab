// Package distributor encodes calls to the batch distribution contract.
package distributor

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/recipients"
)

// DefaultMethod follows the Disperse contract convention.
const DefaultMethod = "disperseEther"

const abiTemplate = `[{
	"inputs": [
		{"name": "recipients", "type": "address[]"},
		{"name": "values", "type": "uint256[]"}
	],
	"name": %q,
	"outputs": [],
	"stateMutability": "payable",
	"type": "function"
}]`

// Contract packs a plan into a payable call of the form
// method(address[] recipients, uint256[] values) whose value is the plan
// total.
type Contract struct {
	address common.Address
	method  string
	abi     abi.ABI
}

func New(address common.Address, method string) (*Contract, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("distributor contract address is not set")
	}
	if method == "" {
		method = DefaultMethod
	}

	parsed, err := abi.JSON(strings.NewReader(fmt.Sprintf(abiTemplate, method)))
	if err != nil {
		return nil, fmt.Errorf("build distributor ABI: %w", err)
	}

	return &Contract{address: address, method: method, abi: parsed}, nil
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) Method() string {
	return c.method
}

// Selector is the 4-byte function selector of the configured method.
func (c *Contract) Selector() []byte {
	return c.abi.Methods[c.method].ID
}

func (c *Contract) Signature() string {
	return c.abi.Methods[c.method].Sig
}

// Encode builds the call for plan, sent from from.
func (c *Contract) Encode(from common.Address, plan recipients.Plan) (blockchain.Call, error) {
	if len(plan.Addresses) != len(plan.Amounts) {
		return blockchain.Call{}, fmt.Errorf("plan has %d addresses but %d amounts", len(plan.Addresses), len(plan.Amounts))
	}

	data, err := c.abi.Pack(c.method, plan.Addresses, plan.Amounts)
	if err != nil {
		return blockchain.Call{}, fmt.Errorf("pack %s: %w", c.method, err)
	}

	value := new(big.Int)
	if plan.Total != nil {
		value.Set(plan.Total)
	}

	return blockchain.Call{
		From:       from,
		To:         c.address,
		Value:      value,
		Data:       data,
		Recipients: plan.Len(),
	}, nil
}

// Decode unpacks call data produced by Encode.
func (c *Contract) Decode(data []byte) ([]common.Address, []*big.Int, error) {
	if len(data) < 4 || string(data[:4]) != string(c.Selector()) {
		return nil, nil, fmt.Errorf("call data is not a %s call", c.method)
	}

	values, err := c.abi.Methods[c.method].Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	addresses, ok := values[0].([]common.Address)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected recipients type %T", values[0])
	}
	amounts, ok := values[1].([]*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected values type %T", values[1])
	}
	return addresses, amounts, nil
}
