package recipients

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/gikenye/givecaesar/internal/errs"
)

type stubNames struct {
	mu      sync.Mutex
	records map[string]common.Address
	fault   error
	calls   []string
}

func (s *stubNames) Normalize(raw string) (string, error) {
	if strings.Contains(raw, " ") {
		return "", errors.New("disallowed character")
	}
	return strings.ToLower(raw), nil
}

func (s *stubNames) ResolveName(ctx context.Context, name string) (common.Address, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if s.fault != nil {
		return common.Address{}, false, s.fault
	}
	addr, ok := s.records[name]
	return addr, ok, nil
}

var (
	aliceAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bobAddr   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestHexValidator(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0x2222222222222222222222222222222222222222", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", true},
		{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},  // EIP-55
		{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", false}, // bad checksum
		{"2222222222222222222222222222222222222222", false},
		{"0x222", false},
		{"0xABCunresolvable", false},
		{"0x0000000000000000000000000000000000000000", false},
		{"", false},
	}

	v := HexValidator{}
	for _, test := range tests {
		assert.Equal(t, test.expected, v.IsValidAddress(test.input), test.input)
	}
}

func TestResolveRawAddress(t *testing.T) {
	r := NewResolver(nil)

	res := r.Resolve(context.Background(), " 0x2222222222222222222222222222222222222222 ")
	assert.Equal(t, ResolutionResolved, res.Kind)
	assert.Equal(t, bobAddr, res.Address)
	assert.Empty(t, res.Name)
	assert.NoError(t, res.Err)
}

func TestResolveEmptyIsNotAnError(t *testing.T) {
	r := NewResolver(&stubNames{})

	res := r.Resolve(context.Background(), "  ")
	assert.Equal(t, ResolutionEmpty, res.Kind)
	assert.NoError(t, res.Err)
}

func TestResolveInvalidSyntax(t *testing.T) {
	names := &stubNames{}
	r := NewResolver(names)

	res := r.Resolve(context.Background(), "0xABCunresolvable")
	assert.Equal(t, ResolutionInvalidSyntax, res.Kind)
	assert.Equal(t, errs.KindInput, errs.KindOf(res.Err))
	assert.Empty(t, names.calls, "raw input must not reach the name service")
}

func TestResolveName(t *testing.T) {
	names := &stubNames{records: map[string]common.Address{"alice.eth": aliceAddr}}
	r := NewResolver(names)

	res := r.Resolve(context.Background(), "Alice.eth")
	assert.Equal(t, ResolutionResolved, res.Kind)
	assert.Equal(t, aliceAddr, res.Address)
	assert.Equal(t, "alice.eth", res.Name)
	assert.Equal(t, "Alice.eth", res.Input)
}

func TestResolveNameNotFound(t *testing.T) {
	names := &stubNames{records: map[string]common.Address{"zero.eth": {}}}
	r := NewResolver(names)

	for _, input := range []string{"nobody.eth", "zero.eth"} {
		res := r.Resolve(context.Background(), input)
		assert.Equal(t, ResolutionNameNotFound, res.Kind, input)
		assert.Equal(t, errs.KindResolution, errs.KindOf(res.Err), input)
	}
}

func TestResolveNameFault(t *testing.T) {
	fault := errors.New("dial tcp: connection refused")
	r := NewResolver(&stubNames{fault: fault})

	res := r.Resolve(context.Background(), "alice.eth")
	assert.Equal(t, ResolutionFailed, res.Kind)
	assert.ErrorIs(t, res.Err, fault)

	res = r.Resolve(context.Background(), "bad name.eth")
	assert.Equal(t, ResolutionFailed, res.Kind)
	assert.Contains(t, res.Err.Error(), "malformed name")
}

func TestResolveCustomSuffix(t *testing.T) {
	names := &stubNames{records: map[string]common.Address{"alice.vet": aliceAddr}}
	r := NewResolver(names, WithSuffixes("vet"))

	assert.Equal(t, ResolutionResolved, r.Resolve(context.Background(), "alice.vet").Kind)
	assert.Equal(t, ResolutionInvalidSyntax, r.Resolve(context.Background(), "alice.eth").Kind)
	assert.Equal(t, ResolutionInvalidSyntax, r.Resolve(context.Background(), ".vet").Kind)
}
