// Package names resolves ENS names to addresses.
package names

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

// MainnetRegistry is the ENS registry on Ethereum mainnet.
var MainnetRegistry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

const (
	DefaultCacheTTL    = 5 * time.Minute
	DefaultLookupRate  = 5
	DefaultLookupBurst = 3
)

const ensABI = `[
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"resolver","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"addr","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

var parsedABI = mustParseABI(ensABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ENS looks names up through the registry and the name's resolver. Results,
// including names without an address, are cached for the configured TTL.
type ENS struct {
	caller   ethereum.ContractCaller
	registry common.Address
	cache    *Cache
	limiter  *rate.Limiter
	logger   *slog.Logger
	closer   func()
	stop     func()
}

type Option func(*ENS)

func WithRegistry(registry common.Address) Option {
	return func(e *ENS) {
		if registry != (common.Address{}) {
			e.registry = registry
		}
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(e *ENS) {
		if ttl > 0 {
			e.cache = NewCache(ttl)
		}
	}
}

// WithRateLimit caps lookups per second so that typing a name does not fire
// one RPC burst per keystroke.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *ENS) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *ENS) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewENS(caller ethereum.ContractCaller, opts ...Option) *ENS {
	e := &ENS{
		caller:   caller,
		registry: MainnetRegistry,
		cache:    NewCache(DefaultCacheTTL),
		limiter:  rate.NewLimiter(rate.Limit(DefaultLookupRate), DefaultLookupBurst),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stop = e.cache.StartCleanupRoutine(e.cacheTTL())
	return e
}

// Dial connects to an RPC endpoint on the chain that hosts the registry.
func Dial(ctx context.Context, url string, opts ...Option) (*ENS, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial name service endpoint: %w", err)
	}
	e := NewENS(client, opts...)
	e.closer = client.Close
	return e, nil
}

func (e *ENS) cacheTTL() time.Duration {
	if e.cache.ttl > 0 {
		return e.cache.ttl
	}
	return DefaultCacheTTL
}

func (e *ENS) Normalize(raw string) (string, error) {
	return Normalize(raw)
}

// ResolveName returns the address record of a normalized name. found is
// false when the name has no resolver or its resolver has no address.
func (e *ENS) ResolveName(ctx context.Context, name string) (common.Address, bool, error) {
	if record, ok := e.cache.Get(name); ok {
		return record.Address, record.Found, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return common.Address{}, false, err
	}

	node := NameHash(name)
	resolver, err := e.callAddress(ctx, e.registry, "resolver", node)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("registry lookup: %w", err)
	}
	if resolver == (common.Address{}) {
		e.logger.Debug("name has no resolver", "name", name)
		e.cache.Set(name, common.Address{}, false)
		return common.Address{}, false, nil
	}

	addr, err := e.callAddress(ctx, resolver, "addr", node)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("resolver lookup: %w", err)
	}

	found := addr != (common.Address{})
	e.cache.Set(name, addr, found)
	e.logger.Debug("resolved name", "name", name, "found", found)
	return addr, found, nil
}

func (e *ENS) callAddress(ctx context.Context, to common.Address, method string, node common.Hash) (common.Address, error) {
	data, err := parsedABI.Pack(method, [32]byte(node))
	if err != nil {
		return common.Address{}, err
	}

	out, err := e.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) == 0 {
		// no contract at this address
		return common.Address{}, nil
	}

	values, err := parsedABI.Unpack(method, out)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected %s output %T", method, values[0])
	}
	return addr, nil
}

// Close stops the cache cleanup, drops cached records and closes the
// endpoint when Dial opened it.
func (e *ENS) Close() {
	if e.stop != nil {
		e.stop()
	}
	e.cache.Clear()
	if e.closer != nil {
		e.closer()
	}
}
