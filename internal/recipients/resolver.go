package recipients

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/errs"
)

// ResolutionKind is the outcome class of resolving one typed identifier.
type ResolutionKind int

const (
	// ResolutionEmpty means nothing was typed; not an error to surface.
	ResolutionEmpty ResolutionKind = iota
	ResolutionResolved
	ResolutionInvalidSyntax
	ResolutionNameNotFound
	ResolutionFailed
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionEmpty:
		return "empty"
	case ResolutionResolved:
		return "resolved"
	case ResolutionInvalidSyntax:
		return "invalid_syntax"
	case ResolutionNameNotFound:
		return "name_not_found"
	case ResolutionFailed:
		return "resolution_error"
	default:
		return "unknown"
	}
}

// Resolution carries the input it was computed for, so the caller can
// decide whether it is still current when it arrives.
type Resolution struct {
	Input   string
	Kind    ResolutionKind
	Address common.Address
	// Name is the normalized name when Input was a name identifier.
	Name string
	Err  error
}

// NameService is the external name lookup. ResolveName reports found=false
// when the name has no address record.
type NameService interface {
	Normalize(raw string) (string, error)
	ResolveName(ctx context.Context, normalized string) (addr common.Address, found bool, err error)
}

type AddressValidator interface {
	IsValidAddress(s string) bool
}

// IdentifierResolver is what the recipient list needs from a resolver.
type IdentifierResolver interface {
	Resolve(ctx context.Context, raw string) Resolution
}

// HexValidator accepts 0x-prefixed 20-byte hex addresses. Mixed-case input
// must carry a valid EIP-55 checksum; the zero address is refused.
type HexValidator struct{}

func (HexValidator) IsValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	if !common.IsHexAddress(s) {
		return false
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return false
	}
	body := s[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return addr.Hex()[2:] == body
}

// Resolver turns one typed string into an address or a resolution failure.
// It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	names     NameService
	validator AddressValidator
	suffixes  []string
}

type ResolverOption func(*Resolver)

// WithSuffixes sets the name suffixes routed to the name service, e.g. ".eth".
func WithSuffixes(suffixes ...string) ResolverOption {
	return func(r *Resolver) {
		r.suffixes = r.suffixes[:0]
		for _, s := range suffixes {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if !strings.HasPrefix(s, ".") {
				s = "." + s
			}
			r.suffixes = append(r.suffixes, s)
		}
	}
}

func WithValidator(v AddressValidator) ResolverOption {
	return func(r *Resolver) {
		r.validator = v
	}
}

// NewResolver builds a resolver. names may be nil on chains without a name
// service, in which case every input is validated as a raw address.
func NewResolver(names NameService, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		names:     names,
		validator: HexValidator{},
		suffixes:  []string{".eth"},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, raw string) Resolution {
	res := Resolution{Input: raw}
	text := strings.TrimSpace(raw)
	if text == "" {
		res.Kind = ResolutionEmpty
		return res
	}

	if r.isName(text) {
		return r.resolveName(ctx, res, text)
	}

	if !r.validator.IsValidAddress(text) {
		res.Kind = ResolutionInvalidSyntax
		res.Err = errs.Input("Invalid address: %s", text)
		return res
	}
	res.Kind = ResolutionResolved
	res.Address = common.HexToAddress(text)
	return res
}

func (r *Resolver) isName(text string) bool {
	if r.names == nil || common.IsHexAddress(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, suffix := range r.suffixes {
		if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix) {
			return true
		}
	}
	return false
}

func (r *Resolver) resolveName(ctx context.Context, res Resolution, text string) Resolution {
	name, err := r.names.Normalize(text)
	if err != nil {
		res.Kind = ResolutionFailed
		res.Err = errs.Resolution("malformed name "+text, err)
		return res
	}
	res.Name = name

	addr, found, err := r.names.ResolveName(ctx, name)
	switch {
	case err != nil:
		res.Kind = ResolutionFailed
		res.Err = errs.Resolution("lookup of "+name+" failed", err)
	case !found || addr == (common.Address{}):
		res.Kind = ResolutionNameNotFound
		res.Err = errs.Resolution("no address registered for "+name, nil)
	default:
		res.Kind = ResolutionResolved
		res.Address = addr
	}
	return res
}
