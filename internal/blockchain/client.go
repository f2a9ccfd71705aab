package blockchain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultRetryCount   = 3
	DefaultRetryDelay   = 2 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// Backend is one chain connection able to sign, broadcast and settle a call.
type Backend interface {
	Sign(ctx context.Context, call Call) (SignedCall, error)
	Broadcast(ctx context.Context, signed SignedCall) (Handle, error)
	WaitReceipt(ctx context.Context, h Handle) (Receipt, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	GetStatus() NetworkStatus
	Close() error
}

type Option func(*clientOptions)

type clientOptions struct {
	logger *slog.Logger
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) clientOptions {
	o := clientOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dial connects to the network described by config.
func Dial(ctx context.Context, config Config, keys KeySource, opts ...Option) (Backend, error) {
	switch config.Kind {
	case KindEVM, "":
		return NewEVMClient(ctx, config, keys, opts...)
	case KindThor:
		return NewThorClient(config, keys, opts...)
	default:
		return nil, fmt.Errorf("unknown network kind: %s", config.Kind)
	}
}

func applyDefaults(config *Config) {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RetryCount == 0 {
		config.RetryCount = DefaultRetryCount
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
}

type statusHolder struct {
	mu     sync.RWMutex
	status NetworkStatus
}

func (s *statusHolder) update(connected bool, blockHeight uint64, networkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Connected = connected
	s.status.BlockHeight = blockHeight
	if networkID != "" {
		s.status.NetworkID = networkID
	}
	s.status.LastChecked = time.Now()
}

func (s *statusHolder) get() NetworkStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// the attempts run out. Only read-only requests go through here.
func withRetry[T any](ctx context.Context, config Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ClassifyError(ctx.Err())
			case <-time.After(config.RetryDelay * time.Duration(attempt)):
			}
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}

		lastErr = err
		if blockchainErr := ClassifyError(err); blockchainErr != nil && !blockchainErr.IsRetryable() {
			break
		}
	}

	return zero, ClassifyError(lastErr)
}
