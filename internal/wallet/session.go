package wallet

import (
	"crypto/ecdsa"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/gikenye/givecaesar/internal/errs"
)

const (
	DefaultSessionTimeout  = 5 * time.Minute
	DefaultCleanupInterval = 30 * time.Second
	expiringThreshold      = time.Minute
)

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusExpiring SessionStatus = "expiring"
	SessionStatusExpired  SessionStatus = "expired"
	SessionStatusInactive SessionStatus = "inactive"
)

type SessionConfig struct {
	Timeout         time.Duration
	CleanupInterval time.Duration
}

// Session is the local wallet connection: a keystore that, once unlocked,
// keeps its account available until it is locked or sits idle past the
// timeout. It reports connection state and provides the signing key.
type Session struct {
	keystore *Keystore
	config   SessionConfig
	logger   *slog.Logger
	now      func() time.Time

	mu           sync.RWMutex
	account      *Account
	lastActivity time.Time
	expiresAt    time.Time
	onPrompt     func()
	onChange     func(connected bool)

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type SessionOption func(*Session)

func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession wraps keystore, which may be nil when no wallet exists yet.
func NewSession(keystore *Keystore, config SessionConfig, opts ...SessionOption) *Session {
	if config.Timeout == 0 {
		config.Timeout = DefaultSessionTimeout
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	s := &Session{
		keystore:    keystore,
		config:      config,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnPrompt sets the callback run when a connection is requested, typically
// showing the unlock prompt.
func (s *Session) OnPrompt(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPrompt = fn
}

// OnChange sets the callback run when the session locks or unlocks.
func (s *Session) OnChange(fn func(connected bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Session) HasKeystore() bool {
	return s.keystore != nil
}

// Address is the keystore address, known even while locked.
func (s *Session) Address() (common.Address, bool) {
	if s.keystore == nil {
		return common.Address{}, false
	}
	return s.keystore.Address, true
}

func (s *Session) Unlock(password string) error {
	if s.keystore == nil {
		return errors.New("no wallet found; run `caesar keystore init` first")
	}

	account, err := s.keystore.Unlock(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.account != nil {
		s.account.Wipe()
	}
	now := s.now()
	s.account = account
	s.lastActivity = now
	s.expiresAt = now.Add(s.config.Timeout)
	onChange := s.onChange
	s.mu.Unlock()

	s.logger.Info("wallet unlocked", "address", account.Address.Hex())
	if onChange != nil {
		onChange(true)
	}
	return nil
}

func (s *Session) Lock() {
	s.mu.Lock()
	wasOpen := s.account != nil
	s.clearSensitiveData()
	onChange := s.onChange
	s.mu.Unlock()

	if wasOpen {
		s.logger.Info("wallet locked")
		if onChange != nil {
			onChange(false)
		}
	}
}

func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

func (s *Session) CurrentAddress() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.activeLocked() {
		return common.Address{}, false
	}
	return s.account.Address, true
}

func (s *Session) PromptConnect() {
	s.mu.RLock()
	fn := s.onPrompt
	s.mu.RUnlock()

	s.logger.Debug("connect prompt requested")
	if fn != nil {
		fn()
	}
}

// PrivateKey returns a copy of the unlocked key and counts as activity.
// Locking the session wipes only its own key; callers wipe the copy when done.
func (s *Session) PrivateKey() (*ecdsa.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activeLocked() {
		return nil, errs.ErrNotConnected
	}
	s.touchLocked()

	raw := crypto.FromECDSA(s.account.PrivateKey)
	defer clear(raw)
	return crypto.ToECDSA(raw)
}

// RecordActivity extends an active session.
func (s *Session) RecordActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeLocked() {
		s.touchLocked()
	}
}

func (s *Session) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return SessionStatusInactive
	}

	now := s.now()
	if now.After(s.expiresAt) {
		return SessionStatusExpired
	}
	if s.expiresAt.Sub(now) < expiringThreshold {
		return SessionStatusExpiring
	}
	return SessionStatusActive
}

func (s *Session) TimeRemaining() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return 0
	}
	remaining := s.expiresAt.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StartCleanupRoutine locks the session once it expires.
func (s *Session) StartCleanupRoutine() {
	s.cleanupTicker = time.NewTicker(s.config.CleanupInterval)

	go func() {
		for {
			select {
			case <-s.cleanupTicker.C:
				s.lockIfExpired()
			case <-s.stopCleanup:
				return
			}
		}
	}()
}

func (s *Session) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
		if s.cleanupTicker != nil {
			s.cleanupTicker.Stop()
		}
	})
	s.Lock()
}

func (s *Session) lockIfExpired() {
	if s.Status() == SessionStatusExpired {
		s.logger.Info("wallet session expired")
		s.Lock()
	}
}

func (s *Session) activeLocked() bool {
	return s.account != nil && !s.now().After(s.expiresAt)
}

func (s *Session) touchLocked() {
	now := s.now()
	s.lastActivity = now
	s.expiresAt = now.Add(s.config.Timeout)
}

func (s *Session) clearSensitiveData() {
	if s.account != nil {
		s.account.Wipe()
		s.account = nil
	}
	s.expiresAt = time.Time{}
}
