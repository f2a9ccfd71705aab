package wallet

import (
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gikenye/givecaesar/internal/errs"
)

var (
	sharedKeystore     *Keystore
	sharedKeystoreOnce sync.Once
)

// testKeystore is built once; key derivation is slow.
func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	sharedKeystoreOnce.Do(func() {
		ks, err := NewKeystore(testMnemonic, EVMPath, "hunter2")
		if err != nil {
			t.Fatalf("Failed to create keystore: %v", err)
		}
		sharedKeystore = ks
	})
	return sharedKeystore
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionUnlockAndLock(t *testing.T) {
	ks := testKeystore(t)
	s := NewSession(ks, SessionConfig{})
	defer s.Shutdown()

	var changes []bool
	s.OnChange(func(connected bool) { changes = append(changes, connected) })

	assert.False(t, s.IsConnected())
	assert.Equal(t, SessionStatusInactive, s.Status())
	_, err := s.PrivateKey()
	assert.ErrorIs(t, err, errs.ErrNotConnected)

	addr, ok := s.Address()
	assert.True(t, ok)
	assert.Equal(t, ks.Address, addr)

	require.Error(t, s.Unlock("wrong"))
	assert.False(t, s.IsConnected())

	require.NoError(t, s.Unlock("hunter2"))
	assert.True(t, s.IsConnected())
	current, ok := s.CurrentAddress()
	assert.True(t, ok)
	assert.Equal(t, ks.Address, current)

	key, err := s.PrivateKey()
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, ks.Address, crypto.PubkeyToAddress(key.PublicKey))

	again, err := s.PrivateKey()
	require.NoError(t, err)
	assert.NotSame(t, key, again)
	assert.NotSame(t, key.D, again.D)

	s.Lock()
	assert.False(t, s.IsConnected())
	assert.NotZero(t, key.D.Sign(), "a handed-out copy must survive the lock")
	assert.Nil(t, s.account)
	_, err = s.PrivateKey()
	assert.ErrorIs(t, err, errs.ErrNotConnected)
	assert.Equal(t, []bool{true, false}, changes)
}

func TestSessionExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := NewSession(testKeystore(t), SessionConfig{Timeout: 5 * time.Minute}, WithClock(clock.Now))
	defer s.Shutdown()

	require.NoError(t, s.Unlock("hunter2"))
	assert.Equal(t, SessionStatusActive, s.Status())

	clock.Advance(4*time.Minute + 30*time.Second)
	assert.Equal(t, SessionStatusExpiring, s.Status())
	assert.Equal(t, 30*time.Second, s.TimeRemaining())

	// signing counts as activity
	_, err := s.PrivateKey()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, s.TimeRemaining())

	clock.Advance(6 * time.Minute)
	assert.Equal(t, SessionStatusExpired, s.Status())
	assert.False(t, s.IsConnected())
	_, ok := s.CurrentAddress()
	assert.False(t, ok)

	s.lockIfExpired()
	assert.Equal(t, SessionStatusInactive, s.Status())
}

func TestSessionWithoutKeystore(t *testing.T) {
	s := NewSession(nil, SessionConfig{})
	defer s.Shutdown()

	assert.False(t, s.HasKeystore())
	_, ok := s.Address()
	assert.False(t, ok)
	assert.Error(t, s.Unlock("anything"))
}

func TestSessionPrompt(t *testing.T) {
	s := NewSession(nil, SessionConfig{})
	defer s.Shutdown()

	prompted := 0
	s.OnPrompt(func() { prompted++ })
	s.PromptConnect()
	assert.Equal(t, 1, prompted)
}

func TestShutdownIsIdempotent(t *testing.T) {
	s := NewSession(nil, SessionConfig{CleanupInterval: time.Millisecond})
	s.StartCleanupRoutine()
	s.Shutdown()
	s.Shutdown()
}
