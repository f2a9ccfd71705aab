package names

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Record is a cached lookup result. Found is false for a name with no
// address, so misses are cached too.
type Record struct {
	Address     common.Address
	Found       bool
	LastUpdated time.Time
}

type Cache struct {
	records map[string]*Record
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		records: make(map[string]*Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Cache) Get(name string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, exists := c.records[name]
	if !exists {
		return Record{}, false
	}

	if c.now().Sub(record.LastUpdated) > c.ttl {
		return Record{}, false
	}

	return *record, true
}

func (c *Cache) Set(name string, address common.Address, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[name] = &Record{
		Address:     address,
		Found:       found,
		LastUpdated: c.now(),
	}
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make(map[string]*Record)
}

func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for name, record := range c.records {
		if now.Sub(record.LastUpdated) > c.ttl {
			delete(c.records, name)
		}
	}
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.records)
}

// StartCleanupRoutine evicts expired records every interval until the
// returned stop function is called.
func (c *Cache) StartCleanupRoutine(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				c.Cleanup()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
