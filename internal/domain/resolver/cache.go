package resolver

import (
	"sync"
	"time"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
)

type cacheEntry struct {
	el ports.Element
	at time.Time
}

// elementCache keeps at most one resolved element per role. Every clear
// starts a new epoch; writes carrying an older epoch are dropped.
type elementCache struct {
	ttl   time.Duration
	now   func() time.Time
	valid func(ports.Element) bool

	mu      sync.Mutex
	entries map[entity.Role]cacheEntry
	epoch   uint64
	changed chan struct{}
}

func newElementCache(ttl time.Duration, now func() time.Time, valid func(ports.Element) bool) *elementCache {
	return &elementCache{
		ttl:     ttl,
		now:     now,
		valid:   valid,
		entries: make(map[entity.Role]cacheEntry),
		changed: make(chan struct{}),
	}
}

// get returns the entry for role if it is young enough, still attached and
// still visible. Invalid entries are dropped.
func (c *elementCache) get(role entity.Role) (ports.Element, bool) {
	c.mu.Lock()
	e, ok := c.entries[role]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.at) > c.ttl || !e.el.IsConnected() || !c.valid(e.el) {
		c.mu.Lock()
		if cur, still := c.entries[role]; still && cur.at.Equal(e.at) {
			delete(c.entries, role)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.el, true
}

func (c *elementCache) set(role entity.Role, el ports.Element, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return false
	}
	c.entries[role] = cacheEntry{el: el, at: c.now()}
	return true
}

func (c *elementCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[entity.Role]cacheEntry)
	c.epoch++
	close(c.changed)
	c.changed = make(chan struct{})
}

// current returns the epoch and a channel closed when it ends.
func (c *elementCache) current() (uint64, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, c.changed
}

func (c *elementCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
