// file: internal/authorizer/cache.go

package authorizer

import (
	"sync"
	"time"
)

// entry is an encoded, ready-to-serve authorization header.
type entry struct {
	header string
	expiry time.Time // zero when the token does not expire
}

// cache is a single-slot store holding either the current header entry or
// the last fetch error. Reads never block on network I/O; the refresh
// loop is the only writer after construction.
type cache struct {
	mu  sync.RWMutex
	ent entry
	err error
}

// snapshot returns the current state. Exactly one of the results is
// meaningful: err != nil means the last fetch (or encoding) failed and
// the failure stays visible until the next successful replace.
func (c *cache) snapshot() (entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ent, c.err
}

// replace atomically swaps in a new state, success or failure.
func (c *cache) replace(ent entry, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ent = ent
	c.err = err
}
