// Package nodecache implements C4, the Link Protocol's persistent set of
// known neighbor addresses (spec §3, §4.4). It is adapted from the
// teacher's session.DefaultRepository / ConcurrentRepository pair
// (infrastructure/tunnel/session in the teacher repo): a plain map-backed
// implementation wrapped by a mutex-guarded concurrent decorator, here
// generalized from "peer session by IP" lookups to "node record by
// address, with an active-index projection and sampling".
package nodecache

import (
	"crypto/rand"
	"math/big"
	"sync"

	"kurupira/domain"
)

// Entry is one node-cache record (spec §3).
type Entry struct {
	Addr    domain.NetworkAddress
	State   domain.NodeState
	Session int // valid iff State != NodeInactive
}

// Cache is an ordered, fixed-capacity sequence of node records with
// same-address uniqueness and an active-index projection (spec §3, §4.4).
type Cache struct {
	mu       sync.Mutex
	entries  []Entry
	byAddr   map[string]int // address string -> index into entries
	active   map[int]struct{} // indices currently NodeActive
	capacity int
}

// New creates an empty Cache with room for capacity entries.
func New(capacity int) *Cache {
	return &Cache{
		entries:  make([]Entry, 0, capacity),
		byAddr:   make(map[string]int, capacity),
		active:   make(map[int]struct{}),
		capacity: capacity,
	}
}

// Len returns the number of known addresses (any state).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ActiveCount returns the number of NodeActive entries.
func (c *Cache) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// FillFraction returns the fraction of capacity currently used, for the
// monitor thread's "cache fill < 50%" check (spec §4.4, §4.8).
func (c *Cache) FillFraction() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capacity == 0 {
		return 1
	}
	return float64(len(c.entries)) / float64(c.capacity)
}

// Add inserts addr if absent. If the cache is full, it overwrites the
// first inactive entry found; if none is inactive, the address is dropped.
// Adding an address already present is a no-op (spec §3, §4.4, property 10).
func (c *Cache) Add(addr domain.NetworkAddress) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(addr)
}

func (c *Cache) addLocked(addr domain.NetworkAddress) bool {
	key := addr.String()
	if _, exists := c.byAddr[key]; exists {
		return false
	}

	if len(c.entries) < c.capacity {
		idx := len(c.entries)
		c.entries = append(c.entries, Entry{Addr: addr, State: domain.NodeInactive})
		c.byAddr[key] = idx
		return true
	}

	for idx := range c.entries {
		if c.entries[idx].State == domain.NodeInactive {
			delete(c.byAddr, c.entries[idx].Addr.String())
			c.entries[idx] = Entry{Addr: addr, State: domain.NodeInactive}
			c.byAddr[key] = idx
			return true
		}
	}
	return false
}

// LookupSessionByAddress returns the session number recorded for addr, if
// any non-inactive entry exists for it.
func (c *Cache) LookupSessionByAddress(addr domain.NetworkAddress) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.byAddr[addr.String()]
	if !ok || c.entries[idx].State == domain.NodeInactive {
		return 0, false
	}
	return c.entries[idx].Session, true
}

// MarkActive marks addr's entry (adding it first if unknown) active with
// the given session number, and updates the active-index projection.
func (c *Cache) MarkActive(addr domain.NetworkAddress, session int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOrAddLocked(addr)
	c.entries[idx].State = domain.NodeActive
	c.entries[idx].Session = session
	c.active[idx] = struct{}{}
}

// MarkConnecting marks addr's entry connecting with the given session
// number (added first if unknown).
func (c *Cache) MarkConnecting(addr domain.NetworkAddress, session int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOrAddLocked(addr)
	c.entries[idx].State = domain.NodeConnecting
	c.entries[idx].Session = session
	delete(c.active, idx)
}

// MarkInactive marks the entry carrying the given session number inactive,
// removing it from the active-index projection.
func (c *Cache) MarkInactive(session int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for idx := range c.entries {
		if c.entries[idx].State != domain.NodeInactive && c.entries[idx].Session == session {
			c.entries[idx].State = domain.NodeInactive
			c.entries[idx].Session = 0
			delete(c.active, idx)
			return
		}
	}
}

func (c *Cache) indexOrAddLocked(addr domain.NetworkAddress) int {
	key := addr.String()
	if idx, ok := c.byAddr[key]; ok {
		return idx
	}
	c.addLocked(addr)
	return c.byAddr[key]
}

// RandomInactive returns a uniformly random inactive entry's address, if
// any exist.
func (c *Cache) RandomInactive() (domain.NetworkAddress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var inactive []domain.NetworkAddress
	for _, e := range c.entries {
		if e.State == domain.NodeInactive {
			inactive = append(inactive, e.Addr)
		}
	}
	if len(inactive) == 0 {
		return domain.NetworkAddress{}, false
	}
	idx, err := randomIndex(len(inactive))
	if err != nil {
		return inactive[0], true
	}
	return inactive[idx], true
}

// Sample returns up to n addresses, chosen starting from a cryptographically
// random offset into the cache (spec §4.4).
func (c *Cache) Sample(n int) []domain.NetworkAddress {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.entries)
	if total == 0 {
		return nil
	}
	if n > total {
		n = total
	}

	offset, err := randomIndex(total)
	if err != nil {
		offset = 0
	}

	out := make([]domain.NetworkAddress, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, c.entries[(offset+i)%total].Addr)
	}
	return out
}

// All returns every known address, for the shutdown flush (spec §4.4, §6).
func (c *Cache) All() []domain.NetworkAddress {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.NetworkAddress, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Addr
	}
	return out
}

// Snapshot returns a copy of every node record, for the "nodes" console
// command (spec §4.4, SPEC_FULL §4).
func (c *Cache) Snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// ActiveSessions returns the session numbers of every NodeActive entry.
func (c *Cache) ActiveSessions() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.active))
	for idx := range c.active {
		out = append(out, c.entries[idx].Session)
	}
	return out
}

func randomIndex(n int) (int, error) {
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
