package routing

import (
	"encoding/binary"
	"sync"

	"kurupira/domain"
)

// Entry is one routing-table slot: a peer ID, its recently-seen-session
// history, and the condvar handshake initiators wait on (spec §4.10,
// §4.12 step 1). Payload mutations and the condvar are guarded by mu;
// structural presence (used) is also guarded by mu so a concurrent delete
// is always observed consistently by a holder of this lock.
type Entry struct {
	mu         sync.Mutex
	cond       *sync.Cond
	used       bool
	id         domain.PeerID
	storeIndex int
	hasStore   bool
	history    historyRing
}

func newEntry(historySize int) *Entry {
	e := &Entry{history: newHistoryRing(historySize)}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Lock acquires the entry's mutex. Callers obtained the entry via Table's
// Lookup/InsertIfAbsent under the table mutex; between that call and this
// one a concurrent Remove may have run, so callers must check Used() after
// locking (spec §5 locking discipline).
func (e *Entry) Lock()   { e.mu.Lock() }
func (e *Entry) Unlock() { e.mu.Unlock() }

// Used reports whether this slot still holds a live routing entry. Must be
// called with the entry locked.
func (e *Entry) Used() bool { return e.used }

// ID returns the peer ID this entry is for. Must be called with the entry
// locked.
func (e *Entry) ID() domain.PeerID { return e.id }

// Insert records session in this entry's history (spec §4.10 "insert").
// Must be called with the entry locked.
func (e *Entry) Insert(session uint8) { e.history.insert(session) }

// PickRoute chooses a next-hop session from this entry's history (spec
// §4.10 "pick_route"). Must be called with the entry locked.
func (e *Entry) PickRoute(exclude uint8, hasExclude bool, isActive func(uint8) bool) (uint8, bool) {
	return e.history.pickRoute(exclude, hasExclude, isActive)
}

// DropSession purges session from this entry's history (spec §4.10
// "drop_session"). Must be called with the entry locked.
func (e *Entry) DropSession(session uint8) { e.history.dropSession(session) }

// History returns a snapshot of this entry's recently-seen-session ring,
// oldest first, for the "route" console command (spec §4.10, SPEC_FULL §4).
// Must be called with the entry locked.
func (e *Entry) History() []uint8 { return e.history.entries() }

// HasHistory reports whether this entry's history currently holds at least
// one session (sessions found dead are dropped from it), used to pick unicast-vs-broadcast delivery for a locally
// originated packet (spec §4.12 step 1, §4.13 "unicast if a routing-history
// exists... broadcast otherwise"). Must be called with the entry locked.
func (e *Entry) HasHistory() bool { return e.history.count > 0 }

// StoreIndex returns this entry's NP key-store slot index, if one has been
// allocated (spec §3 "store_index (index into NP key store, or NULL)").
// Must be called with the entry locked.
func (e *Entry) StoreIndex() (int, bool) { return e.storeIndex, e.hasStore }

// SetStoreIndex records the key-store slot backing this routing entry, or
// clears it when ok is false. Must be called with the entry locked.
func (e *Entry) SetStoreIndex(index int, ok bool) {
	e.storeIndex, e.hasStore = index, ok
}

// Wait blocks on the entry's condvar; the caller must hold the lock, and
// it is re-acquired on return (standard sync.Cond contract). Used by NP
// handshake initiators (spec §4.12 step 1).
func (e *Entry) Wait() { e.cond.Wait() }

// Broadcast wakes every waiter on this entry's condvar. Must be called
// with the entry locked.
func (e *Entry) Broadcast() { e.cond.Broadcast() }

// Table is the fixed-size open-addressed hash table of routing entries
// (spec §4.10). Structural mutations (Lookup's probe, InsertIfAbsent,
// Remove) are guarded by mu; per-entry payload mutations use the entry's
// own mutex, acquired only after releasing mu (spec §5 locking discipline).
type Table struct {
	mu    sync.Mutex
	slots []*Entry
	size  int
}

// New allocates a Table with the given slot count and per-entry history
// capacity. size must leave at least one slot permanently free so every
// probe terminates (spec §4.10).
func New(size, historySize int) *Table {
	t := &Table{slots: make([]*Entry, size), size: size}
	for i := range t.slots {
		t.slots[i] = newEntry(historySize)
	}
	return t
}

func hashIndex(id domain.PeerID, size int) int {
	h := binary.BigEndian.Uint32(id[:4])
	return int(h) % size
}

// Lookup probes for id starting at its hash index and returns the entry
// and index if found. The table mutex is released before returning; the
// caller must Lock() the entry and re-check Used() (spec §5).
func (t *Table) Lookup(id domain.PeerID) (*Entry, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(id)
}

func (t *Table) lookupLocked(id domain.PeerID) (*Entry, int, bool) {
	start := hashIndex(id, t.size)
	for probe := 0; probe < t.size; probe++ {
		idx := (start + probe) % t.size
		e := t.slots[idx]
		e.mu.Lock()
		used, slotID := e.used, e.id
		e.mu.Unlock()
		if !used {
			return nil, 0, false
		}
		if slotID == id {
			return e, idx, true
		}
	}
	return nil, 0, false
}

// InsertIfAbsent returns the existing entry for id, or claims the first
// free slot on id's probe sequence and returns the new entry (spec §4.10,
// §4.13 step 3 "creating a routing entry for the source ID if new").
func (t *Table) InsertIfAbsent(id domain.PeerID) (*Entry, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, idx, ok := t.lookupLocked(id); ok {
		return e, idx, nil
	}

	start := hashIndex(id, t.size)
	for probe := 0; probe < t.size; probe++ {
		idx := (start + probe) % t.size
		e := t.slots[idx]
		e.mu.Lock()
		if !e.used {
			e.used = true
			e.id = id
			e.history.clear()
			e.mu.Unlock()
			return e, idx, nil
		}
		e.mu.Unlock()
	}
	return nil, 0, ErrTableFull
}

// Remove deletes the entry at index, performing Knuth's open-addressing
// back-shift so later probe chains remain reachable (spec §4.10
// "Deletion does Knuth's back-shift").
func (t *Table) Remove(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearSlot(index)

	i := index
	j := index
	for {
		j = (j + 1) % t.size
		e := t.slots[j]
		e.mu.Lock()
		used := e.used
		if !used {
			e.mu.Unlock()
			return
		}
		k := hashIndex(e.id, t.size)
		e.mu.Unlock()

		if probeWraps(i, k, j) {
			continue
		}
		t.moveSlot(i, j)
		i = j
	}
}

func (t *Table) clearSlot(idx int) {
	e := t.slots[idx]
	e.mu.Lock()
	e.used = false
	e.id = domain.PeerID{}
	e.storeIndex, e.hasStore = 0, false
	e.history.clear()
	e.mu.Unlock()
}

func (t *Table) moveSlot(dst, src int) {
	d, s := t.slots[dst], t.slots[src]
	s.mu.Lock()
	id := s.id
	hist := s.history
	storeIndex, hasStore := s.storeIndex, s.hasStore
	s.used = false
	s.id = domain.PeerID{}
	s.storeIndex, s.hasStore = 0, false
	s.history.clear()
	s.mu.Unlock()

	d.mu.Lock()
	d.used = true
	d.id = id
	d.history = hist
	d.storeIndex, d.hasStore = storeIndex, hasStore
	d.mu.Unlock()
}

// Peers returns the peer IDs of every currently-used routing entry, for the
// "peers" console command (SPEC_FULL §4). The snapshot is taken under the
// table mutex but entries may be concurrently removed after it returns.
func (t *Table) Peers() []domain.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.PeerID, 0, t.size)
	for _, e := range t.slots {
		e.mu.Lock()
		if e.used {
			out = append(out, e.id)
		}
		e.mu.Unlock()
	}
	return out
}

// probeWraps reports whether k (the home slot of the candidate at j) lies
// after i and at or before j in the cyclic probe order, meaning its probe
// sequence does not pass back through the gap at i and it must stay put
// (the standard Knuth deletion condition).
func probeWraps(i, k, j int) bool {
	if i <= j {
		return k > i && k <= j
	}
	return k > i || k <= j
}
