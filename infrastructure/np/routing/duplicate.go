package routing

import "sync"

// dupSlot is one direct-indexed duplicate-suppression record.
type dupSlot struct {
	used    bool
	hash    uint32
	session uint8
}

// DuplicateTable is NP's best-effort replay/duplicate filter (spec §4.10,
// §4.13 step 2): a single slot per low-4-bytes-of-hash index, with no
// probing. A hash collision (two different contents landing on the same
// index) simply overwrites the slot; only a hash match on the occupied
// slot is reported as a duplicate.
type DuplicateTable struct {
	mu    sync.Mutex
	slots []dupSlot
}

// NewDuplicateTable allocates a DuplicateTable with the given slot count
// (spec constant DuplicateTableSize).
func NewDuplicateTable(size int) *DuplicateTable {
	return &DuplicateTable{slots: make([]dupSlot, size)}
}

// Insert records hash as arriving on session. If the same hash already
// occupies this index, it returns the session recorded for that earlier
// arrival and true (the router then drops the packet as a duplicate,
// spec §4.13 step 2); otherwise it overwrites the slot and returns false.
func (d *DuplicateTable) Insert(hash uint32, session uint8) (lastSession uint8, isDuplicate bool) {
	idx := int(hash) % len(d.slots)

	d.mu.Lock()
	defer d.mu.Unlock()

	s := &d.slots[idx]
	if s.used && s.hash == hash {
		return s.session, true
	}
	s.used, s.hash, s.session = true, hash, session
	return 0, false
}
