// Package routing implements C10, the Network Protocol's routing table: an
// open-addressed hash table of PeerID -> recently-seen-LP-session history,
// plus a best-effort duplicate-suppression table (spec §4.10). The
// open-addressing shape with per-entry locking is adapted from the
// teacher's infrastructure/routing/server_routing/session_management
// manager, which keeps one mutex-guarded map entry per client; here
// generalized to a fixed-capacity probed table so routing entries never
// need heap-allocated map buckets, and to a ring-buffer history instead of
// a single last-seen session.
package routing

import (
	"crypto/rand"
	"math/big"
)

// historyRing is a fixed-capacity, oldest-drop ring buffer of LP session
// numbers a peer's traffic has recently arrived on (spec §4.10).
type historyRing struct {
	sessions []uint8
	begin    int
	count    int
}

func newHistoryRing(capacity int) historyRing {
	return historyRing{sessions: make([]uint8, capacity)}
}

// insert appends session, dropping the oldest entry if the ring is full
// (spec §4.10 "insert").
func (h *historyRing) insert(session uint8) {
	capacity := len(h.sessions)
	if capacity == 0 {
		return
	}
	idx := (h.begin + h.count) % capacity
	if h.count < capacity {
		h.sessions[idx] = session
		h.count++
	} else {
		h.sessions[h.begin] = session
		h.begin = (h.begin + 1) % capacity
	}
}

// dropSession removes every occurrence of session from the ring, shifting
// remaining entries down to keep them contiguous (spec §4.10
// "drop_session").
func (h *historyRing) dropSession(session uint8) {
	kept := h.sessions[:0:0]
	for i := 0; i < h.count; i++ {
		s := h.sessions[(h.begin+i)%len(h.sessions)]
		if s != session {
			kept = append(kept, s)
		}
	}
	h.begin = 0
	h.count = copy(h.sessions, kept)
}

// clear empties the ring (spec §4.10 "clear").
func (h *historyRing) clear() {
	h.begin, h.count = 0, 0
}

// entries returns a snapshot of the ring's current contents, oldest first.
func (h *historyRing) entries() []uint8 {
	out := make([]uint8, h.count)
	for i := range out {
		out[i] = h.sessions[(h.begin+i)%len(h.sessions)]
	}
	return out
}

// pickRoute chooses uniformly at random among history entries not equal to
// exclude and for which isActive returns true; a picked-but-dead session is
// purged from the history and the pick retried (spec §4.10 "pick_route").
func (h *historyRing) pickRoute(exclude uint8, hasExclude bool, isActive func(uint8) bool) (uint8, bool) {
	for {
		candidates := make([]uint8, 0, h.count)
		seen := make(map[uint8]bool, h.count)
		for _, s := range h.entries() {
			if hasExclude && s == exclude {
				continue
			}
			if seen[s] {
				continue
			}
			seen[s] = true
			candidates = append(candidates, s)
		}
		if len(candidates) == 0 {
			return 0, false
		}

		idx, err := randIndex(len(candidates))
		if err != nil {
			idx = 0
		}
		pick := candidates[idx]
		if isActive(pick) {
			return pick, true
		}
		h.dropSession(pick)
	}
}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
