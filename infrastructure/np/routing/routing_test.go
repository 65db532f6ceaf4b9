package routing

import (
	"testing"

	"kurupira/domain"
)

func peerID(b byte) domain.PeerID {
	var id domain.PeerID
	id[0] = b
	return id
}

func TestInsertIfAbsentThenLookup(t *testing.T) {
	tbl := New(16, 4)
	id := peerID(1)

	e1, idx1, err := tbl.InsertIfAbsent(id)
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}

	e2, idx2, ok := tbl.Lookup(id)
	if !ok {
		t.Fatal("Lookup should find the inserted entry")
	}
	if e1 != e2 || idx1 != idx2 {
		t.Fatal("Lookup should return the same entry InsertIfAbsent created")
	}
}

func TestRemoveThenLookupFails(t *testing.T) {
	tbl := New(16, 4)
	id := peerID(2)
	_, idx, err := tbl.InsertIfAbsent(id)
	if err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	tbl.Remove(idx)

	if _, _, ok := tbl.Lookup(id); ok {
		t.Fatal("Lookup should fail after Remove")
	}
}

func TestRemovePreservesLaterProbeChain(t *testing.T) {
	// Both idA and idB hash to index 0 in this size-2 table (their fourth
	// byte, which determines hashIndex mod 2, is even for both). idA
	// claims slot 0; idB probes to slot 1. Removing idA must shift idB
	// back into slot 0 so idB stays reachable by its own hash (spec
	// §4.10 Knuth back-shift).
	tbl := New(2, 4)
	idA := peerID(0)
	idB := peerID(1)

	if hashIndex(idA, 2) != hashIndex(idB, 2) {
		t.Fatalf("test fixture assumption broken: idA and idB must share a hash bucket")
	}

	_, idxA, err := tbl.InsertIfAbsent(idA)
	if err != nil {
		t.Fatalf("InsertIfAbsent(A): %v", err)
	}
	_, idxB, err := tbl.InsertIfAbsent(idB)
	if err != nil {
		t.Fatalf("InsertIfAbsent(B): %v", err)
	}
	if idxA == idxB {
		t.Fatalf("idA and idB must land in different slots to exercise back-shift")
	}

	tbl.Remove(idxA)

	if _, _, ok := tbl.Lookup(idB); !ok {
		t.Fatal("idB must remain reachable after removing idA (Knuth back-shift)")
	}
}

func TestRemovePreservesTwoHopProbeChain(t *testing.T) {
	// idA, idB, idC all hash to slot 0 in this size-3 table and are
	// stored at slots 0/1/2 respectively (insertion order). Removing
	// idA must back-shift idB into slot 0 and idC into slot 1 without
	// ever treating a still-occupied slot as the hole, or idC is
	// silently overwritten and lost (spec §4.10 Knuth back-shift,
	// Testable Properties 3/4).
	tbl := New(3, 4)
	idA := peerID(0)
	idB := peerID(3)
	idC := peerID(6)

	if hashIndex(idA, 3) != 0 || hashIndex(idB, 3) != 0 || hashIndex(idC, 3) != 0 {
		t.Fatalf("test fixture assumption broken: idA, idB, idC must all hash to slot 0")
	}

	_, idxA, err := tbl.InsertIfAbsent(idA)
	if err != nil {
		t.Fatalf("InsertIfAbsent(A): %v", err)
	}
	_, idxB, err := tbl.InsertIfAbsent(idB)
	if err != nil {
		t.Fatalf("InsertIfAbsent(B): %v", err)
	}
	_, idxC, err := tbl.InsertIfAbsent(idC)
	if err != nil {
		t.Fatalf("InsertIfAbsent(C): %v", err)
	}
	if idxA != 0 || idxB != 1 || idxC != 2 {
		t.Fatalf("test fixture assumption broken: want slots 0/1/2, got %d/%d/%d", idxA, idxB, idxC)
	}

	tbl.Remove(idxA)

	if _, _, ok := tbl.Lookup(idB); !ok {
		t.Fatal("idB must remain reachable after removing idA")
	}
	if _, _, ok := tbl.Lookup(idC); !ok {
		t.Fatal("idC must remain reachable after removing idA (must not be overwritten by a stale hole index)")
	}
}

func TestHistoryPickRouteExcludesArrivalSession(t *testing.T) {
	h := newHistoryRing(4)
	h.insert(1)
	h.insert(2)
	h.insert(3)

	for i := 0; i < 20; i++ {
		pick, ok := h.pickRoute(2, true, func(uint8) bool { return true })
		if !ok {
			t.Fatal("pickRoute should find a candidate")
		}
		if pick == 2 {
			t.Fatal("pickRoute must never return the excluded session")
		}
	}
}

func TestHistoryPickRouteDropsDeadSessions(t *testing.T) {
	h := newHistoryRing(4)
	h.insert(5)

	pick, ok := h.pickRoute(0, false, func(uint8) bool { return false })
	if ok {
		t.Fatalf("pickRoute should fail when the only candidate is dead, got %d", pick)
	}
	if got := h.entries(); len(got) != 0 {
		t.Fatalf("dead session should have been purged from history, got %v", got)
	}
}

func TestDuplicateTableDetectsRepeat(t *testing.T) {
	d := NewDuplicateTable(8)
	if _, dup := d.Insert(42, 1); dup {
		t.Fatal("first insert of a hash must not be reported as duplicate")
	}
	if last, dup := d.Insert(42, 2); !dup || last != 1 {
		t.Fatalf("second insert of the same hash should report duplicate with session 1, got (%d, %v)", last, dup)
	}
}
