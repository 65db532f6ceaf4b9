package keystore

import (
	"testing"

	"kurupira/domain"
)

func peer(b byte) domain.PeerID {
	var id domain.PeerID
	id[0] = b
	return id
}

func TestNewThenDeleteReturnsSlotToFreeList(t *testing.T) {
	s := New(2)

	i1, err := s.New(peer(1), domain.HSConnecting)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.New(peer(2), domain.HSConnecting); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.New(peer(3), domain.HSConnecting); err != ErrStoreFull {
		t.Fatalf("expected ErrStoreFull, got %v", err)
	}

	s.Delete(i1)

	i3, err := s.New(peer(3), domain.HSConnecting)
	if err != nil {
		t.Fatalf("New after Delete: %v", err)
	}
	if i3 != i1 {
		t.Fatalf("expected reclaimed slot %d, got %d", i1, i3)
	}
}

func TestLookupFindsAllocatedSlot(t *testing.T) {
	s := New(4)
	p := peer(7)
	i, err := s.New(p, domain.HSConnecting)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, ok := s.Lookup(p)
	if !ok || got != i {
		t.Fatalf("Lookup(%v) = (%d, %v), want (%d, true)", p, got, ok, i)
	}

	s.Delete(i)
	if _, ok := s.Lookup(p); ok {
		t.Fatal("Lookup should fail after Delete")
	}
}

func TestWithMutatesSlotInPlace(t *testing.T) {
	s := New(1)
	i, _ := s.New(peer(9), domain.HSConnecting)

	s.With(i, func(e *Entry) {
		e.kOut = []byte{1, 2, 3}
		e.state = domain.HSBeingConnected
	})

	if s.State(i) != domain.HSBeingConnected {
		t.Fatalf("State = %v, want HSBeingConnected", s.State(i))
	}
	var got []byte
	s.With(i, func(e *Entry) { got = e.KOut() })
	if len(got) != 3 {
		t.Fatalf("KOut lost across With calls: %v", got)
	}
}

func TestCloseOnUnallocatedSlotIsNoop(t *testing.T) {
	s := New(2)
	s.Close(0)
	i, err := s.New(peer(1), domain.HSConnecting)
	if err != nil || i != 0 {
		t.Fatalf("New after no-op Close: (%d, %v)", i, err)
	}
}
