package nodecache

import (
	"os"
	"path/filepath"
	"testing"

	"kurupira/domain"
)

func addr(t *testing.T, s string) domain.NetworkAddress {
	t.Helper()
	a, err := domain.ParseNetworkAddress(s)
	if err != nil {
		t.Fatalf("ParseNetworkAddress(%q): %v", s, err)
	}
	return a
}

func TestAddIsIdempotent(t *testing.T) {
	c := New(4)
	a := addr(t, "127.0.0.1:9000")
	if !c.Add(a) {
		t.Fatal("first Add should report insertion")
	}
	if c.Add(a) {
		t.Fatal("second Add of same address should be a no-op")
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestAddOverwritesInactiveWhenFull(t *testing.T) {
	c := New(2)
	a1 := addr(t, "127.0.0.1:9001")
	a2 := addr(t, "127.0.0.1:9002")
	a3 := addr(t, "127.0.0.1:9003")

	c.Add(a1)
	c.Add(a2)
	c.MarkActive(a2, 5)

	if !c.Add(a3) {
		t.Fatal("Add should overwrite the one inactive slot")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (capacity-bound)", c.Len())
	}
	if _, ok := c.LookupSessionByAddress(a2); !ok {
		t.Fatal("active entry must survive the overwrite")
	}
}

func TestMarkActiveThenInactiveRoundTrip(t *testing.T) {
	c := New(4)
	a := addr(t, "127.0.0.1:9100")
	c.MarkActive(a, 3)

	session, ok := c.LookupSessionByAddress(a)
	if !ok || session != 3 {
		t.Fatalf("LookupSessionByAddress = (%d, %v), want (3, true)", session, ok)
	}
	if c.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", c.ActiveCount())
	}

	c.MarkInactive(3)
	if _, ok := c.LookupSessionByAddress(a); ok {
		t.Fatal("inactive entry must not resolve a session")
	}
	if c.ActiveCount() != 0 {
		t.Fatalf("ActiveCount after MarkInactive = %d, want 0", c.ActiveCount())
	}
}

func TestSampleNeverExceedsRequestOrPopulation(t *testing.T) {
	c := New(8)
	for i := 0; i < 3; i++ {
		c.Add(addr(t, "127.0.0.1:910"+string(rune('0'+i))))
	}
	if got := len(c.Sample(10)); got != 3 {
		t.Fatalf("Sample(10) returned %d entries, want 3", got)
	}
	if got := len(c.Sample(0)); got != 0 {
		t.Fatalf("Sample(0) returned %d entries, want 0", got)
	}
}

func TestLoadFileAndFlushRoundTrip(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "static.txt")
	if err := os.WriteFile(seed, []byte("# comment\n127.0.0.1:9001\n\n127.0.0.1:9002\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := New(4)
	added, err := c.LoadFile(seed)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if added != 2 {
		t.Fatalf("LoadFile added %d entries, want 2", added)
	}

	out := filepath.Join(dir, "recent.txt")
	if err := c.Flush(out); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	c2 := New(4)
	added2, err := c2.LoadFile(out)
	if err != nil {
		t.Fatalf("LoadFile(flushed): %v", err)
	}
	if added2 != 2 {
		t.Fatalf("reloaded cache has %d entries, want 2", added2)
	}
}
