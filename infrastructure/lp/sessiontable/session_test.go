package sessiontable

import (
	"testing"

	"kurupira/domain"
)

func testAddr(t *testing.T) domain.NetworkAddress {
	t.Helper()
	a, err := domain.ParseNetworkAddress("127.0.0.1:9000")
	if err != nil {
		t.Fatalf("ParseNetworkAddress: %v", err)
	}
	return a
}

func TestAcquireFreeThenClose(t *testing.T) {
	tbl := New(4, 100, 20, 40)
	session, ok := tbl.AcquireFree(domain.SessionConnecting, testAddr(t), nil)
	if !ok {
		t.Fatal("AcquireFree should succeed on an empty table")
	}
	if tbl.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", tbl.ActiveCount())
	}
	if got := tbl.State(session); got != domain.SessionConnecting {
		t.Fatalf("State = %v, want Connecting", got)
	}

	var closed uint8
	var sawClose bool
	tbl.With(session, func(s *Slot) {
		s.ResetTimeout(1)
	})
	_ = closed

	tbl.Close(session, func(i int) { sawClose = true; closed = uint8(i) })
	if !sawClose {
		t.Fatal("markInactive callback should fire on Close")
	}
	if tbl.ActiveCount() != 0 {
		t.Fatalf("ActiveCount after Close = %d, want 0", tbl.ActiveCount())
	}
	if got := tbl.State(session); got != domain.SessionClosed {
		t.Fatalf("State after Close = %v, want Closed", got)
	}
}

func TestAcquireFreeExhaustsCapacity(t *testing.T) {
	tbl := New(2, 100, 20, 40)
	if _, ok := tbl.AcquireFree(domain.SessionConnecting, testAddr(t), nil); !ok {
		t.Fatal("first AcquireFree should succeed")
	}
	if _, ok := tbl.AcquireFree(domain.SessionConnecting, testAddr(t), nil); !ok {
		t.Fatal("second AcquireFree should succeed")
	}
	if _, ok := tbl.AcquireFree(domain.SessionConnecting, testAddr(t), nil); ok {
		t.Fatal("third AcquireFree should fail: table is full")
	}
}

func TestTickTimeoutsClosesExpiredSlot(t *testing.T) {
	tbl := New(2, 100, 20, 1)
	session, _ := tbl.AcquireFree(domain.SessionEstablished, testAddr(t), nil)

	actions := tbl.TickTimeouts()
	if len(actions.CloseSessions) != 1 || actions.CloseSessions[0] != session {
		t.Fatalf("TickTimeouts should flag session %d for close, got %+v", session, actions)
	}
}

func TestTickSilenceSendsKeepAliveWhenEstablished(t *testing.T) {
	tbl := New(2, 100, 1, 40)
	session, _ := tbl.AcquireFree(domain.SessionEstablished, testAddr(t), nil)

	actions := tbl.TickSilence()
	if len(actions.SendKeepAlive) != 1 || actions.SendKeepAlive[0] != session {
		t.Fatalf("TickSilence should flag session %d for keep-alive, got %+v", session, actions)
	}
}

func TestResetTimeoutSkipsCloseWait(t *testing.T) {
	tbl := New(2, 100, 20, 40)
	session, _ := tbl.AcquireFree(domain.SessionCloseWait, testAddr(t), nil)

	tbl.With(session, func(s *Slot) { s.ResetTimeout(1) })
	tbl.ResetTimeout(session)

	actions := tbl.TickTimeouts()
	if len(actions.CloseSessions) != 1 {
		t.Fatalf("CLOSE_WAIT session should still time out since ResetTimeout skips it, got %+v", actions)
	}
}
