package scheduler

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/logging"
	"kurupira/infrastructure/lp/handshake"
	"kurupira/infrastructure/lp/nodecache"
	"kurupira/infrastructure/lp/sessiontable"
	"kurupira/infrastructure/queue"
)

// fakeConn is an in-memory application.UDPConn: writes to it are captured,
// and a test can push bytes for the listen loop to read back via deliver.
type fakeConn struct {
	mu      sync.Mutex
	inbox   chan packet
	sent    []packet
	closed  bool
}

type packet struct {
	data []byte
	addr netip.AddrPort
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbox: make(chan packet, 32)}
}

func (f *fakeConn) ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error) {
	p, ok := <-f.inbox
	if !ok {
		return 0, netip.AddrPort{}, errClosedConn
	}
	n := copy(b, p.data)
	return n, p.addr, nil
}

func (f *fakeConn) WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error) {
	f.mu.Lock()
	cp := append([]byte(nil), b...)
	f.sent = append(f.sent, packet{data: cp, addr: addr})
	f.mu.Unlock()
	return len(b), nil
}

func (f *fakeConn) SetReadBuffer(int) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbox)
	}
	return nil
}

func (f *fakeConn) deliver(data []byte, from netip.AddrPort) {
	f.inbox <- packet{data: data, addr: from}
}

func (f *fakeConn) lastSent() (packet, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return packet{}, false
	}
	return f.sent[len(f.sent)-1], true
}

type staticErr string

func (e staticErr) Error() string { return string(e) }

const errClosedConn = staticErr("fakeConn closed")

func newTestScheduler(t *testing.T, conn *fakeConn) *Scheduler {
	t.Helper()
	cfg := config.DefaultLP()
	sessions := sessiontable.New(config.MaxSessions, 10000, config.TSilentTicks, config.TTimeoutTicks)
	cache := nodecache.New(config.MaxSessions)
	registry := cryptoregistry.NewRegistry()
	hs := handshake.NewEngine(sessions, cache, registry, cfg)
	upward := queue.New[uint8](16)
	return New(conn, sessions, cache, hs, upward, cfg, logging.NewStdLogger())
}

// TestConnectionRequestProducesConnectionOK exercises the listen loop's
// dispatch of a single inbound CONNECTION_REQUEST (spec §4.8, §4.6 step 2).
func TestConnectionRequestProducesConnectionOK(t *testing.T) {
	responderConn := newFakeConn()
	responder := newTestScheduler(t, responderConn)

	initiatorAddr := netip.MustParseAddrPort("10.0.0.9:2357")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- responder.Run(ctx) }()

	req := handshake.ConnectionRequest{
		Major:            handshake.VersionMajor,
		Minor:            handshake.VersionMinor,
		InitiatorSession: 0,
		CipherList:       "blowfish-cbc",
		HashList:         "sha1",
		MACList:          "sha1-mac",
	}
	encoded, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	responderConn.deliver(encoded, initiatorAddr)

	deadline := time.After(2 * time.Second)
	for {
		if p, ok := responderConn.lastSent(); ok {
			if domain.LPPacketType(p.data[0]) == domain.LPConnectionOK {
				break
			}
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for CONNECTION_OK")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
