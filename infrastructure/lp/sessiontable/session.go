// Package sessiontable implements C5, the Link Protocol's fixed array of
// neighbor-session slots and their state machine (spec §4.5). It is
// adapted from the teacher's infrastructure/tunnel/session.DefaultWorker
// bundle and infrastructure/routing/server_routing/session_management
// manager: a preallocated slab of slots, one mutex per slot, scanned with
// TryLock to find free capacity — here generalized from "one worker
// session per client" to the full LP lifecycle state machine (spec §4.5
// transition table).
package sessiontable

import (
	"sync"
	"sync/atomic"

	"kurupira/domain"
	"kurupira/infrastructure/cryptoregistry"
)

// KeyMaterial holds one direction's derived cipher/IV/MAC keys for a
// session (spec §4.6 step "derives six directional keys").
type KeyMaterial struct {
	Cipher cryptoregistry.Cipher
	Hash   cryptoregistry.Hash
	MAC    cryptoregistry.MAC
	Key    []byte
	IV     []byte
	MACKey []byte
}

// Slot is one LP session record (spec §4.5, §4.6, §4.7).
type Slot struct {
	mu sync.Mutex

	state   domain.SessionState
	addr    domain.NetworkAddress
	session uint8 // this slot's own session number (index, cached for convenience)
	foreign uint8 // the peer's session number for this link

	in  KeyMaterial
	out KeyMaterial

	verifier []byte // HASH(z), used to authenticate CLOSE_REQUEST/CLOSE_OK

	hIn, hOut []byte // handshake nonces, retained until the slot is closed
	x           []byte // our DH private exponent, retained during handshake

	pendingCipher cryptoregistry.Cipher // negotiated but not yet derived (responder path)
	pendingHash   cryptoregistry.Hash
	pendingMAC    cryptoregistry.MAC

	timeout int // ticks remaining before the session is declared dead
	silence int // ticks since last traffic received
	alive   int // ticks since the session was established

	lastHuntTick int64 // tick at which we last sent NODE_HUNT, for HUNT_RESULT admission

	packetsReceived uint64
	packetsSent     uint64

	onClose func(session uint8)
}

// Table is the fixed array of LLP_MAX_SESSIONS slots (spec §4.5).
type Table struct {
	slots       []Slot
	expiration  int // ticks (expiration_time / tick) after which alive triggers graceful disconnect
	tSilent     int
	tTimeout    int
	activeCount int64 // atomic: approximate count of non-CLOSED slots
}

// New allocates a Table with the given capacity (spec constant
// LLP_MAX_SESSIONS, config.MaxSessions) and timer thresholds expressed in
// ticks.
func New(capacity int, expirationTicks, tSilentTicks, tTimeoutTicks int) *Table {
	return &Table{
		slots:      make([]Slot, capacity),
		expiration: expirationTicks,
		tSilent:    tSilentTicks,
		tTimeout:   tTimeoutTicks,
	}
}

// Len is the table's fixed capacity.
func (t *Table) Len() int { return len(t.slots) }

// ActiveCount returns the approximate number of non-CLOSED slots.
func (t *Table) ActiveCount() int { return int(atomic.LoadInt64(&t.activeCount)) }

// EstablishedSessions returns the session numbers currently ESTABLISHED,
// for the Network Protocol's broadcast-fallback forwarding (spec §4.13
// step 6) and the "status" console command.
func (t *Table) EstablishedSessions() []uint8 {
	out := make([]uint8, 0, len(t.slots))
	for i := range t.slots {
		s := &t.slots[i]
		s.mu.Lock()
		if s.state == domain.SessionEstablished {
			out = append(out, uint8(i))
		}
		s.mu.Unlock()
	}
	return out
}

// AcquireFree scans the table with TryLock, looking for a CLOSED slot; it
// claims the first one found, sets its state to targetState, and resets
// its counters (spec §4.5 "acquire_free").
func (t *Table) AcquireFree(targetState domain.SessionState, addr domain.NetworkAddress, onClose func(uint8)) (uint8, bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.mu.TryLock() {
			continue
		}
		if s.state != domain.SessionClosed {
			s.mu.Unlock()
			continue
		}
		s.state = targetState
		s.addr = addr
		s.session = uint8(i)
		s.timeout = t.tTimeout
		s.silence = 0
		s.alive = 0
		s.packetsReceived = 0
		s.packetsSent = 0
		s.onClose = onClose
		s.mu.Unlock()
		atomic.AddInt64(&t.activeCount, 1)
		return uint8(i), true
	}
	return 0, false
}

// With locks the slot for session and runs fn against it, returning true;
// it returns false without calling fn if the session number is out of
// range.
func (t *Table) With(session uint8, fn func(*Slot)) bool {
	if int(session) >= len(t.slots) {
		return false
	}
	s := &t.slots[session]
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
	return true
}

// State returns the current state of session, or SessionClosed if out of
// range.
func (t *Table) State(session uint8) domain.SessionState {
	if int(session) >= len(t.slots) {
		return domain.SessionClosed
	}
	s := &t.slots[session]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close frees a slot's key material, clears its verifier, resets state to
// CLOSED, calls markInactive on the node cache, and invokes the registered
// close callback (spec §4.5 "close").
func (t *Table) Close(session uint8, markInactive func(session int)) {
	if int(session) >= len(t.slots) {
		return
	}
	s := &t.slots[session]
	s.mu.Lock()
	wasClosed := s.state == domain.SessionClosed
	cb := s.onClose
	s.state = domain.SessionClosed
	s.in = KeyMaterial{}
	s.out = KeyMaterial{}
	s.verifier = nil
	s.hIn, s.hOut, s.x = nil, nil, nil
	s.onClose = nil
	s.mu.Unlock()

	if !wasClosed {
		atomic.AddInt64(&t.activeCount, -1)
		if markInactive != nil {
			markInactive(int(session))
		}
		if cb != nil {
			cb(session)
		}
	}
}
