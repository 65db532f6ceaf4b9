// Package keystore implements C11, the Network Protocol's key store: a
// fixed-size slab of handshake/key-material slots with a free list threaded
// through each slot's next-free index (spec §4.11). The shape mirrors the
// teacher's infrastructure/cryptography arena sizing discipline and the
// Link Protocol's sessiontable.Table, generalized from "index slots by
// address" to "index slots by an explicit free list" because key-store
// slots are allocated and freed in handshake order rather than scanned for
// a free one.
package keystore

import (
	"crypto/rsa"
	"sync"

	"kurupira/domain"
	"kurupira/infrastructure/cryptoregistry"
)

// KeyMaterial is one direction's negotiated cipher/hash/MAC descriptors and
// derived secrets, mirroring sessiontable.KeyMaterial but for NP's
// independently-negotiated end-to-end algorithms (spec §4.11, §4.12).
type KeyMaterial struct {
	Cipher cryptoregistry.Cipher
	Hash   cryptoregistry.Hash
	MAC    cryptoregistry.MAC
	Key    []byte
	IV     []byte
	MACKey []byte
}

// Entry is one key-store slot: the remote peer's identity and public key,
// the handshake state, the raw k_in/k_out halves exchanged during the
// handshake, and the derived directional key material once CONNECTED
// (spec §4.11, §4.12).
type Entry struct {
	state      domain.HandshakeState
	peer       domain.PeerID
	peerKey    *rsa.PublicKey
	peerKeyDER []byte
	kIn        []byte
	kOut       []byte
	in         KeyMaterial
	out        KeyMaterial
	nextFree   int
}

func (e *Entry) reset() {
	e.state = domain.HSClosed
	e.peer = domain.PeerID{}
	e.peerKey = nil
	e.peerKeyDER = nil
	e.kIn = nil
	e.kOut = nil
	e.in = KeyMaterial{}
	e.out = KeyMaterial{}
}

// State returns the slot's handshake state.
func (e *Entry) State() domain.HandshakeState { return e.state }

// Peer returns the remote peer ID this slot is negotiating or connected to.
func (e *Entry) Peer() domain.PeerID { return e.peer }

// PeerKey returns the remote peer's RSA public key, set once received.
func (e *Entry) PeerKey() *rsa.PublicKey { return e.peerKey }

// PeerKeyDER returns the remote peer's public key DER bytes, set once
// received. Kept alongside the parsed PeerKey because key derivation
// salts on the raw encoded bytes, not on the parsed key (spec §4.2,
// §4.12).
func (e *Entry) PeerKeyDER() []byte { return e.peerKeyDER }

// In returns the inbound directional key material, valid once CONNECTED.
func (e *Entry) In() KeyMaterial { return e.in }

// Out returns the outbound directional key material, valid once CONNECTED.
func (e *Entry) Out() KeyMaterial { return e.out }

// KOut returns this side's random k_out half, generated at allocation time.
func (e *Entry) KOut() []byte { return e.kOut }

// KIn returns the remote side's k half, recorded as k_in once received.
func (e *Entry) KIn() []byte { return e.kIn }

const noFreeSlot = -1

// Store is the fixed-size key-material slab (spec §4.11). A single mutex
// guards both the free list and every slot's fields: slots are mutated only
// during the brief handshake steps or teardown, never held locked across a
// blocking wait (the caller blocks on the routing table's per-entry condvar
// instead, per spec §5).
type Store struct {
	mu       sync.Mutex
	slots    []Entry
	index    map[domain.PeerID]int
	freeHead int
}

// New allocates a Store with the given slot count (spec config
// key_store_size).
func New(size int) *Store {
	s := &Store{
		slots:    make([]Entry, size),
		index:    make(map[domain.PeerID]int, size),
		freeHead: 0,
	}
	for i := range s.slots {
		s.slots[i].nextFree = i + 1
	}
	if size > 0 {
		s.slots[size-1].nextFree = noFreeSlot
	} else {
		s.freeHead = noFreeSlot
	}
	return s
}

// Len returns the slot capacity.
func (s *Store) Len() int { return len(s.slots) }

// Lookup returns the slot index currently allocated to peer, if any.
func (s *Store) Lookup(peer domain.PeerID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[peer]
	return i, ok
}

// New pops a slot off the free list, associates it with peer, and sets its
// state (spec §4.11 "new() pops head"). Returns ErrStoreFull if every slot
// is in use.
func (s *Store) New(peer domain.PeerID, state domain.HandshakeState) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.freeHead == noFreeSlot {
		return 0, ErrStoreFull
	}
	i := s.freeHead
	e := &s.slots[i]
	s.freeHead = e.nextFree

	e.reset()
	e.state = state
	e.peer = peer
	s.index[peer] = i
	return i, nil
}

// Delete pushes slot i back onto the free list (spec §4.11 "delete(i)
// pushes back").
func (s *Store) Delete(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(i)
}

func (s *Store) deleteLocked(i int) {
	e := &s.slots[i]
	if e.state == domain.HSClosed && e.peer.IsZero() {
		return
	}
	delete(s.index, e.peer)
	e.reset()
	e.nextFree = s.freeHead
	s.freeHead = i
}

// With locks the store and runs fn against the slot at index i, for
// read-modify-write handshake steps (spec §4.12). Returns false if i is out
// of range.
func (s *Store) With(i int, fn func(e *Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return false
	}
	fn(&s.slots[i])
	return true
}

// State returns the state of slot i, or HSClosed if out of range.
func (s *Store) State(i int) domain.HandshakeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return domain.HSClosed
	}
	return s.slots[i].state
}

// Close transitions slot i to CLOSED and returns it to the free list (spec
// §4.12 "If the condvar wait times out, A's slot is torn down").
func (s *Store) Close(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return
	}
	s.deleteLocked(i)
}
