// Package handshake implements C12, the Network Protocol's end-to-end
// handshake: PUBLIC_KEY_REQUEST / PUBLIC_KEY_RESPONSE / KEY_EXCHANGE /
// KEY_EXCHANGE_OK packet codecs, algorithm negotiation reusing LP's
// cryptoregistry rules, and directional key derivation from two random k
// halves instead of a Diffie-Hellman exchange (spec §4.12). The state
// machine shape — acquire a slot, send, block on a condvar, derive keys on
// the final packet — mirrors the Link Protocol's handshake.Engine (C6),
// generalized from a session-table slot to a key-store slot and from a
// fixed LP neighbor address to a routed, possibly multi-hop, peer ID.
package handshake

import (
	"crypto/rand"
	"crypto/subtle"
	"sync/atomic"
	"time"

	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/np/identity"
	"kurupira/infrastructure/np/keystore"
	"kurupira/infrastructure/np/npframe"
	"kurupira/infrastructure/np/routing"
)

const maxPacketSize = 1024

// Transport is the handshake engine's only dependency on how a packet
// addressed to a peer ID actually reaches it — unicast along a learned
// route or broadcast when none exists yet (spec §4.12 step 1, §4.13). The
// Network Protocol's router (C13) implements this by wrapping
// application.LPTransport with the same routing-table lookup it uses for
// DATA frames.
type Transport interface {
	SendToPeer(dst domain.PeerID, frame []byte) error
}

// Engine drives the NP handshake state machine over a key-store slab, a
// routing table (for the condvar initiators wait on), and an algorithm
// registry.
type Engine struct {
	self      *identity.Identity
	store     *keystore.Store
	table     *routing.Table
	registry  *cryptoregistry.Registry
	transport Transport
	cfg       config.NP
}

// NewEngine returns a handshake Engine for this node's identity, key
// store, routing table, algorithm registry, and outbound transport.
func NewEngine(self *identity.Identity, store *keystore.Store, table *routing.Table, registry *cryptoregistry.Registry, transport Transport, cfg config.NP) *Engine {
	return &Engine{self: self, store: store, table: table, registry: registry, transport: transport, cfg: cfg}
}

func randomK() ([]byte, error) {
	k := make([]byte, config.KLength)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}
	return k, nil
}

// Connect drives the initiator side of a handshake to peer end to end: it
// allocates a key-store slot, sends PUBLIC_KEY_REQUEST, and blocks until
// either KEY_EXCHANGE_OK arrives (via HandleKeyExchangeOK waking this
// call) or config.HandshakeTimeout elapses (spec §4.12 step 1, "If the
// condvar wait times out, A's slot is torn down").
func (e *Engine) Connect(peer domain.PeerID) error {
	entry, _, err := e.table.InsertIfAbsent(peer)
	if err != nil {
		return err
	}

	if existing, ok := e.store.Lookup(peer); ok {
		switch e.store.State(existing) {
		case domain.HSConnected:
			return nil
		case domain.HSClosed:
			e.store.Delete(existing)
		default:
			return ErrAlreadyInProgress
		}
	}

	kOut, err := randomK()
	if err != nil {
		return err
	}
	slot, err := e.store.New(peer, domain.HSConnecting)
	if err != nil {
		return err
	}
	e.store.With(slot, func(en *keystore.Entry) { en.SetKOut(kOut) })

	entry.Lock()
	entry.SetStoreIndex(slot, true)
	mode := domain.Broadcast
	if entry.HasHistory() {
		mode = domain.Unicast
	}
	entry.Unlock()

	req := PublicKeyRequest{
		Header: npframe.Header{
			Type: domain.NPPublicKeyRequest,
			TTL:  config.DefaultTTL,
			Src:  e.self.Self,
			Dst:  peer,
		},
		Major:     VersionMajor,
		Minor:     VersionMinor,
		Mode:      mode,
		PublicKey: e.self.PublicDER,
	}
	frame, err := req.Encode(make([]byte, 0, maxPacketSize))
	if err != nil {
		e.store.Close(slot)
		return err
	}
	if err := e.transport.SendToPeer(peer, frame); err != nil {
		e.store.Close(slot)
		return err
	}

	if err := e.awaitConnected(entry, slot, config.HandshakeTimeout); err != nil {
		e.store.Close(slot)
		return err
	}
	return nil
}

// awaitConnected blocks on entry's condvar until the key-store slot
// reaches CONNECTED, is torn down back to CLOSED, or timeout elapses.
func (e *Engine) awaitConnected(entry *routing.Entry, slot int, timeout time.Duration) error {
	var timedOut atomic.Bool
	timer := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		entry.Lock()
		entry.Broadcast()
		entry.Unlock()
	})
	defer timer.Stop()

	entry.Lock()
	defer entry.Unlock()
	for {
		switch e.store.State(slot) {
		case domain.HSConnected:
			return nil
		case domain.HSClosed:
			return ErrTimeout
		}
		if timedOut.Load() {
			return ErrTimeout
		}
		entry.Wait()
	}
}

// HandlePublicKeyRequest is the responder side of step 1→2: it validates
// the initiator's public key against the claimed source ID, allocates a
// BEING_CONNECTED slot, and sends PUBLIC_KEY_RESPONSE back to the
// initiator (spec §4.12 step 2).
func (e *Engine) HandlePublicKeyRequest(req PublicKeyRequest) error {
	if req.Major != VersionMajor {
		return ErrVersionMismatch
	}

	peerA := req.Header.Src
	peerKey, derivedID, err := identity.FromPublicKeyDER(req.PublicKey)
	if err != nil {
		return err
	}
	if derivedID != peerA {
		return ErrNotRSAKey
	}

	if _, _, err := e.table.InsertIfAbsent(peerA); err != nil {
		return err
	}
	if existing, ok := e.store.Lookup(peerA); ok {
		e.store.Delete(existing)
	}

	kOut, err := randomK()
	if err != nil {
		return err
	}
	slot, err := e.store.New(peerA, domain.HSBeingConnected)
	if err != nil {
		return err
	}
	e.store.With(slot, func(en *keystore.Entry) {
		en.SetPeerKey(peerKey)
		en.SetPeerKeyDER(req.PublicKey)
		en.SetKOut(kOut)
	})

	resp := PublicKeyResponse{
		Header: npframe.Header{
			Type: domain.NPPublicKeyResponse,
			TTL:  config.DefaultTTL,
			Src:  e.self.Self,
			Dst:  peerA,
		},
		PublicKey:  e.self.PublicDER,
		EncryptedK: keystore.WrapKOut(kOut, peerKey),
	}
	frame, err := resp.Encode(make([]byte, 0, maxPacketSize))
	if err != nil {
		e.store.Close(slot)
		return err
	}
	return e.transport.SendToPeer(peerA, frame)
}

// HandlePublicKeyResponse is the initiator side of step 2→3: it records
// the responder's public key and k_out half, generates its own new k, and
// sends KEY_EXCHANGE (spec §4.12 step 3).
func (e *Engine) HandlePublicKeyResponse(resp PublicKeyResponse) error {
	peerB := resp.Header.Src
	slot, ok := e.store.Lookup(peerB)
	if !ok || e.store.State(slot) != domain.HSConnecting {
		return ErrWrongState
	}

	peerKey, derivedID, err := identity.FromPublicKeyDER(resp.PublicKey)
	if err != nil {
		return err
	}
	if derivedID != peerB {
		return ErrNotRSAKey
	}

	var ourKOut []byte
	e.store.With(slot, func(en *keystore.Entry) {
		en.SetPeerKey(peerKey)
		en.SetPeerKeyDER(resp.PublicKey)
		en.SetKIn(resp.EncryptedK)
		en.SetState(domain.HSExchangingKeys)
		ourKOut = en.KOut()
	})

	ke := KeyExchange{
		Header: npframe.Header{
			Type: domain.NPKeyExchange,
			TTL:  config.DefaultTTL,
			Src:  e.self.Self,
			Dst:  peerB,
		},
		CipherList: e.cfg.CipherList,
		HashList:   e.cfg.HashList,
		MACList:    e.cfg.MacList,
		EchoedK:    resp.EncryptedK,
		NewK:       ourKOut,
	}
	frame, err := ke.Encode(make([]byte, 0, maxPacketSize))
	if err != nil {
		return err
	}
	return e.transport.SendToPeer(peerB, frame)
}

// HandleKeyExchange is the responder side of step 3→4: it validates the
// echoed k, negotiates algorithms, derives both directional key sets, and
// sends KEY_EXCHANGE_OK (spec §4.12 step 4).
func (e *Engine) HandleKeyExchange(ke KeyExchange) error {
	peerA := ke.Header.Src
	slot, ok := e.store.Lookup(peerA)
	if !ok || e.store.State(slot) != domain.HSBeingConnected {
		return ErrWrongState
	}

	var ourKOut []byte
	e.store.With(slot, func(en *keystore.Entry) { ourKOut = en.KOut() })
	if subtle.ConstantTimeCompare(ourKOut, ke.EchoedK) != 1 {
		return ErrVerifierMismatch
	}

	cipher, ok := cryptoregistry.NegotiateCipher(cryptoregistry.SplitList(ke.CipherList), cryptoregistry.SplitList(e.cfg.CipherList), e.registry)
	if !ok {
		return ErrNoAlgorithmMatch
	}
	hash, ok := cryptoregistry.NegotiateHash(cryptoregistry.SplitList(ke.HashList), cryptoregistry.SplitList(e.cfg.HashList), e.registry)
	if !ok {
		return ErrNoAlgorithmMatch
	}
	mac, ok := cryptoregistry.NegotiateMAC(cryptoregistry.SplitList(ke.MACList), cryptoregistry.SplitList(e.cfg.MacList), e.registry)
	if !ok {
		return ErrNoAlgorithmMatch
	}

	e.store.With(slot, func(en *keystore.Entry) {
		en.SetKIn(ke.NewK)
		in, out := deriveSession(cipher, hash, mac, en.KIn(), en.KOut(), en.PeerKeyDER(), e.self.PublicDER)
		en.SetIn(in)
		en.SetOut(out)
		en.SetState(domain.HSConnected)
	})

	okPkt := KeyExchangeOK{
		Header: npframe.Header{
			Type: domain.NPKeyExchangeOK,
			TTL:  config.DefaultTTL,
			Src:  e.self.Self,
			Dst:  peerA,
		},
		Cipher:  cipher.Name,
		Hash:    hash.Name,
		MAC:     mac.Name,
		EchoedK: ke.NewK,
	}
	frame, err := okPkt.Encode(make([]byte, 0, maxPacketSize))
	if err != nil {
		return err
	}
	return e.transport.SendToPeer(peerA, frame)
}

// HandleKeyExchangeOK is the initiator side of step 4, final: it validates
// the echoed k, locks in the negotiated algorithms, derives both
// directional key sets, transitions to CONNECTED, and wakes the Connect
// call blocked on this peer's routing entry (spec §4.12 step 4).
func (e *Engine) HandleKeyExchangeOK(ok KeyExchangeOK) error {
	peerB := ok.Header.Src
	slot, found := e.store.Lookup(peerB)
	if !found || e.store.State(slot) != domain.HSExchangingKeys {
		return ErrWrongState
	}

	var ourKOut []byte
	e.store.With(slot, func(en *keystore.Entry) { ourKOut = en.KOut() })
	if subtle.ConstantTimeCompare(ourKOut, ok.EchoedK) != 1 {
		return ErrVerifierMismatch
	}

	cipher, okC := e.registry.Cipher(ok.Cipher)
	if !okC {
		return ErrNoAlgorithmMatch
	}
	hash, okH := e.registry.Hash(ok.Hash)
	if !okH {
		return ErrNoAlgorithmMatch
	}
	mac, okM := e.registry.MAC(ok.MAC)
	if !okM {
		return ErrNoAlgorithmMatch
	}

	e.store.With(slot, func(en *keystore.Entry) {
		in, out := deriveSession(cipher, hash, mac, en.KIn(), en.KOut(), e.self.PublicDER, en.PeerKeyDER())
		en.SetIn(in)
		en.SetOut(out)
		en.SetState(domain.HSConnected)
	})

	if entry, _, found := e.table.Lookup(peerB); found {
		entry.Lock()
		entry.Broadcast()
		entry.Unlock()
	}
	return nil
}
