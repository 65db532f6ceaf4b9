package handshake

import (
	"crypto/rand"
	"math/big"

	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/lp/nodecache"
	"kurupira/infrastructure/lp/sessiontable"
)

// Engine drives the LP handshake state machine (spec §4.6), wiring
// sessiontable, nodecache, and cryptoregistry together the way the
// teacher's handshake package wires noise.HandshakeState to a
// session.Repository.
type Engine struct {
	sessions *sessiontable.Table
	cache    *nodecache.Cache
	registry *cryptoregistry.Registry
	cfg      config.LP
}

// NewEngine returns a handshake Engine over the given session table, node
// cache, and algorithm registry.
func NewEngine(sessions *sessiontable.Table, cache *nodecache.Cache, registry *cryptoregistry.Registry, cfg config.LP) *Engine {
	return &Engine{sessions: sessions, cache: cache, registry: registry, cfg: cfg}
}

func randomNonce() ([16]byte, error) {
	var h [16]byte
	_, err := rand.Read(h[:])
	return h, err
}

// BeginOutbound starts an initiator-side handshake toward addr: it
// acquires a CONNECTING slot, generates the DH exponent and handshake
// nonce, and returns the CONNECTION_REQUEST to send.
func (e *Engine) BeginOutbound(addr domain.NetworkAddress, onClose func(uint8)) (ConnectionRequest, uint8, error) {
	if e.sessions.ActiveCount() >= e.cfg.MaxConnections {
		return ConnectionRequest{}, 0, ErrAtConnectionLimit
	}
	if _, ok := e.cache.LookupSessionByAddress(addr); ok {
		return ConnectionRequest{}, 0, ErrDuplicateAddress
	}

	session, ok := e.sessions.AcquireFree(domain.SessionConnecting, addr, onClose)
	if !ok {
		return ConnectionRequest{}, 0, ErrNoFreeSlot
	}

	x, err := Exponent(config.XLength)
	if err != nil {
		e.sessions.Close(session, e.cache.MarkInactive)
		return ConnectionRequest{}, 0, err
	}
	hOut, err := randomNonce()
	if err != nil {
		e.sessions.Close(session, e.cache.MarkInactive)
		return ConnectionRequest{}, 0, err
	}

	e.sessions.With(session, func(s *sessiontable.Slot) {
		s.SetX(x.Bytes())
		s.SetHOut(hOut[:])
	})
	e.cache.MarkConnecting(addr, int(session))

	req := ConnectionRequest{
		Major:            VersionMajor,
		Minor:            VersionMinor,
		InitiatorSession: session,
		CipherList:       e.cfg.CipherList,
		HashList:         e.cfg.HashList,
		MACList:          e.cfg.MacList,
	}
	copy(req.H[:], hOut[:])
	return req, session, nil
}

// HandleConnectionRequest is the responder side of step 1→2: validates the
// version, prevents duplicate sessions and over-admission, negotiates
// algorithms, allocates a BEING_CONNECTED slot, and returns the
// CONNECTION_OK to send back.
func (e *Engine) HandleConnectionRequest(addr domain.NetworkAddress, req ConnectionRequest) (ConnectionOK, uint8, error) {
	if req.Major != VersionMajor {
		return ConnectionOK{}, 0, ErrVersionMismatch
	}
	if e.sessions.ActiveCount() >= e.cfg.MaxConnections {
		return ConnectionOK{}, 0, ErrAtConnectionLimit
	}
	if _, ok := e.cache.LookupSessionByAddress(addr); ok {
		return ConnectionOK{}, 0, ErrDuplicateAddress
	}

	cipher, ok := cryptoregistry.NegotiateCipher(cryptoregistry.SplitList(req.CipherList), cryptoregistry.SplitList(e.cfg.CipherList), e.registry)
	if !ok {
		return ConnectionOK{}, 0, ErrNoAlgorithmMatch
	}
	hash, ok := cryptoregistry.NegotiateHash(cryptoregistry.SplitList(req.HashList), cryptoregistry.SplitList(e.cfg.HashList), e.registry)
	if !ok {
		return ConnectionOK{}, 0, ErrNoAlgorithmMatch
	}
	mac, ok := cryptoregistry.NegotiateMAC(cryptoregistry.SplitList(req.MACList), cryptoregistry.SplitList(e.cfg.MacList), e.registry)
	if !ok {
		return ConnectionOK{}, 0, ErrNoAlgorithmMatch
	}

	session, ok := e.sessions.AcquireFree(domain.SessionBeingConnected, addr, nil)
	if !ok {
		return ConnectionOK{}, 0, ErrNoFreeSlot
	}

	x, err := Exponent(config.XLength)
	if err != nil {
		e.sessions.Close(session, e.cache.MarkInactive)
		return ConnectionOK{}, 0, err
	}
	hOut, err := randomNonce()
	if err != nil {
		e.sessions.Close(session, e.cache.MarkInactive)
		return ConnectionOK{}, 0, err
	}
	y := PublicValue(x)

	e.sessions.With(session, func(s *sessiontable.Slot) {
		s.SetForeign(req.InitiatorSession)
		s.SetX(x.Bytes())
		s.SetHIn(append([]byte(nil), req.H[:]...))
		s.SetHOut(hOut[:])
		s.SetPendingCipher(cipher)
		s.SetPendingHash(hash)
		s.SetPendingMAC(mac)
	})
	e.cache.MarkConnecting(addr, int(session))

	okPkt := ConnectionOK{
		DestinationSession: req.InitiatorSession,
		SourceSession:      session,
		Cipher:             cipher.Name,
		Hash:               hash.Name,
		MAC:                mac.Name,
		Y:                  y.Bytes(),
	}
	copy(okPkt.H[:], hOut[:])
	return okPkt, session, nil
}

// HandleConnectionOK is the initiator side of step 2→3: completes the DH
// exchange, derives keys, transitions to ESTABLISHED, and returns the
// KEY_EXCHANGE to send back.
func (e *Engine) HandleConnectionOK(pkt ConnectionOK) (KeyExchange, error) {
	session := pkt.DestinationSession
	if e.sessions.State(session) != domain.SessionConnecting {
		return KeyExchange{}, ErrWrongState
	}

	cipher, ok := e.registry.Cipher(pkt.Cipher)
	if !ok {
		return KeyExchange{}, ErrUnknownAlgorithm
	}
	hash, ok := e.registry.Hash(pkt.Hash)
	if !ok {
		return KeyExchange{}, ErrUnknownAlgorithm
	}
	mac, ok := e.registry.MAC(pkt.MAC)
	if !ok {
		return KeyExchange{}, ErrUnknownAlgorithm
	}

	var yA *big.Int
	var addr domain.NetworkAddress
	e.sessions.With(session, func(s *sessiontable.Slot) {
		x := new(big.Int).SetBytes(s.X())
		yB := new(big.Int).SetBytes(pkt.Y)
		z := SharedSecret(x, yB)

		in, out, verifier := deriveSession(cipher, hash, mac, z.Bytes(), pkt.H[:], s.HOut())

		s.SetForeign(pkt.SourceSession)
		s.SetIn(in)
		s.SetOut(out)
		s.SetVerifier(verifier)
		s.SetState(domain.SessionEstablished)
		s.SetX(nil)

		yA = PublicValue(x)
		addr = s.Addr()
	})

	e.cache.MarkActive(addr, int(session))

	return KeyExchange{DestinationSession: pkt.SourceSession, Y: yA.Bytes()}, nil
}

// HandleKeyExchange is the responder side of step 3→4: completes the DH
// exchange on its end, derives keys, and transitions to ESTABLISHED.
func (e *Engine) HandleKeyExchange(pkt KeyExchange) error {
	session := pkt.DestinationSession
	if e.sessions.State(session) != domain.SessionBeingConnected {
		return ErrWrongState
	}

	var addr domain.NetworkAddress
	e.sessions.With(session, func(s *sessiontable.Slot) {
		x := new(big.Int).SetBytes(s.X())
		yA := new(big.Int).SetBytes(pkt.Y)
		z := SharedSecret(x, yA)

		in, out, verifier := deriveSession(s.PendingCipher(), s.PendingHash(), s.PendingMAC(), z.Bytes(), s.HIn(), s.HOut())

		s.SetIn(in)
		s.SetOut(out)
		s.SetVerifier(verifier)
		s.SetState(domain.SessionEstablished)
		s.SetX(nil)

		addr = s.Addr()
	})

	e.cache.MarkActive(addr, int(session))
	return nil
}
