package dataplane

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"sync/atomic"

	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/lp/linkinfo"
	"kurupira/infrastructure/lp/nodecache"
	"kurupira/infrastructure/lp/sessiontable"
)

// Sender hands a raw LP frame to the UDP socket addressed to addr; the
// scheduler (C8) supplies the concrete implementation over application.UDPConn.
type Sender interface {
	Send(addr domain.NetworkAddress, frame []byte) error
}

// Upward receives DATAGRAM payloads destined for NP, tagged by the LP
// session they arrived on (spec §4.3's "upward queue").
type Upward interface {
	Enqueue(tag uint8, payload []byte) error
}

// Engine is the LP data plane: outbound framing/inner-packet construction
// and inbound decrypt/verify/dispatch (spec §4.7).
type Engine struct {
	sessions *sessiontable.Table
	cache    *nodecache.Cache
	sender   Sender
	upward   Upward
	tick     int64
	info     *linkinfo.LinkInfo
}

// NewEngine returns a data-plane Engine.
func NewEngine(sessions *sessiontable.Table, cache *nodecache.Cache, sender Sender, upward Upward) *Engine {
	return &Engine{sessions: sessions, cache: cache, sender: sender, upward: upward, info: linkinfo.New()}
}

// LinkInfo returns the engine's aggregate, process-wide traffic counters,
// for the console "status" command (SPEC_FULL §4).
func (e *Engine) LinkInfo() *linkinfo.LinkInfo { return e.info }

// Tick advances the engine's tick counter; the scheduler calls this once
// per scheduler tick so hunt-validity windows can be measured.
func (e *Engine) Tick() { atomic.AddInt64(&e.tick, 1) }

func (e *Engine) currentTick() int64 { return atomic.LoadInt64(&e.tick) }

// send encrypts innerType/innerPayload under session's outbound keys and
// writes the resulting frame to session's address.
func (e *Engine) send(session uint8, innerType domain.LPInnerType, innerPayload []byte) error {
	var addr domain.NetworkAddress
	var out sessiontable.KeyMaterial
	ok := e.sessions.With(session, func(s *sessiontable.Slot) {
		addr = s.Addr()
		out = s.Out()
	})
	if !ok {
		return ErrWrongState
	}
	frame, err := EncodeData(session, innerType, innerPayload, out)
	if err != nil {
		return err
	}
	if err := e.sender.Send(addr, frame); err != nil {
		return err
	}
	e.sessions.NoteSent(session)
	e.info.NoteSent(len(frame))
	return nil
}

// SendDatagram wraps an opaque NP frame in LLP_DATAGRAM and sends it over
// session (spec §4.7 "Delivered upward (NP frame inside)"). Together with
// BroadcastDatagram and ActiveSessions this implements
// application.LPTransport, the Network Protocol's view of the mesh.
func (e *Engine) SendDatagram(session uint8, payload []byte) error {
	return e.send(session, domain.LPDatagram, payload)
}

// BroadcastDatagram sends payload as LLP_DATAGRAM to every ESTABLISHED
// session except those in exclude, collecting (not stopping on) per-session
// send errors (spec §4.13 step 6 "broadcast to all active LP sessions").
func (e *Engine) BroadcastDatagram(payload []byte, exclude ...uint8) error {
	skip := make(map[uint8]bool, len(exclude))
	for _, s := range exclude {
		skip[s] = true
	}
	var firstErr error
	for _, session := range e.sessions.EstablishedSessions() {
		if skip[session] {
			continue
		}
		if err := e.SendDatagram(session, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ActiveSessions lists the LP session numbers currently ESTABLISHED (spec
// §4.10 "pick_route ... alive", application.LPTransport).
func (e *Engine) ActiveSessions() []uint8 {
	return e.sessions.EstablishedSessions()
}

// SendKeepAlive sends an empty KEEP_ALIVE (spec §4.5 tick_silence,
// §4.7 inner type table).
func (e *Engine) SendKeepAlive(session uint8) error {
	return e.send(session, domain.LPKeepAlive, nil)
}

// SendCloseRequest sends our verifier as a CLOSE_REQUEST, used both for the
// initial local-disconnect and for CLOSE_WAIT's silence-triggered resend.
func (e *Engine) SendCloseRequest(session uint8) error {
	var verifier []byte
	e.sessions.With(session, func(s *sessiontable.Slot) { verifier = s.Verifier() })
	return e.send(session, domain.LPCloseRequest, verifier)
}

// SendNodeHunt sends an empty NODE_HUNT and records the send tick so a
// later HUNT_RESULT can be validated against config.HuntValidityTicks.
func (e *Engine) SendNodeHunt(session uint8) error {
	e.sessions.With(session, func(s *sessiontable.Slot) { s.SetLastHuntTick(e.currentTick()) })
	return e.send(session, domain.LPNodeHunt, nil)
}

// HandleData decrypts and dispatches one LLP_DATA frame. body is the bytes
// following the type and session octets (spec §4.7).
func (e *Engine) HandleData(session uint8, body []byte) error {
	if e.sessions.State(session) == domain.SessionClosed {
		return ErrWrongState
	}

	var in sessiontable.KeyMaterial
	if !e.sessions.With(session, func(s *sessiontable.Slot) { in = s.In() }) {
		return ErrWrongState
	}

	inner, err := DecodeData(body, in)
	if err != nil {
		return err
	}
	if len(inner) < 1 {
		return ErrShortFrame
	}
	innerType := domain.LPInnerType(inner[0])
	payload := inner[1:]

	e.sessions.ResetTimeout(session)
	e.info.NoteReceived(len(body) + 2) // +type, +session octets stripped by the caller

	switch innerType {
	case domain.LPDatagram:
		return e.upward.Enqueue(session, payload)
	case domain.LPCloseRequest:
		return e.handleCloseRequest(session, payload)
	case domain.LPCloseOK:
		return e.handleCloseOK(session, payload)
	case domain.LPNodeHunt:
		return e.handleNodeHunt(session)
	case domain.LPHuntResult:
		return e.handleHuntResult(session, payload)
	case domain.LPKeepAlive:
		return nil
	default:
		return nil
	}
}

func (e *Engine) handleCloseRequest(session uint8, verifier []byte) error {
	var ourVerifier []byte
	e.sessions.With(session, func(s *sessiontable.Slot) { ourVerifier = s.Verifier() })
	if subtle.ConstantTimeCompare(ourVerifier, verifier) != 1 {
		return ErrVerifierMismatch
	}
	e.sessions.With(session, func(s *sessiontable.Slot) {
		s.SetState(domain.SessionTimeWait)
		s.ResetTimeout(config.TTimeoutTicks)
	})
	return e.send(session, domain.LPCloseOK, ourVerifier)
}

func (e *Engine) handleCloseOK(session uint8, verifier []byte) error {
	var ourVerifier []byte
	var inCloseWait bool
	e.sessions.With(session, func(s *sessiontable.Slot) {
		ourVerifier = s.Verifier()
		inCloseWait = s.State() == domain.SessionCloseWait
	})
	if !inCloseWait || subtle.ConstantTimeCompare(ourVerifier, verifier) != 1 {
		return ErrVerifierMismatch
	}
	e.sessions.Close(session, e.cache.MarkInactive)
	return nil
}

func (e *Engine) handleNodeHunt(session uint8) error {
	n, err := randomSampleSize(config.HuntSampleMax)
	if err != nil {
		n = 1
	}
	addrs := e.cache.Sample(n)
	return e.send(session, domain.LPHuntResult, EncodeHuntResult(addrs))
}

func (e *Engine) handleHuntResult(session uint8, payload []byte) error {
	var lastHunt int64
	e.sessions.With(session, func(s *sessiontable.Slot) { lastHunt = s.LastHuntTick() })
	if e.currentTick()-lastHunt > config.HuntValidityTicks {
		return nil // expired: silently ignored per spec §4.7
	}

	addrs, err := DecodeHuntResult(payload)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		e.cache.Add(a)
	}
	return nil
}

func randomSampleSize(max int) (int, error) {
	if max < 1 {
		max = 1
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + 1, nil
}
