package dataplane

import (
	"sync/atomic"

	"kurupira/application"
	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/np/handshake"
	"kurupira/infrastructure/np/keystore"
	"kurupira/infrastructure/np/npframe"
	"kurupira/infrastructure/np/routing"
	"kurupira/infrastructure/queue"
	"kurupira/infrastructure/wire"
)

const maxFrameSize = config.FTU

// Router is C13: the receive side of the Network Protocol. It decodes
// every frame handed up from the Link Protocol, suppresses duplicates,
// learns and maintains routing history, dispatches handshake packets to
// the handshake engine, decrypts and delivers DATA frames addressed to
// this node, and forwards everything else (spec §4.13). It also
// implements handshake.Transport, so the handshake engine can hand it
// outbound packets without knowing how they actually reach a peer.
type Router struct {
	self       domain.PeerID
	table      *routing.Table
	dup        *routing.DuplicateTable
	store      *keystore.Store
	transport  application.LPTransport
	reliable   *queue.Queue[domain.PeerID]
	unreliable *queue.Queue[domain.PeerID]
	handshake  *handshake.Engine
	cfg        config.NP
	tick       atomic.Int64
}

// NewRouter builds a Router over its dependencies. SetHandshake must be
// called once the handshake engine exists, since the two are mutually
// dependent (the engine calls back into the router as its Transport).
func NewRouter(self domain.PeerID, table *routing.Table, dup *routing.DuplicateTable, store *keystore.Store, transport application.LPTransport, reliable, unreliable *queue.Queue[domain.PeerID], cfg config.NP) *Router {
	return &Router{
		self:       self,
		table:      table,
		dup:        dup,
		store:      store,
		transport:  transport,
		reliable:   reliable,
		unreliable: unreliable,
		cfg:        cfg,
	}
}

// SetHandshake wires the handshake engine in after construction, breaking
// the router/handshake import cycle (spec §4.12, §4.13).
func (r *Router) SetHandshake(e *handshake.Engine) { r.handshake = e }

// SendToPeer implements handshake.Transport: it picks a next hop the same
// way a forwarded DATA frame would (unicast along routing history, or
// broadcast if none exists yet) and hands the frame to the Link Protocol
// (spec §4.12 step 1, §4.13).
func (r *Router) SendToPeer(dst domain.PeerID, frame []byte) error {
	entry, _, err := r.table.InsertIfAbsent(dst)
	if err != nil {
		return err
	}

	entry.Lock()
	session, found := entry.PickRoute(0, false, r.isActive)
	entry.Unlock()

	if found {
		return r.transport.SendDatagram(session, frame)
	}
	return r.transport.BroadcastDatagram(frame)
}

// isActive reports whether session is one of LP's currently ESTABLISHED
// sessions (spec §4.10 "pick_route ... alive").
func (r *Router) isActive(session uint8) bool {
	for _, s := range r.transport.ActiveSessions() {
		if s == session {
			return true
		}
	}
	return false
}

// Tick advances the router's timestamp counter and returns its low 16
// bits, the value Write stamps into locally originated DATA frames (spec
// §4.13).
func (r *Router) Tick() uint16 { return uint16(r.tick.Add(1)) }

// queueFor resolves protocol to the logical delivery queue it feeds (spec
// §4.3, §4.13 step 6 "deliver... to the queue matching its protocol tag").
func (r *Router) queueFor(protocol domain.Protocol) *queue.Queue[domain.PeerID] {
	if protocol == domain.Reliable {
		return r.reliable
	}
	return r.unreliable
}

// Write encrypts and routes a locally originated DATA frame to dst (spec
// §4.13, the send-side mirror of Receive/forward).
func (r *Router) Write(dst domain.PeerID, protocol domain.Protocol, payload []byte) error {
	slot, ok := r.store.Lookup(dst)
	if !ok || r.store.State(slot) != domain.HSConnected {
		return ErrUnknownPeer
	}

	var out keystore.KeyMaterial
	r.store.With(slot, func(e *keystore.Entry) { out = e.Out() })

	header := npframe.Header{
		Type: domain.NPData,
		TTL:  config.DefaultTTL,
		Src:  r.self,
		Dst:  dst,
	}
	frame, err := EncodeData(header, protocol, r.Tick(), payload, out)
	if err != nil {
		return err
	}
	return r.SendToPeer(dst, frame)
}

// Read pops the next delivered payload for protocol, blocking until one
// arrives, and reports which peer sent it (spec §4.3, §4.13 step 6).
func (r *Router) Read(protocol domain.Protocol, buf []byte) (domain.PeerID, int, error) {
	tag, n, err := r.queueFor(protocol).Dequeue(buf)
	return tag, n, err
}

// Receive processes one frame that LP delivered on arrival, the LP
// session number of the neighbor it arrived from (spec §4.13 steps
// 1-6): duplicate suppression, routing-history learning, then local
// delivery or forwarding.
func (r *Router) Receive(arrival uint8, frame []byte) error {
	if len(frame) < npframe.EncodedLen {
		return ErrShortFrame
	}

	hash := duplicateHash(frame)
	if _, dup := r.dup.Insert(hash, arrival); dup {
		return nil
	}

	rd := wire.NewReader(frame)
	header, err := npframe.DecodeHeader(rd)
	if err != nil {
		return err
	}
	body := frame[npframe.EncodedLen:]

	entry, _, err := r.table.InsertIfAbsent(header.Src)
	if err != nil {
		return err
	}
	entry.Lock()
	entry.Insert(arrival)
	entry.Unlock()

	if header.Dst == r.self {
		return r.deliverLocal(header, body)
	}
	return r.forward(arrival, header, frame)
}

// deliverLocal dispatches a frame addressed to this node to the handshake
// engine or to decrypted DATA delivery (spec §4.13 step 5).
func (r *Router) deliverLocal(header npframe.Header, body []byte) error {
	rd := wire.NewReader(body)
	switch header.Type {
	case domain.NPPublicKeyRequest:
		req, err := handshake.DecodePublicKeyRequest(header, rd)
		if err != nil {
			return err
		}
		return r.handshake.HandlePublicKeyRequest(req)
	case domain.NPPublicKeyResponse:
		resp, err := handshake.DecodePublicKeyResponse(header, rd)
		if err != nil {
			return err
		}
		return r.handshake.HandlePublicKeyResponse(resp)
	case domain.NPKeyExchange:
		ke, err := handshake.DecodeKeyExchange(header, rd)
		if err != nil {
			return err
		}
		return r.handshake.HandleKeyExchange(ke)
	case domain.NPKeyExchangeOK:
		ok, err := handshake.DecodeKeyExchangeOK(header, rd)
		if err != nil {
			return err
		}
		return r.handshake.HandleKeyExchangeOK(ok)
	case domain.NPData:
		return r.deliverData(header, body)
	default:
		return nil
	}
}

// deliverData decrypts a DATA frame addressed to this node and enqueues
// its payload for the consumer matching its protocol tag (spec §4.13 step
// 5).
func (r *Router) deliverData(header npframe.Header, body []byte) error {
	slot, ok := r.store.Lookup(header.Src)
	if !ok || r.store.State(slot) != domain.HSConnected {
		return ErrUnknownPeer
	}

	var in keystore.KeyMaterial
	r.store.With(slot, func(e *keystore.Entry) { in = e.In() })

	protocol, payload, err := DecodeData(body, in)
	if err != nil {
		return err
	}
	return r.queueFor(protocol).Enqueue(header.Src, payload)
}

// classify decides how to dispose of a frame not addressed to this node
// (spec §4.13 step 6): unicast along routing history excluding where it
// arrived, broadcast to every other active session if none is known,
// bounce back with a routing-error flag if the destination is entirely
// unknown.
func (r *Router) classify(arrival uint8, dst domain.PeerID) domain.RouteVerdict {
	entry, _, found := r.table.Lookup(dst)
	if !found {
		return domain.RouteBackWithError
	}

	entry.Lock()
	session, ok := entry.PickRoute(arrival, true, r.isActive)
	entry.Unlock()
	if ok {
		return domain.RouteVerdict(session)
	}
	return domain.RouteBroadcast
}

// forward disposes of a frame not addressed to this node: drop on TTL
// exhaustion, otherwise classify and hand it to LP as a unicast or
// broadcast datagram (spec §4.13 step 6).
func (r *Router) forward(arrival uint8, header npframe.Header, frame []byte) error {
	if header.TTL == 0 {
		return nil
	}

	out := decrementTTL(frame)
	switch verdict := r.classify(arrival, header.Dst); {
	case verdict == domain.RouteDrop:
		return nil
	case verdict == domain.RouteBackWithError:
		return r.transport.SendDatagram(arrival, withErrorFlag(out))
	case verdict == domain.RouteBroadcast:
		return r.transport.BroadcastDatagram(out, arrival)
	case verdict.IsUnicast():
		return r.transport.SendDatagram(uint8(verdict), out)
	default:
		return nil
	}
}

// decrementTTL returns a copy of frame with its TTL byte (the second byte
// of the header) reduced by one.
func decrementTTL(frame []byte) []byte {
	out := append([]byte(nil), frame...)
	if len(out) > 1 && out[1] > 0 {
		out[1]--
	}
	return out
}

// withErrorFlag returns a copy of frame with its flags byte's
// routing-error bit set (spec §4.13 step 6, "optionally set a
// routing-error flag").
func withErrorFlag(frame []byte) []byte {
	out := append([]byte(nil), frame...)
	if len(out) >= npframe.EncodedLen {
		out[npframe.EncodedLen-1] |= npframe.FlagRoutingError
	}
	return out
}
