package application

// LPTransport is the Network Protocol's view of the Link Protocol mesh: it
// can hand an opaque NP frame down to LP for delivery to one neighbor
// session, or broadcast it to every active neighbor except one (spec §2
// "Data-flow summary", §4.13 forwarding rule). NP depends on this
// interface rather than on the lp package directly, so the router (C13)
// and the handshake (C12) can be tested against a fake transport.
type LPTransport interface {
	// SendDatagram hands payload to LP session number session, wrapped in
	// an LLP_DATAGRAM inner packet (spec §4.7).
	SendDatagram(session uint8, payload []byte) error
	// BroadcastDatagram sends payload to every ESTABLISHED LP session
	// except those listed in exclude.
	BroadcastDatagram(payload []byte, exclude ...uint8) error
	// ActiveSessions lists the LP session numbers currently ESTABLISHED.
	ActiveSessions() []uint8
}
