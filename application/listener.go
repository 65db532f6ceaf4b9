// Package application declares the small ports that let the infrastructure
// engines (lp, np) depend on interfaces instead of concrete sockets or on
// each other directly — the same role the teacher's application package
// plays for its Listener/Socket/TunDevice contracts.
package application

import "net/netip"

// UDPConn is the subset of *net.UDPConn the Link Protocol listener and
// data plane need: reading/writing datagrams tagged with the peer address,
// and read-buffer tuning (spec §6 "LP listener").
type UDPConn interface {
	ReadFromUDPAddrPort(b []byte) (n int, addr netip.AddrPort, err error)
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
	SetReadBuffer(bytes int) error
	Close() error
}
