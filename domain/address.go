package domain

import "net/netip"

// NetworkAddress is a neighbor's transport endpoint: IPv4 address + UDP
// port. It doubles as the Link Protocol identity of a neighbor (spec §3).
type NetworkAddress struct {
	addr netip.AddrPort
}

// NewNetworkAddress wraps an already-resolved IPv4 address and port.
func NewNetworkAddress(addr netip.AddrPort) NetworkAddress {
	return NetworkAddress{addr: netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())}
}

// ParseNetworkAddress parses a "host:port" string, as read from the node
// cache's static/recent text files (spec §4.4 / §6).
func ParseNetworkAddress(s string) (NetworkAddress, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return NetworkAddress{}, err
	}
	return NetworkAddress{addr: netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())}, nil
}

// AddrPort returns the underlying address and port.
func (n NetworkAddress) AddrPort() netip.AddrPort {
	return n.addr
}

// String renders the address as "host:port".
func (n NetworkAddress) String() string {
	return n.addr.String()
}

// IsValid reports whether the address carries a usable IP and port.
func (n NetworkAddress) IsValid() bool {
	return n.addr.IsValid() && n.addr.Port() != 0
}
