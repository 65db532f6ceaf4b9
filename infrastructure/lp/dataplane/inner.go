package dataplane

import (
	"encoding/binary"
	"net/netip"

	"kurupira/domain"
)

// addrTypeIPv4 is HUNT_RESULT's only supported address type (spec §4.7
// "4-byte ipv4, u16 port"); the cache does not persist IPv6 neighbors.
const addrTypeIPv4 = 4

// EncodeHuntResult serializes a HUNT_RESULT payload: a one-byte count
// followed by (addr_type, 4-byte IPv4, u16 port) per address. IPv6
// addresses in addrs are silently skipped (spec has no wire form for them
// in HUNT_RESULT).
func EncodeHuntResult(addrs []domain.NetworkAddress) []byte {
	filtered := make([]netip.AddrPort, 0, len(addrs))
	for _, a := range addrs {
		ap := a.AddrPort()
		if ap.Addr().Is4() {
			filtered = append(filtered, ap)
		}
	}
	if len(filtered) > 255 {
		filtered = filtered[:255]
	}

	out := make([]byte, 1+len(filtered)*7)
	out[0] = byte(len(filtered))
	off := 1
	for _, ap := range filtered {
		out[off] = addrTypeIPv4
		ip4 := ap.Addr().As4()
		copy(out[off+1:off+5], ip4[:])
		binary.BigEndian.PutUint16(out[off+5:off+7], ap.Port())
		off += 7
	}
	return out
}

// DecodeHuntResult parses a HUNT_RESULT payload back into addresses,
// ignoring any entry whose addr_type is not IPv4.
func DecodeHuntResult(payload []byte) ([]domain.NetworkAddress, error) {
	if len(payload) < 1 {
		return nil, ErrShortFrame
	}
	count := int(payload[0])
	off := 1
	out := make([]domain.NetworkAddress, 0, count)
	for i := 0; i < count; i++ {
		if off+7 > len(payload) {
			return nil, ErrShortFrame
		}
		addrType := payload[off]
		var ip4 [4]byte
		copy(ip4[:], payload[off+1:off+5])
		port := binary.BigEndian.Uint16(payload[off+5 : off+7])
		off += 7
		if addrType != addrTypeIPv4 {
			continue
		}
		out = append(out, domain.NewNetworkAddress(netip.AddrPortFrom(netip.AddrFrom4(ip4), port)))
	}
	return out, nil
}
