// Package npframe implements the Network Protocol's common packet header
// (spec §4.12, §4.13): a one-byte type discriminator, a TTL byte, 20-byte
// source/destination peer IDs, and a flags byte, shared by every NP packet
// type. Grounded on the wire.Reader/Writer codec (C1) the same way LP's
// handshake package composes its own packets field-by-field.
package npframe

import (
	"kurupira/domain"
	"kurupira/infrastructure/wire"
)

// Flag bits carried in the header's flags byte (spec §4.13 "optionally set
// a routing-error flag").
const (
	FlagRoutingError byte = 1 << 0
)

// Header is the fields common to every NP packet (spec §4.12: "the common
// NP header (byte type, byte TTL, 20-byte source ID, 20-byte destination
// ID, byte flags)").
type Header struct {
	Type  domain.NPPacketType
	TTL   byte
	Src   domain.PeerID
	Dst   domain.PeerID
	Flags byte
}

// HasFlag reports whether bit is set in the header's flags byte.
func (h Header) HasFlag(bit byte) bool { return h.Flags&bit != 0 }

// EncodedLen is the fixed wire size of a Header.
const EncodedLen = 1 + 1 + domain.PeerIDLength + domain.PeerIDLength + 1

// Encode appends the header fields to w.
func (h Header) Encode(w *wire.Writer) error {
	if err := w.Byte(byte(h.Type)); err != nil {
		return err
	}
	if err := w.Byte(h.TTL); err != nil {
		return err
	}
	if err := w.Fixed(h.Src[:]); err != nil {
		return err
	}
	if err := w.Fixed(h.Dst[:]); err != nil {
		return err
	}
	return w.Byte(h.Flags)
}

// DecodeHeader reads a Header from r.
func DecodeHeader(r *wire.Reader) (Header, error) {
	var h Header
	typ, err := r.Byte()
	if err != nil {
		return h, err
	}
	ttl, err := r.Byte()
	if err != nil {
		return h, err
	}
	src, err := r.Fixed(domain.PeerIDLength)
	if err != nil {
		return h, err
	}
	dst, err := r.Fixed(domain.PeerIDLength)
	if err != nil {
		return h, err
	}
	flags, err := r.Byte()
	if err != nil {
		return h, err
	}

	h.Type = domain.NPPacketType(typ)
	h.TTL = ttl
	copy(h.Src[:], src)
	copy(h.Dst[:], dst)
	h.Flags = flags
	return h, nil
}
