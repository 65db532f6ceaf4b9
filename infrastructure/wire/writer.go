// Package wire implements the bounded binary codec shared by the Link
// Protocol and the Network Protocol (spec §4.1): typed field writers and
// readers over a single byte cursor, all integers big-endian, every read
// bounds-checked against the buffer length.
package wire

import "encoding/binary"

// Writer appends typed fields into a fixed-capacity byte buffer, failing
// (via ErrBufferFull) rather than growing past the caller-supplied bound.
// Buffers are stack-allocatable because every LP/NP packet type has a
// compile-time upper bound on its encoded size (spec §4.1).
type Writer struct {
	buf []byte
}

// NewWriter wraps dst; writes append starting at dst[:0].
func NewWriter(dst []byte) *Writer {
	return &Writer{buf: dst[:0]}
}

// Bytes returns the portion of the buffer written so far.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) grow(n int) ([]byte, error) {
	if len(w.buf)+n > cap(w.buf) {
		return nil, ErrBufferFull
	}
	start := len(w.buf)
	w.buf = w.buf[:start+n]
	return w.buf[start : start+n], nil
}

// Byte writes a single octet.
func (w *Writer) Byte(b byte) error {
	dst, err := w.grow(1)
	if err != nil {
		return err
	}
	dst[0] = b
	return nil
}

// U16 writes a big-endian two-octet unsigned integer.
func (w *Writer) U16(v uint16) error {
	dst, err := w.grow(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(dst, v)
	return nil
}

// U32 writes a big-endian four-octet unsigned integer. Used for length
// prefixes (strings, mpints) and is not itself a spec-named field type, but
// every length prefix is one.
func (w *Writer) U32(v uint32) error {
	dst, err := w.grow(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(dst, v)
	return nil
}

// Fixed writes exactly len(b) raw octets, with no length prefix.
func (w *Writer) Fixed(b []byte) error {
	dst, err := w.grow(len(b))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// String writes a four-octet big-endian length followed by the raw bytes
// of s, with no terminator on the wire (spec §4.1).
func (w *Writer) String(s string) error {
	if err := w.U32(uint32(len(s))); err != nil {
		return err
	}
	return w.Fixed([]byte(s))
}

// MPInt writes a multi-precision integer: four-octet big-endian length,
// one sign octet (0 = non-negative, 1 = negative), then magnitude bytes
// (spec §4.1). Kurupira's DH values are always non-negative.
func (w *Writer) MPInt(magnitude []byte, negative bool) error {
	if err := w.U32(uint32(len(magnitude) + 1)); err != nil {
		return err
	}
	sign := byte(0)
	if negative {
		sign = 1
	}
	if err := w.Byte(sign); err != nil {
		return err
	}
	return w.Fixed(magnitude)
}
