package wire

import (
	"bytes"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	buf := make([]byte, 256)
	w := NewWriter(buf)

	if err := w.Byte(0x42); err != nil {
		t.Fatalf("Byte: %v", err)
	}
	if err := w.U16(0xBEEF); err != nil {
		t.Fatalf("U16: %v", err)
	}
	if err := w.String("blowfish-cbc;null"); err != nil {
		t.Fatalf("String: %v", err)
	}
	if err := w.MPInt([]byte{0x01, 0x02, 0x03}, false); err != nil {
		t.Fatalf("MPInt: %v", err)
	}
	if err := w.Fixed([]byte("0123456789abcdef")); err != nil {
		t.Fatalf("Fixed: %v", err)
	}

	r := NewReader(w.Bytes())

	b, err := r.Byte()
	if err != nil || b != 0x42 {
		t.Fatalf("Byte: got %v,%v", b, err)
	}
	u, err := r.U16()
	if err != nil || u != 0xBEEF {
		t.Fatalf("U16: got %v,%v", u, err)
	}
	s, err := r.String()
	if err != nil || s != "blowfish-cbc;null" {
		t.Fatalf("String: got %q,%v", s, err)
	}
	mag, neg, err := r.MPInt()
	if err != nil || neg || !bytes.Equal(mag, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("MPInt: got %v,%v,%v", mag, neg, err)
	}
	fixed, err := r.Fixed(16)
	if err != nil || string(fixed) != "0123456789abcdef" {
		t.Fatalf("Fixed: got %q,%v", fixed, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected no remaining bytes, got %d", r.Remaining())
	}
}

func TestReaderRejectsTruncatedBuffer(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x00, 0x05, 'a', 'b'})
	if _, err := r.String(); err != ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestWriterRejectsOverflow(t *testing.T) {
	buf := make([]byte, 2)
	w := NewWriter(buf)
	if err := w.Byte(1); err != nil {
		t.Fatalf("first byte: %v", err)
	}
	if err := w.Byte(2); err != nil {
		t.Fatalf("second byte: %v", err)
	}
	if err := w.Byte(3); err != ErrBufferFull {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
}

func TestMPIntRejectsZeroLength(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x00, 0x00})
	if _, _, err := r.MPInt(); err != ErrFieldTooLarge {
		t.Fatalf("expected ErrFieldTooLarge, got %v", err)
	}
}
