package dataplane

import (
	"bytes"
	"net/netip"
	"testing"

	"kurupira/domain"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/lp/sessiontable"
)

func keyMaterial(t *testing.T, cipherName string) sessiontable.KeyMaterial {
	t.Helper()
	reg := cryptoregistry.NewRegistry()
	cipher, ok := reg.Cipher(cipherName)
	if !ok {
		t.Fatalf("cipher %q not found", cipherName)
	}
	hash, _ := reg.Hash("sha1")
	mac, _ := reg.MAC("sha1-mac")
	return sessiontable.KeyMaterial{
		Cipher: cipher,
		Hash:   hash,
		MAC:    mac,
		Key:    bytesOfLen(cipher.KeyLength, 0xAB),
		IV:     bytesOfLen(cipher.IVLength, 0xCD),
		MACKey: bytesOfLen(mac.KeyLength, 0xEF),
	}
}

func bytesOfLen(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestEncodeDecodeDataRoundTrip(t *testing.T) {
	km := keyMaterial(t, "blowfish-cbc")
	payload := []byte("hello neighbor")

	frame, err := EncodeData(7, domain.LPDatagram, payload, km)
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	if frame[0] != byte(domain.LPData) || frame[1] != 7 {
		t.Fatalf("unexpected frame header: %v", frame[:2])
	}

	inner, err := DecodeData(frame[2:], km)
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if domain.LPInnerType(inner[0]) != domain.LPDatagram {
		t.Fatalf("inner type = %v, want LPDatagram", inner[0])
	}
	if !bytes.Equal(inner[1:], payload) {
		t.Fatalf("payload = %q, want %q", inner[1:], payload)
	}
}

func TestDecodeDataRejectsTamperedMAC(t *testing.T) {
	km := keyMaterial(t, "blowfish-cbc")
	frame, err := EncodeData(7, domain.LPDatagram, []byte("hi"), km)
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	frame[len(frame)-1] ^= 0xFF

	if _, err := DecodeData(frame[2:], km); err != ErrMACMismatch {
		t.Fatalf("err = %v, want ErrMACMismatch", err)
	}
}

func TestNoneCipherUsesZeroPadding(t *testing.T) {
	km := keyMaterial(t, "none")
	frame, err := EncodeData(3, domain.LPKeepAlive, nil, km)
	if err != nil {
		t.Fatalf("EncodeData: %v", err)
	}
	// type+session octets, inner type, two-octet padding length, MAC: no
	// padding bytes at all.
	if want := 2 + 1 + 2 + km.MAC.Length; len(frame) != want {
		t.Fatalf("frame length = %d, want %d (no padding)", len(frame), want)
	}
	inner, err := DecodeData(frame[2:], km)
	if err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if domain.LPInnerType(inner[0]) != domain.LPKeepAlive {
		t.Fatalf("inner type mismatch")
	}
}

func TestHuntResultEncodeDecodeRoundTrip(t *testing.T) {
	addrs := []domain.NetworkAddress{
		domain.NewNetworkAddress(netip.MustParseAddrPort("10.0.0.1:2357")),
		domain.NewNetworkAddress(netip.MustParseAddrPort("10.0.0.2:2358")),
	}
	encoded := EncodeHuntResult(addrs)
	decoded, err := DecodeHuntResult(encoded)
	if err != nil {
		t.Fatalf("DecodeHuntResult: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d addresses, want 2", len(decoded))
	}
	if decoded[0].String() != addrs[0].String() || decoded[1].String() != addrs[1].String() {
		t.Fatalf("decoded = %v, want %v", decoded, addrs)
	}
}
