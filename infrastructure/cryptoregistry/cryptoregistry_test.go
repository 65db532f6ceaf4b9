package cryptoregistry

import (
	"bytes"
	"testing"
)

func TestNegotiateFirstMatch(t *testing.T) {
	r := NewRegistry()
	configured := SplitList("blowfish-cbc;aes256-cbc;chacha20")

	c, ok := NegotiateCipher(SplitList("rc6;blowfish-cbc;aes256-cbc"), configured, r)
	if !ok || c.Name != "blowfish-cbc" {
		t.Fatalf("expected blowfish-cbc, got %+v ok=%v", c, ok)
	}

	if _, ok := NegotiateCipher(SplitList("rc6;idea"), configured, r); ok {
		t.Fatalf("expected no match")
	}
}

func TestNegotiateRestrictsToConfiguredList(t *testing.T) {
	r := NewRegistry()

	// aes256-cbc and chacha20 both exist in the registry, but this
	// responder's configured list only offers blowfish-cbc: negotiation
	// must not fall through to the full registry (spec §4.6, §4.12).
	configured := SplitList("blowfish-cbc")

	if _, ok := NegotiateCipher(SplitList("aes256-cbc;chacha20;blowfish-cbc"), configured, r); !ok {
		t.Fatalf("expected blowfish-cbc to still match")
	}
	if c, ok := NegotiateCipher(SplitList("aes256-cbc;chacha20"), configured, r); ok {
		t.Fatalf("expected no match restricted to configured list, got %+v", c)
	}
}

func TestDeriveKeyDeterministicAndDistinctPerLabel(t *testing.T) {
	r := NewRegistry()
	h, _ := r.Hash("sha1")

	z := []byte("shared-secret")
	nonce := bytes.Repeat([]byte{0xAB}, 16)

	k1 := DeriveKey(h, z, nonce, LabelKey, 16)
	k2 := DeriveKey(h, z, nonce, LabelKey, 16)
	if !bytes.Equal(k1, k2) {
		t.Fatalf("derivation is not deterministic")
	}

	iv := DeriveKey(h, z, nonce, LabelIV, 16)
	if bytes.Equal(k1, iv) {
		t.Fatalf("key and iv labels collided")
	}

	long := DeriveKey(h, z, nonce, LabelKey, 100)
	if len(long) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(long))
	}
}

func TestBlowfishCBCRoundTrip(t *testing.T) {
	r := NewRegistry()
	c, ok := r.Cipher("blowfish-cbc")
	if !ok {
		t.Fatal("blowfish-cbc missing")
	}
	key := bytes.Repeat([]byte{0x01}, c.KeyLength)
	iv := bytes.Repeat([]byte{0x02}, c.IVLength)
	plaintext := bytes.Repeat([]byte{0x42}, c.BlockSize*4)

	ciphertext := make([]byte, len(plaintext))
	if err := c.Operate(Encrypt, ciphertext, plaintext, key, iv); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatalf("ciphertext equals plaintext")
	}

	decrypted := make([]byte, len(plaintext))
	if err := c.Operate(Decrypt, decrypted, ciphertext, key, iv); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("round trip mismatch")
	}
}

func TestNoneCipherIsIdentity(t *testing.T) {
	r := NewRegistry()
	c, _ := r.Cipher("none")
	if !c.IsNone() {
		t.Fatal("expected IsNone")
	}
	src := []byte("hello")
	dst := make([]byte, len(src))
	_ = c.Operate(Encrypt, dst, src, nil, nil)
	if !bytes.Equal(dst, src) {
		t.Fatalf("none cipher changed data")
	}
}
