// Package dataplane implements C13, the Network Protocol's encrypted DATA
// frame and its receive-side router: padding/MAC/encrypt on send,
// decrypt/verify/classify/forward on receive (spec §4.13). Framing mirrors
// the Link Protocol's dataplane.EncodeData/DecodeData shape (same
// pad-to-block-size, encrypt-then-MAC construction) generalized from a
// fixed one-byte inner type to NP's protocol/timestamp/payload content,
// and from a single neighbor hop to a routed, possibly forwarded, frame.
package dataplane

import (
	"crypto/subtle"
	"encoding/binary"
	"hash/fnv"

	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/np/keystore"
	"kurupira/infrastructure/np/npframe"
	"kurupira/infrastructure/wire"
)

// PaddingLength computes DATA's padding length so that
// padding+content+2 aligns up to the cipher's block size, with a floor of
// minPad, or zero for the null cipher (spec §4.13, same shape as LP's C7).
func PaddingLength(contentLen, blockSize, minPad int) int {
	if blockSize <= 1 {
		return 0
	}
	total := contentLen + 2 + minPad
	if rem := total % blockSize; rem != 0 {
		minPad += blockSize - rem
	}
	return minPad
}

// EncodeData builds a complete NP DATA frame: header, then ciphertext and
// MAC over the padding/protocol/timestamp/payload/padding_length plaintext
// (spec §4.13).
func EncodeData(header npframe.Header, protocol domain.Protocol, timestamp uint16, payload []byte, out keystore.KeyMaterial) ([]byte, error) {
	contentLen := 1 + 2 + len(payload)
	padLen := PaddingLength(contentLen, out.Cipher.BlockSize, config.MinPaddingLength)
	if out.Cipher.IsNone() {
		padLen = 0
	}

	plaintext := make([]byte, padLen+contentLen+2)
	// padding bytes are left zero; they carry no meaning.
	plaintext[padLen] = byte(protocol)
	binary.BigEndian.PutUint16(plaintext[padLen+1:], timestamp)
	copy(plaintext[padLen+3:], payload)
	binary.BigEndian.PutUint16(plaintext[len(plaintext)-2:], uint16(padLen))

	ciphertext := make([]byte, len(plaintext))
	if err := out.Cipher.Operate(cryptoregistry.Encrypt, ciphertext, plaintext, out.Key, out.IV); err != nil {
		return nil, err
	}
	mac := out.MAC.Compute(plaintext, out.MACKey)

	w := wire.NewWriter(make([]byte, 0, npframe.EncodedLen+len(ciphertext)+len(mac)))
	if err := header.Encode(w); err != nil {
		return nil, err
	}
	frame := append(w.Bytes(), ciphertext...)
	frame = append(frame, mac...)

	if len(frame) > config.FTU {
		return nil, ErrFrameTooLarge
	}
	return frame, nil
}

// DecodeData decrypts and verifies body (the bytes following the NP
// header) using in's directional key material, returning the protocol tag
// and payload on success (spec §4.13 step 5).
func DecodeData(body []byte, in keystore.KeyMaterial) (domain.Protocol, []byte, error) {
	macLen := in.MAC.Length
	if len(body) < macLen {
		return 0, nil, ErrShortFrame
	}
	ciphertext := body[:len(body)-macLen]
	givenMAC := body[len(body)-macLen:]

	plaintext := make([]byte, len(ciphertext))
	if err := in.Cipher.Operate(cryptoregistry.Decrypt, plaintext, ciphertext, in.Key, in.IV); err != nil {
		return 0, nil, err
	}

	wantMAC := in.MAC.Compute(plaintext, in.MACKey)
	if subtle.ConstantTimeCompare(wantMAC, givenMAC) != 1 {
		return 0, nil, ErrMACMismatch
	}

	if len(plaintext) < 3 {
		return 0, nil, ErrShortFrame
	}
	padLen := int(binary.BigEndian.Uint16(plaintext[len(plaintext)-2:]))
	if padLen+3 > len(plaintext)-2 {
		return 0, nil, ErrShortFrame
	}
	protocol := domain.Protocol(plaintext[padLen])
	payload := plaintext[padLen+3 : len(plaintext)-2]
	return protocol, payload, nil
}

// duplicateHash fingerprints the content that distinguishes one arrival
// from a resend of the same frame: the flags byte onward, i.e. everything
// after the mutable type/TTL/src/dst prefix (spec §4.13 step 1, "Hash the
// content from flags onward"). This is a non-cryptographic fingerprint
// feeding a best-effort table, not a security boundary, so the stdlib
// FNV-1a is used rather than one of the negotiated session hashes, which
// are not yet known at this point in the receive path.
func duplicateHash(frame []byte) uint32 {
	if len(frame) < npframe.EncodedLen {
		return 0
	}
	h := fnv.New32a()
	h.Write(frame[npframe.EncodedLen-1:])
	return h.Sum32()
}
