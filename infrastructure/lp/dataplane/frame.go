// Package dataplane implements C7, the Link Protocol's encrypted data
// frame (spec §4.7): padding/MAC/encrypt on send, decrypt/verify/dispatch
// on receive, and the six inner-packet handlers (DATAGRAM, CLOSE_REQUEST,
// CLOSE_OK, NODE_HUNT, HUNT_RESULT, KEEP_ALIVE). Framing is grounded on the
// teacher's infrastructure/cryptography/chacha20 AEAD framing shape
// (encrypt-then-tag, fixed header), adapted here to the spec's
// separate-cipher/separate-MAC construction instead of an AEAD.
package dataplane

import (
	"crypto/subtle"
	"encoding/binary"

	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/lp/sessiontable"
)

// PaddingLength computes LLP_DATA's padding length so that
// padding+innerLen+2 aligns up to the cipher's block size, with a floor of
// minPad, or zero for the null cipher (spec §4.7).
func PaddingLength(innerLen, blockSize, minPad int) int {
	if blockSize <= 1 {
		return 0
	}
	total := innerLen + 2 + minPad
	if rem := total % blockSize; rem != 0 {
		minPad += blockSize - rem
	}
	return minPad
}

// EncodeData builds an LLP_DATA frame carrying one inner packet, encrypted
// and MAC'd with out's directional key material (spec §4.7).
func EncodeData(foreignSession uint8, innerType domain.LPInnerType, innerPayload []byte, out sessiontable.KeyMaterial) ([]byte, error) {
	padLen := PaddingLength(1+len(innerPayload), out.Cipher.BlockSize, config.MinPaddingLength)
	if out.Cipher.IsNone() {
		padLen = 0
	}

	plaintext := make([]byte, padLen+1+len(innerPayload)+2)
	// padding bytes are left zero; they carry no meaning and are discarded
	// by the receiver without being interpreted.
	plaintext[padLen] = byte(innerType)
	copy(plaintext[padLen+1:], innerPayload)
	binary.BigEndian.PutUint16(plaintext[len(plaintext)-2:], uint16(padLen))

	ciphertext := make([]byte, len(plaintext))
	if err := out.Cipher.Operate(cryptoregistry.Encrypt, ciphertext, plaintext, out.Key, out.IV); err != nil {
		return nil, err
	}

	mac := out.MAC.Compute(plaintext, out.MACKey)

	frame := make([]byte, 0, 2+len(ciphertext)+len(mac))
	frame = append(frame, byte(domain.LPData), foreignSession)
	frame = append(frame, ciphertext...)
	frame = append(frame, mac...)

	if len(frame) > config.MTU {
		return nil, ErrFrameTooLarge
	}
	return frame, nil
}

// DecodeData decrypts and verifies body (the bytes following the type and
// session octets) using in's directional key material, returning the inner
// packet (type byte + payload) on success (spec §4.7).
func DecodeData(body []byte, in sessiontable.KeyMaterial) (inner []byte, err error) {
	macLen := in.MAC.Length
	if len(body) < macLen {
		return nil, ErrShortFrame
	}
	ciphertext := body[:len(body)-macLen]
	givenMAC := body[len(body)-macLen:]

	plaintext := make([]byte, len(ciphertext))
	if err := in.Cipher.Operate(cryptoregistry.Decrypt, plaintext, ciphertext, in.Key, in.IV); err != nil {
		return nil, err
	}

	wantMAC := in.MAC.Compute(plaintext, in.MACKey)
	if subtle.ConstantTimeCompare(wantMAC, givenMAC) != 1 {
		return nil, ErrMACMismatch
	}

	if len(plaintext) < 2 {
		return nil, ErrShortFrame
	}
	padLen := int(binary.BigEndian.Uint16(plaintext[len(plaintext)-2:]))
	if padLen+1 > len(plaintext)-2 {
		return nil, ErrShortFrame
	}
	return plaintext[padLen : len(plaintext)-2], nil
}
