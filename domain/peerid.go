// Package domain holds the value types shared by the Link Protocol and the
// Network Protocol: peer identifiers, network addresses, and the closed
// enumerations of protocol state.
package domain

import (
	"crypto/sha1"
	"encoding/hex"
)

// PeerIDLength is the fixed length, in bytes, of a peer identifier: the
// SHA-1 digest of the peer's RSA public-key byte encoding.
const PeerIDLength = sha1.Size // 20

// PeerID is a peer's overlay address: SHA-1 of its RSA public key.
// Peer IDs are compared byte-wise; equality defines routing destination.
type PeerID [PeerIDLength]byte

// PeerIDFromPublicKey derives a peer ID from the DER encoding of an RSA
// public key, matching NP identity derivation (spec §4.9).
func PeerIDFromPublicKey(pubKeyDER []byte) PeerID {
	return PeerID(sha1.Sum(pubKeyDER))
}

// String renders the peer ID as lowercase hex, for logs and console output.
func (id PeerID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the all-zero sentinel, used as a "no peer"
// value in places that cannot use a pointer (e.g. fixed-size wire structs).
func (id PeerID) IsZero() bool {
	var zero PeerID
	return id == zero
}

// ParsePeerID decodes a hex-encoded peer ID, as accepted by console commands.
func ParsePeerID(s string) (PeerID, error) {
	var id PeerID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != PeerIDLength {
		return id, ErrInvalidPeerIDLength
	}
	copy(id[:], b)
	return id, nil
}
