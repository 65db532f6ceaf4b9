package handshake

import (
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/np/keystore"
)

// pairSalt returns the value both ends of an NP handshake use as the
// shared "h" half of key derivation (spec §4.2, §4.12: "each side uses the
// pair (public_key_of_remote, k_concat)"). Read literally, "public key of
// the remote" differs by perspective (A's remote is B, B's remote is A),
// which would make the two sides derive from different salts and never
// agree. Kurupira resolves this the same way both sides can resolve it
// without further negotiation: by always ordering the two public keys
// initiator-then-responder, a fact both sides already know by the time
// either derives a key.
func pairSalt(initiatorPub, responderPub []byte) []byte {
	salt := make([]byte, 0, len(initiatorPub)+len(responderPub))
	salt = append(salt, initiatorPub...)
	salt = append(salt, responderPub...)
	return salt
}

// deriveDirectional materializes one direction's key/iv/mac triple from the
// k-half concatenation z and the shared pair salt h (spec §4.2, §4.12
// "derives six directional keys").
func deriveDirectional(cipher cryptoregistry.Cipher, hash cryptoregistry.Hash, mac cryptoregistry.MAC, z, h []byte) keystore.KeyMaterial {
	return keystore.KeyMaterial{
		Cipher: cipher,
		Hash:   hash,
		MAC:    mac,
		Key:    cryptoregistry.DeriveKey(hash, z, h, cryptoregistry.LabelKey, cipher.KeyLength),
		IV:     cryptoregistry.DeriveKey(hash, z, h, cryptoregistry.LabelIV, cipher.IVLength),
		MACKey: cryptoregistry.DeriveKey(hash, z, h, cryptoregistry.LabelMAC, mac.KeyLength),
	}
}

// deriveSession computes both directional key sets once both k halves and
// the negotiated algorithms are known (spec §4.12 step 3/4). kIn/kOut are
// this side's perspective: kIn is the half received from the peer, kOut is
// the half this side generated.
func deriveSession(cipher cryptoregistry.Cipher, hash cryptoregistry.Hash, mac cryptoregistry.MAC, kIn, kOut, initiatorPub, responderPub []byte) (in, out keystore.KeyMaterial) {
	salt := pairSalt(initiatorPub, responderPub)
	in = deriveDirectional(cipher, hash, mac, concat(kIn, kOut), salt)
	out = deriveDirectional(cipher, hash, mac, concat(kOut, kIn), salt)
	return
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
