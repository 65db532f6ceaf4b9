package handshake

import "kurupira/infrastructure/cryptoregistry"

// deriveDirectional materializes one direction's key/iv/mac triple from the
// shared secret z and that direction's handshake nonce h (spec §4.2, §4.6
// "Derives six directional keys").
func deriveDirectional(cipher cryptoregistry.Cipher, hash cryptoregistry.Hash, mac cryptoregistry.MAC, z, h []byte) KeyMaterial {
	return KeyMaterial{
		Cipher: cipher,
		Hash:   hash,
		MAC:    mac,
		Key:    cryptoregistry.DeriveKey(hash, z, h, cryptoregistry.LabelKey, cipher.KeyLength),
		IV:     cryptoregistry.DeriveKey(hash, z, h, cryptoregistry.LabelIV, cipher.IVLength),
		MACKey: cryptoregistry.DeriveKey(hash, z, h, cryptoregistry.LabelMAC, mac.KeyLength),
	}
}

// deriveSession computes the verifier and both directional key sets from a
// completed DH exchange (spec §4.6 "After computing z").
func deriveSession(cipher cryptoregistry.Cipher, hash cryptoregistry.Hash, mac cryptoregistry.MAC, z, hIn, hOut []byte) (in, out KeyMaterial, verifier []byte) {
	in = deriveDirectional(cipher, hash, mac, z, hIn)
	out = deriveDirectional(cipher, hash, mac, z, hOut)
	verifier = hash.Sum(z)
	return
}
