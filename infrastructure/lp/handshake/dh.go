// Package handshake implements C6, the Link Protocol's neighbor handshake:
// CONNECTION_REQUEST / CONNECTION_OK / KEY_EXCHANGE packet codecs,
// algorithm negotiation, Diffie-Hellman key agreement over the fixed
// RFC 3526 group, and directional key derivation (spec §4.6).
//
// The DH group is grounded on math/big the way
// other_examples/6467e773_Tomsons-go-srp__srp.go.go implements SRP-6a: the
// corpus has no library for a single fixed MODP group, so big.Int modexp
// is the idiomatic choice here (see DESIGN.md).
package handshake

import (
	"crypto/rand"
	"math/big"
)

// group2048Hex is the 2048-bit MODP group (RFC 3526, id 14) prime.
const group2048Hex = "" +
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
	"129024E088A67CC74020BBEA63B139B22514A08798E3404" +
	"DDEF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C" +
	"245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406" +
	"B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE" +
	"45B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD" +
	"24CF5F83655D23DCA3AD961C62F356208552BB9ED529077" +
	"096966D670C354E4ABC9804F1746C08CA18217C32905E46" +
	"2E36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF" +
	"06F4C52C9DE2BCBF6955817183995497CEA956AE515D225" +
	"6A2F1CF16540EEF7C8818667B6A3B0F5B0C4A6CC37133C5" +
	"5A744269823D4F09B9ED1C0E3FA8CE6D70C9D81D0D8EF3F" +
	"C32AFC91D8EC8C1F7C7BA6BD9C3A23A26B9F623FF9C9C72" +
	"0AB62EDC7C5CF2B1E92E3FBA72631AFB53AC4E8E4D09F9E" +
	"2E06636DCC80CFD7D2A30EDC41CFBF73DCD9A70CB76F0F1" +
	"C9FA4A9EEEEE85CB3E5D6DCA7B3900B15F47DF91F78E49B" +
	"4C98E05D7F90C2F8C6B60C3A52E0F3B84BA53E37CEF5F33" +
	"D7C8FE7FEFFFFFFFFFFFFFFF"

var group2048Prime = mustParseHex(group2048Hex)

const groupGenerator = 2

func mustParseHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("handshake: invalid group prime")
	}
	return n
}

// Exponent generates a random private exponent x of xLength bytes.
func Exponent(xLength int) (*big.Int, error) {
	buf := make([]byte, xLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}

// PublicValue computes y = g^x mod p (spec §4.6).
func PublicValue(x *big.Int) *big.Int {
	g := big.NewInt(groupGenerator)
	return new(big.Int).Exp(g, x, group2048Prime)
}

// SharedSecret computes z = yIn^x mod p (spec §4.6).
func SharedSecret(x, yIn *big.Int) *big.Int {
	return new(big.Int).Exp(yIn, x, group2048Prime)
}
