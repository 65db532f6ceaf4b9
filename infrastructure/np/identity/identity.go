// Package identity implements C9, the Network Protocol's node identity:
// an RSA key pair loaded from disk, a SHA-1-derived self ID, and the
// public key's cached mpint encoding for handshake packets (spec §4.9).
// Key loading is grounded on the teacher's
// infrastructure/cryptography/primitives/crypto.go (PEM-via-x509 key
// parsing), adapted from ed25519/Noise key material to RSA.
package identity

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	"kurupira/domain"
)

// Identity holds this node's RSA key pair, its derived PeerID, and the
// public key's mpint-ready DER bytes (spec §4.9).
type Identity struct {
	Private   *rsa.PrivateKey
	PublicDER []byte
	Self      domain.PeerID
}

// Load reads a PEM-encoded RSA private key from privateKeyPath and a
// PEM-encoded public key from publicKeyPath, and derives the self ID as
// SHA-1 of the public key's DER bytes (spec §4.9).
func Load(publicKeyPath, privateKeyPath string) (*Identity, error) {
	privPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, err
	}
	priv, err := parseRSAPrivateKey(privPEM)
	if err != nil {
		return nil, err
	}

	pubPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, err
	}
	pubDER, err := publicKeyDER(pubPEM)
	if err != nil {
		return nil, err
	}

	return &Identity{
		Private:   priv,
		PublicDER: pubDER,
		Self:      domain.PeerIDFromPublicKey(pubDER),
	}, nil
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidPEM
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSAKey
	}
	return rsaKey, nil
}

func publicKeyDER(pemBytes []byte) ([]byte, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidPEM
	}
	return block.Bytes, nil
}

// FromPublicKeyDER derives a remote peer's PeerID and validates the DER
// bytes parse as an RSA public key, returning the parsed key for later use
// in the handshake (spec §4.9, §4.12).
func FromPublicKeyDER(der []byte) (*rsa.PublicKey, domain.PeerID, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		pub, err2 := x509.ParsePKCS1PublicKey(der)
		if err2 != nil {
			return nil, domain.PeerID{}, err
		}
		return pub, domain.PeerIDFromPublicKey(der), nil
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, domain.PeerID{}, ErrNotRSAKey
	}
	return rsaKey, domain.PeerIDFromPublicKey(der), nil
}
