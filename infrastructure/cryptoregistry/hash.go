package cryptoregistry

import (
	"crypto/sha1"
	"crypto/sha256"
)

// Hash describes a named hash function with a fixed output length (spec
// §4.2).
type Hash struct {
	Name   string
	Length int
	Sum    func(data []byte) []byte
}

func sha1Hash() Hash {
	return Hash{
		Name:   "sha1",
		Length: sha1.Size,
		Sum: func(data []byte) []byte {
			sum := sha1.Sum(data)
			return sum[:]
		},
	}
}

func sha256Hash() Hash {
	return Hash{
		Name:   "sha256",
		Length: sha256.Size,
		Sum: func(data []byte) []byte {
			sum := sha256.Sum256(data)
			return sum[:]
		},
	}
}
