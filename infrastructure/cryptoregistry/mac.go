package cryptoregistry

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
)

// MAC describes a named message-authentication-code algorithm: key length,
// output length, and a function mapping (input, key) to MAC bytes (spec
// §4.2).
type MAC struct {
	Name      string
	KeyLength int
	Length    int
	Compute   func(data, key []byte) []byte
}

func sha1MAC() MAC {
	return MAC{
		Name:      "sha1-mac",
		KeyLength: sha1.Size,
		Length:    sha1.Size,
		Compute: func(data, key []byte) []byte {
			m := hmac.New(sha1.New, key)
			m.Write(data)
			return m.Sum(nil)
		},
	}
}

func sha256MAC() MAC {
	return MAC{
		Name:      "sha256-mac",
		KeyLength: sha256.Size,
		Length:    sha256.Size,
		Compute: func(data, key []byte) []byte {
			m := hmac.New(sha256.New, key)
			m.Write(data)
			return m.Sum(nil)
		},
	}
}
