package cryptoregistry

// Label identifies which of the three directional secrets DeriveKey is
// producing (spec §4.2).
type Label byte

const (
	LabelKey Label = 'k'
	LabelIV  Label = 'i'
	LabelMAC Label = 'm'
)

func (l Label) bytes() []byte {
	switch l {
	case LabelKey:
		return []byte("key")
	case LabelIV:
		return []byte("iv")
	case LabelMAC:
		return []byte("mac")
	default:
		return nil
	}
}

// DeriveKey implements the shared key-derivation function (spec §4.2):
// given a shared secret z, a handshake nonce h, a hash function, an output
// length, and a label, iterate HASH(z || h || label || digest_so_far)
// enough times to yield length bytes, truncating the final iteration.
// Identical inputs on both ends of a handshake yield identical keys.
func DeriveKey(hash Hash, z, h []byte, label Label, length int) []byte {
	out := make([]byte, 0, length+hash.Length)
	digest := make([]byte, 0, hash.Length)
	labelBytes := label.bytes()

	for len(out) < length {
		input := make([]byte, 0, len(z)+len(h)+len(labelBytes)+len(digest))
		input = append(input, z...)
		input = append(input, h...)
		input = append(input, labelBytes...)
		input = append(input, digest...)

		digest = hash.Sum(input)
		out = append(out, digest...)
	}
	return out[:length]
}
