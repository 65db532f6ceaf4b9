package cryptoregistry

import (
	"strings"
)

// Registry is a closed, string-keyed set of cipher/hash/MAC descriptors.
// Handshakes negotiate by name (spec §4.2, §4.6); dispatch is always on the
// descriptor, never on a vtable, so the algorithm set stays closed and
// testable (spec §9 design note).
type Registry struct {
	ciphers map[string]Cipher
	hashes  map[string]Hash
	macs    map[string]MAC
}

// NewRegistry returns a Registry populated with every algorithm Kurupira
// supports. The spec's defaults ("blowfish-cbc", "sha1", "sha1-mac") are
// always present; aes256-cbc, chacha20, and sha256-mac are additional
// options a deployment may offer via its cipher_list/hash_list/mac_list
// configuration.
func NewRegistry() *Registry {
	r := &Registry{
		ciphers: make(map[string]Cipher),
		hashes:  make(map[string]Hash),
		macs:    make(map[string]MAC),
	}
	for _, c := range []Cipher{noneCipher(), blowfishCBCCipher(), aesCBCCipher(), chacha20StreamCipher()} {
		r.ciphers[c.Name] = c
	}
	for _, h := range []Hash{sha1Hash(), sha256Hash()} {
		r.hashes[h.Name] = h
	}
	for _, m := range []MAC{sha1MAC(), sha256MAC()} {
		r.macs[m.Name] = m
	}
	return r
}

// Cipher looks up a cipher descriptor by name.
func (r *Registry) Cipher(name string) (Cipher, bool) {
	c, ok := r.ciphers[name]
	return c, ok
}

// Hash looks up a hash descriptor by name.
func (r *Registry) Hash(name string) (Hash, bool) {
	h, ok := r.hashes[name]
	return h, ok
}

// MAC looks up a MAC descriptor by name.
func (r *Registry) MAC(name string) (MAC, bool) {
	m, ok := r.macs[name]
	return m, ok
}

// SplitList splits a semicolon- or space-separated algorithm name list, as
// carried on the wire (semicolons, spec §4.6) or read from configuration
// (spaces, spec §6).
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' '
	})
	return fields
}

// JoinList renders a list of algorithm names for the wire (semicolon
// separated, matching CONNECTION_REQUEST's cipher/hash/mac fields).
func JoinList(names []string) string {
	return strings.Join(names, ";")
}

// contains reports whether name appears in list.
func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

// NegotiateCipher picks the first name in offered that also appears in
// configured, the responder's own configured list, matching the
// responder's first-match-in-list rule (spec §4.6, reused verbatim by NP
// in §4.12: "the first name in the initiator's list that also appears in
// the responder's configured list"). The descriptor is then looked up in
// the registry, which only serves as the name-to-descriptor table.
func NegotiateCipher(offered, configured []string, r *Registry) (Cipher, bool) {
	for _, name := range offered {
		if !contains(configured, name) {
			continue
		}
		if c, ok := r.Cipher(name); ok {
			return c, true
		}
	}
	return Cipher{}, false
}

// NegotiateHash picks the first offered name present in both configured
// and the registry.
func NegotiateHash(offered, configured []string, r *Registry) (Hash, bool) {
	for _, name := range offered {
		if !contains(configured, name) {
			continue
		}
		if h, ok := r.Hash(name); ok {
			return h, true
		}
	}
	return Hash{}, false
}

// NegotiateMAC picks the first offered name present in both configured and
// the registry.
func NegotiateMAC(offered, configured []string, r *Registry) (MAC, bool) {
	for _, name := range offered {
		if !contains(configured, name) {
			continue
		}
		if m, ok := r.MAC(name); ok {
			return m, true
		}
	}
	return MAC{}, false
}
