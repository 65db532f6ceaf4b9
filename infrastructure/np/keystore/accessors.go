package keystore

import (
	"crypto/rsa"

	"kurupira/domain"
)

// The setters below are only safe to call on an *Entry obtained inside a
// Store.With callback, which holds the store's mutex for the call's
// duration (spec §5 locking discipline, mirroring sessiontable's
// accessors.go for LP).

func (e *Entry) SetState(v domain.HandshakeState) { e.state = v }

func (e *Entry) SetPeerKey(v *rsa.PublicKey) { e.peerKey = v }
func (e *Entry) SetPeerKeyDER(v []byte)      { e.peerKeyDER = v }

func (e *Entry) SetKIn(v []byte)  { e.kIn = v }
func (e *Entry) SetKOut(v []byte) { e.kOut = v }

func (e *Entry) SetIn(v KeyMaterial)  { e.in = v }
func (e *Entry) SetOut(v KeyMaterial) { e.out = v }

// WrapKOut is the hook point for wrapping a k_out half under the
// requester's RSA public key before it goes on the wire. The original
// implementation and the spec it was distilled from both send k_out in the
// clear (spec §4.12's PUBLIC_KEY_RESPONSE.encrypted_k, despite the field's
// name), so this returns k unchanged; a future asymmetric transport would
// wrap here instead of at the handshake engine's call site.
func WrapKOut(k []byte, peerKey *rsa.PublicKey) []byte { return k }
