package handshake

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"testing"

	"kurupira/domain"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/cryptoregistry"
	"kurupira/infrastructure/np/identity"
	"kurupira/infrastructure/np/keystore"
	"kurupira/infrastructure/np/npframe"
	"kurupira/infrastructure/np/routing"
	"kurupira/infrastructure/wire"
)

func newTestIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	return &identity.Identity{
		Private:   key,
		PublicDER: der,
		Self:      domain.PeerIDFromPublicKey(der),
	}
}

// loopTransport decodes every frame it's handed and calls straight into the
// paired engine's matching handler, so a test can drive a full handshake
// without a real socket (spec §4.12 is silent on transport; the router
// (C13) plays this role in production).
type loopTransport struct {
	peer *Engine
}

func (lt *loopTransport) SendToPeer(dst domain.PeerID, frame []byte) error {
	r := wire.NewReader(frame)
	h, err := npframe.DecodeHeader(r)
	if err != nil {
		return err
	}
	switch h.Type {
	case domain.NPPublicKeyRequest:
		req, err := DecodePublicKeyRequest(h, r)
		if err != nil {
			return err
		}
		return lt.peer.HandlePublicKeyRequest(req)
	case domain.NPPublicKeyResponse:
		resp, err := DecodePublicKeyResponse(h, r)
		if err != nil {
			return err
		}
		return lt.peer.HandlePublicKeyResponse(resp)
	case domain.NPKeyExchange:
		ke, err := DecodeKeyExchange(h, r)
		if err != nil {
			return err
		}
		return lt.peer.HandleKeyExchange(ke)
	case domain.NPKeyExchangeOK:
		ok, err := DecodeKeyExchangeOK(h, r)
		if err != nil {
			return err
		}
		return lt.peer.HandleKeyExchangeOK(ok)
	}
	return nil
}

func newTestEngine(t *testing.T, self *identity.Identity, cfg config.NP) (*Engine, *loopTransport) {
	t.Helper()
	store := keystore.New(8)
	table := routing.New(8, 4)
	registry := cryptoregistry.NewRegistry()
	lt := &loopTransport{}
	e := NewEngine(self, store, table, registry, lt, cfg)
	return e, lt
}

// TestFullHandshakeProducesMatchingKeys drives the four-message handshake
// end to end via loopTransport and checks both ends derive identical
// directional keys (spec §4.12).
func TestFullHandshakeProducesMatchingKeys(t *testing.T) {
	idA := newTestIdentity(t)
	idB := newTestIdentity(t)
	cfg := config.DefaultNP()

	a, aTransport := newTestEngine(t, idA, cfg)
	b, bTransport := newTestEngine(t, idB, cfg)
	aTransport.peer = b
	bTransport.peer = a

	if err := a.Connect(idB.Self); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	slotA, ok := a.store.Lookup(idB.Self)
	if !ok {
		t.Fatal("A must have a key-store slot for B after Connect")
	}
	slotB, ok := b.store.Lookup(idA.Self)
	if !ok {
		t.Fatal("B must have a key-store slot for A after Connect")
	}
	if got := a.store.State(slotA); got != domain.HSConnected {
		t.Fatalf("A's slot state = %v, want CONNECTED", got)
	}
	if got := b.store.State(slotB); got != domain.HSConnected {
		t.Fatalf("B's slot state = %v, want CONNECTED", got)
	}

	var aIn, aOut, bIn, bOut keystore.KeyMaterial
	a.store.With(slotA, func(en *keystore.Entry) { aIn, aOut = en.In(), en.Out() })
	b.store.With(slotB, func(en *keystore.Entry) { bIn, bOut = en.In(), en.Out() })

	if !bytes.Equal(aOut.Key, bIn.Key) {
		t.Fatal("A's outbound key must equal B's inbound key")
	}
	if !bytes.Equal(aIn.Key, bOut.Key) {
		t.Fatal("A's inbound key must equal B's outbound key")
	}
	if !bytes.Equal(aOut.MACKey, bIn.MACKey) {
		t.Fatal("A's outbound mac key must equal B's inbound mac key")
	}
}

// TestNegotiationRestrictedToResponderConfiguredList exercises the
// responder-side fix: HandleKeyExchange must intersect the initiator's
// offer with this node's own configured list, not the whole registry
// (spec §4.12).
func TestNegotiationRestrictedToResponderConfiguredList(t *testing.T) {
	idA := newTestIdentity(t)
	idB := newTestIdentity(t)

	cfgA := config.DefaultNP()
	cfgA.CipherList = "aes256-cbc"

	cfgB := config.DefaultNP()
	cfgB.CipherList = "blowfish-cbc"

	a, aTransport := newTestEngine(t, idA, cfgA)
	b, bTransport := newTestEngine(t, idB, cfgB)
	aTransport.peer = b
	bTransport.peer = a

	if err := a.Connect(idB.Self); err == nil {
		t.Fatal("Connect should fail: A offers aes256-cbc, B is configured for blowfish-cbc only")
	}
}

// TestHandlePublicKeyRequestRejectsVersionMismatch exercises
// HandlePublicKeyRequest's version check, the NP handshake's first gate
// (spec §4.12 step 1).
func TestHandlePublicKeyRequestRejectsVersionMismatch(t *testing.T) {
	idA := newTestIdentity(t)
	idB := newTestIdentity(t)
	b, _ := newTestEngine(t, idB, config.DefaultNP())

	req := PublicKeyRequest{
		Header: npframe.Header{
			Type: domain.NPPublicKeyRequest,
			TTL:  config.DefaultTTL,
			Src:  idA.Self,
			Dst:  idB.Self,
		},
		Major:     VersionMajor + 1,
		Minor:     VersionMinor,
		PublicKey: idA.PublicDER,
	}
	if err := b.HandlePublicKeyRequest(req); err != ErrVersionMismatch {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
}

// TestHandlePublicKeyRequestRejectsKeyIDMismatch covers the identity-
// binding check: a claimed source ID that doesn't hash from the attached
// public key must be rejected (spec §4.9, §4.12 step 2).
func TestHandlePublicKeyRequestRejectsKeyIDMismatch(t *testing.T) {
	idA := newTestIdentity(t)
	idB := newTestIdentity(t)
	other := newTestIdentity(t)
	b, _ := newTestEngine(t, idB, config.DefaultNP())

	req := PublicKeyRequest{
		Header: npframe.Header{
			Type: domain.NPPublicKeyRequest,
			TTL:  config.DefaultTTL,
			Src:  idA.Self,
			Dst:  idB.Self,
		},
		Major:     VersionMajor,
		Minor:     VersionMinor,
		PublicKey: other.PublicDER,
	}
	if err := b.HandlePublicKeyRequest(req); err != ErrNotRSAKey {
		t.Fatalf("err = %v, want ErrNotRSAKey", err)
	}
}

// TestHandleKeyExchangeRejectsWrongEchoedK covers the responder-side
// verifier check: KEY_EXCHANGE must echo back exactly the k_out this side
// sent in PUBLIC_KEY_RESPONSE (spec §4.12 step 3/4).
func TestHandleKeyExchangeRejectsWrongEchoedK(t *testing.T) {
	idA := newTestIdentity(t)
	idB := newTestIdentity(t)
	cfg := config.DefaultNP()

	b, _ := newTestEngine(t, idB, cfg)

	req := PublicKeyRequest{
		Header: npframe.Header{
			Type: domain.NPPublicKeyRequest,
			TTL:  config.DefaultTTL,
			Src:  idA.Self,
			Dst:  idB.Self,
		},
		Major:     VersionMajor,
		Minor:     VersionMinor,
		PublicKey: idA.PublicDER,
	}
	if err := b.HandlePublicKeyRequest(req); err != nil {
		t.Fatalf("HandlePublicKeyRequest: %v", err)
	}

	ke := KeyExchange{
		Header: npframe.Header{
			Type: domain.NPKeyExchange,
			TTL:  config.DefaultTTL,
			Src:  idA.Self,
			Dst:  idB.Self,
		},
		CipherList: cfg.CipherList,
		HashList:   cfg.HashList,
		MACList:    cfg.MacList,
		EchoedK:    bytes.Repeat([]byte{0xFF}, config.KLength),
		NewK:       bytes.Repeat([]byte{0x01}, config.KLength),
	}
	if err := b.HandleKeyExchange(ke); err != ErrVerifierMismatch {
		t.Fatalf("err = %v, want ErrVerifierMismatch", err)
	}
}
