package handshake

import (
	"kurupira/domain"
	"kurupira/infrastructure/np/npframe"
	"kurupira/infrastructure/wire"
)

// VersionMajor and VersionMinor are the NP handshake's protocol version,
// carried on PublicKeyRequest the same way LP's CONNECTION_REQUEST carries
// one (spec §4.6, by analogy for §4.12).
const (
	VersionMajor byte = 1
	VersionMinor byte = 0
)

// PublicKeyRequest is NP's first handshake packet (spec §4.12 step 1): the
// initiator's identity, offered version, delivery mode, and public key.
type PublicKeyRequest struct {
	Header      npframe.Header
	Major       byte
	Minor       byte
	Mode        domain.TransmissionMode
	PublicKey   []byte
}

// Encode renders req onto buf.
func (req PublicKeyRequest) Encode(buf []byte) ([]byte, error) {
	w := wire.NewWriter(buf)
	if err := req.Header.Encode(w); err != nil {
		return nil, err
	}
	if err := w.Byte(req.Major); err != nil {
		return nil, err
	}
	if err := w.Byte(req.Minor); err != nil {
		return nil, err
	}
	if err := w.Byte(byte(req.Mode)); err != nil {
		return nil, err
	}
	if err := w.MPInt(req.PublicKey, false); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodePublicKeyRequest parses a PublicKeyRequest, given its already-read
// header.
func DecodePublicKeyRequest(h npframe.Header, r *wire.Reader) (PublicKeyRequest, error) {
	var req PublicKeyRequest
	req.Header = h

	major, err := r.Byte()
	if err != nil {
		return req, err
	}
	minor, err := r.Byte()
	if err != nil {
		return req, err
	}
	mode, err := r.Byte()
	if err != nil {
		return req, err
	}
	pub, _, err := r.MPInt()
	if err != nil {
		return req, err
	}

	req.Major, req.Minor = major, minor
	req.Mode = domain.TransmissionMode(mode)
	req.PublicKey = pub
	return req, nil
}

// PublicKeyResponse is NP's second handshake packet (spec §4.12 step 2):
// the responder's public key and its random k_out half. The field is
// transported verbatim in this implementation; a future implementation
// may asymmetrically wrap it under the requester's public key, which is
// why the spec names it "encrypted_k".
type PublicKeyResponse struct {
	Header      npframe.Header
	PublicKey   []byte
	EncryptedK  []byte
}

func (resp PublicKeyResponse) Encode(buf []byte) ([]byte, error) {
	w := wire.NewWriter(buf)
	if err := resp.Header.Encode(w); err != nil {
		return nil, err
	}
	if err := w.MPInt(resp.PublicKey, false); err != nil {
		return nil, err
	}
	if err := w.Fixed(resp.EncryptedK); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func DecodePublicKeyResponse(h npframe.Header, r *wire.Reader) (PublicKeyResponse, error) {
	var resp PublicKeyResponse
	resp.Header = h

	pub, _, err := r.MPInt()
	if err != nil {
		return resp, err
	}
	k, err := r.Fixed(32)
	if err != nil {
		return resp, err
	}

	resp.PublicKey = pub
	resp.EncryptedK = append([]byte(nil), k...)
	return resp, nil
}

// KeyExchange is NP's third handshake packet (spec §4.12 step 3): offered
// algorithm lists, the responder's k echoed back, and the initiator's own
// new k half.
type KeyExchange struct {
	Header     npframe.Header
	CipherList string
	HashList   string
	MACList    string
	EchoedK    []byte
	NewK       []byte
}

func (ke KeyExchange) Encode(buf []byte) ([]byte, error) {
	w := wire.NewWriter(buf)
	if err := ke.Header.Encode(w); err != nil {
		return nil, err
	}
	if err := w.String(ke.CipherList); err != nil {
		return nil, err
	}
	if err := w.String(ke.HashList); err != nil {
		return nil, err
	}
	if err := w.String(ke.MACList); err != nil {
		return nil, err
	}
	if err := w.Fixed(ke.EchoedK); err != nil {
		return nil, err
	}
	return ke.encodeNewK(w)
}

func (ke KeyExchange) encodeNewK(w *wire.Writer) ([]byte, error) {
	if err := w.Fixed(ke.NewK); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func DecodeKeyExchange(h npframe.Header, r *wire.Reader) (KeyExchange, error) {
	var ke KeyExchange
	ke.Header = h

	cipherList, err := r.String()
	if err != nil {
		return ke, err
	}
	hashList, err := r.String()
	if err != nil {
		return ke, err
	}
	macList, err := r.String()
	if err != nil {
		return ke, err
	}
	echoed, err := r.Fixed(32)
	if err != nil {
		return ke, err
	}
	newK, err := r.Fixed(32)
	if err != nil {
		return ke, err
	}

	ke.CipherList, ke.HashList, ke.MACList = cipherList, hashList, macList
	ke.EchoedK = append([]byte(nil), echoed...)
	ke.NewK = append([]byte(nil), newK...)
	return ke, nil
}

// KeyExchangeOK is NP's fourth and final handshake packet (spec §4.12 step
// 4): the responder's chosen algorithms and its echo of the initiator's k.
type KeyExchangeOK struct {
	Header  npframe.Header
	Cipher  string
	Hash    string
	MAC     string
	EchoedK []byte
}

func (ok KeyExchangeOK) Encode(buf []byte) ([]byte, error) {
	w := wire.NewWriter(buf)
	if err := ok.Header.Encode(w); err != nil {
		return nil, err
	}
	if err := w.String(ok.Cipher); err != nil {
		return nil, err
	}
	if err := w.String(ok.Hash); err != nil {
		return nil, err
	}
	if err := w.String(ok.MAC); err != nil {
		return nil, err
	}
	if err := w.Fixed(ok.EchoedK); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func DecodeKeyExchangeOK(h npframe.Header, r *wire.Reader) (KeyExchangeOK, error) {
	var ok KeyExchangeOK
	ok.Header = h

	cipher, err := r.String()
	if err != nil {
		return ok, err
	}
	hash, err := r.String()
	if err != nil {
		return ok, err
	}
	mac, err := r.String()
	if err != nil {
		return ok, err
	}
	echoed, err := r.Fixed(32)
	if err != nil {
		return ok, err
	}

	ok.Cipher, ok.Hash, ok.MAC = cipher, hash, mac
	ok.EchoedK = append([]byte(nil), echoed...)
	return ok, nil
}
