package handshake

import (
	"kurupira/domain"
	"kurupira/infrastructure/wire"
)

// VersionMajor and VersionMinor are this implementation's LP protocol
// version (spec §4.6 "Protocol versioning").
const (
	VersionMajor byte = 1
	VersionMinor byte = 0
)

// maxPacketSize bounds every handshake packet's wire encoding so buffers
// can be stack-allocated (spec §4.1).
const maxPacketSize = 1024

// ConnectionRequest is LP's CONNECTION_REQUEST (spec §4.6).
type ConnectionRequest struct {
	Major, Minor      byte
	InitiatorSession  byte
	CipherList        string
	HashList          string
	MACList           string
	H                 [16]byte
}

// Encode serializes r per spec §4.6.
func (r ConnectionRequest) Encode() ([]byte, error) {
	w := wire.NewWriter(make([]byte, 0, maxPacketSize))
	if err := w.Byte(byte(domain.LPConnectionRequest)); err != nil {
		return nil, err
	}
	if err := w.Byte(r.Major); err != nil {
		return nil, err
	}
	if err := w.Byte(r.Minor); err != nil {
		return nil, err
	}
	if err := w.Byte(r.InitiatorSession); err != nil {
		return nil, err
	}
	if err := w.String(r.CipherList); err != nil {
		return nil, err
	}
	if err := w.String(r.HashList); err != nil {
		return nil, err
	}
	if err := w.String(r.MACList); err != nil {
		return nil, err
	}
	if err := w.Fixed(r.H[:]); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeConnectionRequest parses a CONNECTION_REQUEST body (the type byte
// already consumed by the caller's dispatch).
func DecodeConnectionRequest(body []byte) (ConnectionRequest, error) {
	var r ConnectionRequest
	rd := wire.NewReader(body)
	var err error
	if r.Major, err = rd.Byte(); err != nil {
		return r, err
	}
	if r.Minor, err = rd.Byte(); err != nil {
		return r, err
	}
	if r.InitiatorSession, err = rd.Byte(); err != nil {
		return r, err
	}
	if r.CipherList, err = rd.String(); err != nil {
		return r, err
	}
	if r.HashList, err = rd.String(); err != nil {
		return r, err
	}
	if r.MACList, err = rd.String(); err != nil {
		return r, err
	}
	h, err := rd.Fixed(16)
	if err != nil {
		return r, err
	}
	copy(r.H[:], h)
	return r, nil
}

// ConnectionOK is LP's CONNECTION_OK (spec §4.6).
type ConnectionOK struct {
	DestinationSession byte // initiator's session number
	SourceSession      byte // responder's session number
	Cipher, Hash, MAC  string
	H                  [16]byte
	Y                  []byte // DH public value magnitude (non-negative)
}

// Encode serializes o per spec §4.6.
func (o ConnectionOK) Encode() ([]byte, error) {
	w := wire.NewWriter(make([]byte, 0, maxPacketSize))
	if err := w.Byte(byte(domain.LPConnectionOK)); err != nil {
		return nil, err
	}
	if err := w.Byte(o.DestinationSession); err != nil {
		return nil, err
	}
	if err := w.Byte(o.SourceSession); err != nil {
		return nil, err
	}
	if err := w.String(o.Cipher); err != nil {
		return nil, err
	}
	if err := w.String(o.Hash); err != nil {
		return nil, err
	}
	if err := w.String(o.MAC); err != nil {
		return nil, err
	}
	if err := w.Fixed(o.H[:]); err != nil {
		return nil, err
	}
	if err := w.MPInt(o.Y, false); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeConnectionOK parses a CONNECTION_OK body.
func DecodeConnectionOK(body []byte) (ConnectionOK, error) {
	var o ConnectionOK
	rd := wire.NewReader(body)
	var err error
	if o.DestinationSession, err = rd.Byte(); err != nil {
		return o, err
	}
	if o.SourceSession, err = rd.Byte(); err != nil {
		return o, err
	}
	if o.Cipher, err = rd.String(); err != nil {
		return o, err
	}
	if o.Hash, err = rd.String(); err != nil {
		return o, err
	}
	if o.MAC, err = rd.String(); err != nil {
		return o, err
	}
	h, err := rd.Fixed(16)
	if err != nil {
		return o, err
	}
	copy(o.H[:], h)
	y, _, err := rd.MPInt()
	if err != nil {
		return o, err
	}
	o.Y = y
	return o, nil
}

// KeyExchange is LP's KEY_EXCHANGE (spec §4.6).
type KeyExchange struct {
	DestinationSession byte
	Y                  []byte
}

// Encode serializes k per spec §4.6.
func (k KeyExchange) Encode() ([]byte, error) {
	w := wire.NewWriter(make([]byte, 0, maxPacketSize))
	if err := w.Byte(byte(domain.LPKeyExchange)); err != nil {
		return nil, err
	}
	if err := w.Byte(k.DestinationSession); err != nil {
		return nil, err
	}
	if err := w.MPInt(k.Y, false); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeKeyExchange parses a KEY_EXCHANGE body.
func DecodeKeyExchange(body []byte) (KeyExchange, error) {
	var k KeyExchange
	rd := wire.NewReader(body)
	var err error
	if k.DestinationSession, err = rd.Byte(); err != nil {
		return k, err
	}
	y, _, err := rd.MPInt()
	if err != nil {
		return k, err
	}
	k.Y = y
	return k, nil
}
