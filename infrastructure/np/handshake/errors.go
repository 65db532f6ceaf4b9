package handshake

import "errors"

var (
	ErrVersionMismatch    = errors.New("np handshake: incompatible major protocol version")
	ErrNoAlgorithmMatch   = errors.New("np handshake: no common cipher, hash, or mac algorithm")
	ErrWrongState         = errors.New("np handshake: packet received in the wrong key-store state")
	ErrNotRSAKey          = errors.New("np handshake: peer public key does not match its claimed peer id")
	ErrVerifierMismatch   = errors.New("np handshake: echoed k does not match what we sent")
	ErrStoreFull          = errors.New("np handshake: key store has no free slot")
	ErrTimeout            = errors.New("np handshake: no response within the handshake timeout")
	ErrAlreadyInProgress  = errors.New("np handshake: a handshake to this peer is already in progress")
)
