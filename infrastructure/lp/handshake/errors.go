package handshake

import "errors"

var (
	ErrVersionMismatch   = errors.New("handshake: incompatible major protocol version")
	ErrNoAlgorithmMatch  = errors.New("handshake: no common cipher, hash, or mac algorithm")
	ErrDuplicateAddress  = errors.New("handshake: address already has a session")
	ErrAtConnectionLimit = errors.New("handshake: active session count at max_connections")
	ErrNoFreeSlot        = errors.New("handshake: no free session slot")
	ErrWrongState        = errors.New("handshake: packet received in the wrong session state")
	ErrUnknownAlgorithm  = errors.New("handshake: peer named an algorithm we do not support")
)
