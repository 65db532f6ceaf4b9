package dataplane

import "errors"

var (
	ErrFrameTooLarge = errors.New("dataplane: frame exceeds LLP_MTU")
	ErrShortFrame    = errors.New("dataplane: frame shorter than its fixed overhead")
	ErrMACMismatch   = errors.New("dataplane: MAC verification failed")
	ErrWrongState    = errors.New("dataplane: session not in a state that accepts this packet")
	ErrVerifierMismatch = errors.New("dataplane: close verifier does not match")
)
