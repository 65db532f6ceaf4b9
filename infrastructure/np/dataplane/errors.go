package dataplane

import "errors"

var (
	ErrFrameTooLarge = errors.New("np dataplane: frame exceeds FTU")
	ErrShortFrame    = errors.New("np dataplane: frame too short to contain its own fields")
	ErrMACMismatch   = errors.New("np dataplane: mac verification failed")
	ErrUnknownPeer   = errors.New("np dataplane: no connected key-store entry for peer")
)
