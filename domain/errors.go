package domain

import "errors"

var (
	// ErrInvalidPeerIDLength is returned when a hex-decoded peer ID is not
	// exactly PeerIDLength bytes long.
	ErrInvalidPeerIDLength = errors.New("domain: peer id must be 20 bytes")
)
