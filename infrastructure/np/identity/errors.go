package identity

import "errors"

var (
	ErrInvalidPEM = errors.New("identity: not a valid PEM block")
	ErrNotRSAKey  = errors.New("identity: key is not RSA")
)
