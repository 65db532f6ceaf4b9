package cryptoregistry

import "errors"

var (
	// ErrUnalignedInput is returned by a block cipher's Operate when the
	// input length is not a multiple of the cipher's block size.
	ErrUnalignedInput = errors.New("cryptoregistry: input not block-aligned")
)
