package wire

import "errors"

var (
	// ErrBufferFull is returned by Writer when a write would exceed the
	// destination buffer's capacity.
	ErrBufferFull = errors.New("wire: buffer full")
	// ErrShortBuffer is returned by Reader when a read would run past the
	// end of the source buffer (a truncated or malformed packet).
	ErrShortBuffer = errors.New("wire: short buffer")
	// ErrFieldTooLarge is returned when a length-prefixed field declares a
	// length larger than MaxFieldLength, guarding against a hostile length
	// prefix forcing a huge allocation.
	ErrFieldTooLarge = errors.New("wire: field too large")
)

// MaxFieldLength bounds length-prefixed strings and mpints. It is far above
// any legitimate LP/NP field (the LP MTU is 512 bytes) and exists purely to
// reject a corrupt or hostile length prefix before it drives an allocation.
const MaxFieldLength = 1 << 16
