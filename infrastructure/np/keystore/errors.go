package keystore

import "errors"

// ErrStoreFull is returned by New when every key-store slot is in use
// (spec §7 "Capacity" error taxonomy).
var ErrStoreFull = errors.New("keystore: no free slot")
