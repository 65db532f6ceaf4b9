package routing

import "errors"

// ErrTableFull is returned when every slot on a peer ID's probe sequence
// is occupied by a different peer; per spec §4.10 this should never
// happen in practice because the table size always leaves a slot free.
var ErrTableFull = errors.New("routing: table full along probe sequence")
