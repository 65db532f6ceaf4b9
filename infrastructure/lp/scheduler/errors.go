package scheduler

import "errors"

// ErrNoSuchSession is returned when an operator-issued command names a
// session slot that is not currently in use.
var ErrNoSuchSession = errors.New("scheduler: no such session")
