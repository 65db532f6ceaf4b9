package queue

import "errors"

var (
	// ErrFull is returned by Enqueue when the queue is at capacity.
	ErrFull = errors.New("queue: full")
	// ErrEmpty is returned by TryDequeue when nothing is ready.
	ErrEmpty = errors.New("queue: empty")
	// ErrClosed is returned once the queue has been closed and drained.
	ErrClosed = errors.New("queue: closed")
)
