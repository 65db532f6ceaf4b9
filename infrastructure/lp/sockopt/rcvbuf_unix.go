//go:build unix

// Package sockopt tunes the LP listener socket's receive buffer, the way
// the teacher's infrastructure/PAL/linux/syscall package wraps a single
// raw syscall behind a small function instead of threading unix.Syscall
// calls through the caller.
package sockopt

import (
	"net"

	"golang.org/x/sys/unix"
)

// TuneReceiveBuffer sets SO_RCVBUF on conn's underlying socket to bytes.
// The kernel doubles whatever value is requested, same as the stdlib's
// SetReadBuffer, but SO_RCVBUF lets a daemon ask for more than the
// portable net package otherwise permits on some platforms.
func TuneReceiveBuffer(conn *net.UDPConn, bytes int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bytes)
	}); err != nil {
		return err
	}
	return sockErr
}
